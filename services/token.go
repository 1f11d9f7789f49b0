package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"notesapi/config"
	"notesapi/metrics"
	"notesapi/model"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.Identity, error)
}

// JWTVerifier checks signed JWTs against either an HMAC secret or an RSA
// public key, then consults the revocation list.
type JWTVerifier struct {
	parser      *jwt.Parser
	key         any
	revocations *TokenRevocationList
}

// NewJWTVerifier returns (nil, nil) when cfg carries no key material.
func NewJWTVerifier(cfg config.AuthConfig, revocations *TokenRevocationList) (*JWTVerifier, error) {
	var (
		key     any
		methods []string
	)

	switch {
	case cfg.PublicKeyFile != "":
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		key = pub
		methods = []string{"RS256", "RS384", "RS512"}
	case cfg.JWTSecret != "":
		key = []byte(cfg.JWTSecret)
		methods = []string{"HS256", "HS384", "HS512"}
	default:
		return nil, nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTVerifier{
		parser:      jwt.NewParser(opts...),
		key:         key,
		revocations: revocations,
	}, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*model.Identity, error) {
	if tokenString == "" {
		metrics.TrackAuthAttempt("failure", "missing")
		return nil, fmt.Errorf("%w: missing bearer token", model.ErrUnauthorized)
	}

	token, err := v.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		reason := "invalid"
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = "expired"
		}
		metrics.TrackAuthAttempt("failure", reason)
		return nil, fmt.Errorf("%w: invalid token: %v", model.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		metrics.TrackAuthAttempt("failure", "claims")
		return nil, fmt.Errorf("%w: invalid token claims", model.ErrUnauthorized)
	}

	identity := identityFromClaims(claims)
	if identity.ID == "" || len(identity.ID) > model.MaxAuthorIDLength {
		metrics.TrackAuthAttempt("failure", "claims")
		return nil, fmt.Errorf("%w: token has no usable subject", model.ErrUnauthorized)
	}

	if v.revocations != nil && v.revocations.IsRevoked(ctx, tokenString) {
		metrics.TrackAuthAttempt("failure", "revoked")
		return nil, fmt.Errorf("%w: token has been revoked", model.ErrUnauthorized)
	}

	metrics.TrackAuthAttempt("success", "bearer")
	return identity, nil
}

func identityFromClaims(claims jwt.MapClaims) *model.Identity {
	identity := &model.Identity{}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		identity.ID = sub
	} else if uid, ok := claims["user_id"].(string); ok {
		identity.ID = uid
	}
	if name, ok := claims["name"].(string); ok {
		identity.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}

	return identity
}

// TokenExpiry reads the exp claim without verifying the signature. Used to
// size the revocation TTL.
func TokenExpiry(tokenString string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(24 * time.Hour), nil
	}
	return exp.Time, nil
}

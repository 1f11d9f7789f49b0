package model

import (
	"time"
)

// Note is a user-authored note plus the fields filled in later by enrichment.
// Summary and SentimentScore stay nil until the background worker patches them.
type Note struct {
	ID             int64     `bson:"_id" json:"id"`
	AuthorID       string    `bson:"author_id" json:"author_id"`
	AuthorName     string    `bson:"author_display_name" json:"author_display_name"`
	Title          string    `bson:"title" json:"title"`
	Content        string    `bson:"content" json:"content"`
	Summary        *string   `bson:"summary" json:"summary"`
	SentimentScore *float64  `bson:"sentiment_score" json:"sentiment_score"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// Enriched reports whether the note is publicly listed.
func (n *Note) Enriched() bool {
	return n.Summary != nil && n.SentimentScore != nil
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID            string
	DisplayName   string
	Email         string
	EmailVerified bool
}

// DevIdentity is injected for mutations when auth is unconfigured and
// the server runs in permissive mode.
var DevIdentity = Identity{ID: "dev", DisplayName: "Developer"}

const (
	MaxAuthorIDLength   = 128
	MaxAuthorNameLength = 80
	MaxTitleLength      = 255
)

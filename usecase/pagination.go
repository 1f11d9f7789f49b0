package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"notesapi/dto"
	"notesapi/model"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// ParsePageRequest validates raw query values. Empty values take defaults.
func ParsePageRequest(limit, order, cursor string) (model.PageQuery, error) {
	q := model.PageQuery{Limit: DefaultPageLimit, Order: model.OrderDesc}

	if limit != "" {
		n, err := strconv.Atoi(strings.TrimSpace(limit))
		if err != nil || n < 1 {
			return q, fmt.Errorf("%w: limit must be a positive integer", model.ErrBadRequest)
		}
		q.Limit = min(n, MaxPageLimit)
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "desc":
		q.Order = model.OrderDesc
	case "asc":
		q.Order = model.OrderAsc
	default:
		return q, fmt.Errorf("%w: order must be asc or desc", model.ErrBadRequest)
	}

	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return q, err
		}
		q.After = c
	}

	return q, nil
}

// EncodeCursor renders the keyset position of note as "<created_at>_<id>".
func EncodeCursor(note *model.Note) string {
	return dto.FormatTimestamp(note.CreatedAt) + "_" + strconv.FormatInt(note.ID, 10)
}

// DecodeCursor splits on the last underscore so the timestamp part may
// contain any characters the layout allows.
func DecodeCursor(s string) (*model.Cursor, error) {
	i := strings.LastIndex(s, "_")
	if i <= 0 || i == len(s)-1 {
		return nil, fmt.Errorf("%w: %q", model.ErrBadCursor, s)
	}

	ts, err := time.Parse(time.RFC3339Nano, s[:i])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBadCursor, err)
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil || id < 0 {
		return nil, fmt.Errorf("%w: bad id in %q", model.ErrBadCursor, s)
	}

	return &model.Cursor{CreatedAt: ts.UTC(), ID: id}, nil
}

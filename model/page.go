package model

import "time"

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Cursor is the keyset position of the last note of a page.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

// PageQuery asks a store for at most Limit enriched notes strictly after
// the cursor position in the given order.
type PageQuery struct {
	Limit int
	Order SortOrder
	After *Cursor
}

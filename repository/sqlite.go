package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"notesapi/metrics"
	"notesapi/model"

	"github.com/mattn/go-sqlite3"
)

const sqliteBackend = "sqlite"

// SQLiteStore keeps notes in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	opts storeOptions
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	// busy_timeout is per connection, so it goes in the DSN rather than a PRAGMA.
	dsn := path + sep + "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{db: db, opts: buildOptions(opts)}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AUTOINCREMENT keeps ids from being reused after the highest row is deleted.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id TEXT NOT NULL CHECK (length(author_id) <= 128),
		author_display_name TEXT NOT NULL DEFAULT '' CHECK (length(author_display_name) <= 80),
		title TEXT NOT NULL DEFAULT '' CHECK (length(title) <= 255),
		content TEXT NOT NULL DEFAULT '',
		summary TEXT,
		sentiment_score REAL CHECK (sentiment_score IS NULL OR (sentiment_score >= 0 AND sentiment_score <= 1)),
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_enriched_created
		ON notes(created_at, id)
		WHERE summary IS NOT NULL AND sentiment_score IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_notes_author_created
		ON notes(author_id, created_at DESC, id DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

const noteColumns = `id, author_id, author_display_name, title, content, summary, sentiment_score, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*model.Note, error) {
	var (
		note      model.Note
		summary   sql.NullString
		sentiment sql.NullFloat64
		created   int64
		updated   int64
	)
	err := row.Scan(&note.ID, &note.AuthorID, &note.AuthorName, &note.Title, &note.Content,
		&summary, &sentiment, &created, &updated)
	if err != nil {
		return nil, err
	}

	if summary.Valid {
		note.Summary = &summary.String
	}
	if sentiment.Valid {
		note.SentimentScore = &sentiment.Float64
	}
	note.CreatedAt = time.UnixMilli(created).UTC()
	note.UpdatedAt = time.UnixMilli(updated).UTC()
	return &note, nil
}

func (s *SQLiteStore) CreateNote(ctx context.Context, authorID, authorName, title, content string) (*model.Note, error) {
	defer metrics.TrackDBOperation("create", sqliteBackend).ObserveDuration()

	now := s.opts.timestamp()
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO notes (author_id, author_display_name, title, content, summary, sentiment_score, created_at, updated_at)
	VALUES (?, ?, ?, ?, NULL, NULL, ?, ?)`,
		authorID, authorName, title, content, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return nil, translateSQLiteError("insert note", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read note id: %w", err)
	}

	return &model.Note{
		ID:         id,
		AuthorID:   authorID,
		AuthorName: authorName,
		Title:      title,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	defer metrics.TrackDBOperation("get", sqliteBackend).ObserveDuration()
	return s.getNote(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) getNote(ctx context.Context, q queryRower, id int64) (*model.Note, error) {
	note, err := scanNote(q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return note, nil
}

func (s *SQLiteStore) UpdateContent(ctx context.Context, id int64, title, content *string) (*model.Note, error) {
	defer metrics.TrackDBOperation("update", sqliteBackend).ObserveDuration()

	if title == nil && content == nil {
		return s.getNote(ctx, s.db, id)
	}

	sets := []string{"updated_at = ?"}
	args := []any{s.opts.timestamp().UnixMilli()}
	if title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *title)
	}
	if content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *content)
	}
	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, translateSQLiteError("update note", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	} else if n == 0 {
		return nil, model.ErrNoteNotFound
	}

	note, err := s.getNote(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return note, nil
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, id int64) error {
	defer metrics.TrackDBOperation("delete", sqliteBackend).ObserveDuration()

	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	if n == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func (s *SQLiteStore) PatchEnrichment(ctx context.Context, id int64, summary *string, sentiment *float64) (int64, error) {
	defer metrics.TrackDBOperation("patch_enrichment", sqliteBackend).ObserveDuration()

	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET summary = ?, sentiment_score = ?, updated_at = ? WHERE id = ?`,
		nullString(summary), nullFloat(sentiment), s.opts.timestamp().UnixMilli(), id,
	)
	if err != nil {
		return 0, translateSQLiteError("patch enrichment", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) ListEnriched(ctx context.Context, q model.PageQuery) ([]*model.Note, error) {
	defer metrics.TrackDBOperation("list", sqliteBackend).ObserveDuration()

	cmp, dir := "<", "DESC"
	if q.Order == model.OrderAsc {
		cmp, dir = ">", "ASC"
	}

	query := `SELECT ` + noteColumns + ` FROM notes WHERE summary IS NOT NULL AND sentiment_score IS NOT NULL`
	var args []any
	if q.After != nil {
		ts := q.After.CreatedAt.UnixMilli()
		query += ` AND (created_at ` + cmp + ` ? OR (created_at = ? AND id ` + cmp + ` ?))`
		args = append(args, ts, ts, q.After.ID)
	}
	query += ` ORDER BY created_at ` + dir + `, id ` + dir + ` LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func translateSQLiteError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %v", op, model.ErrIntegrity, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

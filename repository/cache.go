package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"notesapi/log"
	"notesapi/metrics"
	"notesapi/model"

	"github.com/redis/go-redis/v9"
)

// CachedStore is a read-through cache for single-note lookups. Every
// mutation bumps the note's generation key and drops the cached entry
// after the inner store succeeds. A fill is written under WATCH on the
// generation key, so a read that raced a mutation is never cached. Redis
// failures are logged and the inner store answers.
type CachedStore struct {
	NoteStore
	client *redis.Client
	ttl    time.Duration
}

func NewCachedStore(inner NoteStore, client *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{NoteStore: inner, client: client, ttl: ttl}
}

func noteCacheKey(id int64) string {
	return "note:" + strconv.FormatInt(id, 10)
}

func noteGenerationKey(id int64) string {
	return noteCacheKey(id) + ":gen"
}

func (c *CachedStore) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	key := noteCacheKey(id)
	labels := log.Labels{"note_id": strconv.FormatInt(id, 10)}

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var note model.Note
		if err := json.Unmarshal(data, &note); err == nil {
			metrics.NoteCacheLookups.WithLabelValues("hit").Inc()
			return &note, nil
		}
		metrics.NoteCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.NoteCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.NoteCacheLookups.WithLabelValues("error").Inc()
		log.Logger().Warningf(labels, "note cache read failed: %v", err)
	}

	var (
		note     *model.Note
		innerErr error
		fetched  bool
	)
	fillErr := c.client.Watch(ctx, func(tx *redis.Tx) error {
		note, innerErr = c.NoteStore.GetNote(ctx, id)
		fetched = true
		if innerErr != nil {
			return nil
		}

		data, err := json.Marshal(note)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, noteGenerationKey(id))

	// WATCH itself failed, so Redis is unreachable.
	if !fetched {
		note, innerErr = c.NoteStore.GetNote(ctx, id)
	}
	if innerErr != nil {
		return nil, innerErr
	}

	switch {
	case fillErr == nil:
	case errors.Is(fillErr, redis.TxFailedErr):
		log.Logger().Debugf(labels, "note changed during cache fill, not cached")
	default:
		log.Logger().Warningf(labels, "note cache write failed: %v", fillErr)
	}
	return note, nil
}

func (c *CachedStore) UpdateContent(ctx context.Context, id int64, title, content *string) (*model.Note, error) {
	note, err := c.NoteStore.UpdateContent(ctx, id, title, content)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return note, nil
}

func (c *CachedStore) DeleteNote(ctx context.Context, id int64) error {
	if err := c.NoteStore.DeleteNote(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedStore) PatchEnrichment(ctx context.Context, id int64, summary *string, sentiment *float64) (int64, error) {
	n, err := c.NoteStore.PatchEnrichment(ctx, id, summary, sentiment)
	if err != nil {
		return n, err
	}
	c.invalidate(ctx, id)
	return n, nil
}

func (c *CachedStore) Close() error {
	innerErr := c.NoteStore.Close()
	if err := c.client.Close(); err != nil && innerErr == nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return innerErr
}

// invalidate bumps the generation before dropping the entry so that an
// in-flight fill watching the generation aborts.
func (c *CachedStore) invalidate(ctx context.Context, id int64) {
	gen := noteGenerationKey(id)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gen)
		pipe.Expire(ctx, gen, c.generationTTL())
		pipe.Del(ctx, noteCacheKey(id))
		return nil
	})
	if err != nil {
		log.Logger().Warningf(log.Labels{"note_id": strconv.FormatInt(id, 10)}, "note cache invalidate failed: %v", err)
	}
}

// generationTTL outlives any fill that could still be watching the key.
func (c *CachedStore) generationTTL() time.Duration {
	return max(2*c.ttl, time.Minute)
}

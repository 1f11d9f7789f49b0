package repository

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"notesapi/metrics"
	"notesapi/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoBackend           = "mongo"
	notesCollectionName    = "notes"
	countersCollectionName = "counters"
)

// MongoStore keeps notes in a MongoDB collection. Integer ids come from a
// counters document incremented atomically per insert.
type MongoStore struct {
	client   *mongo.Client
	notes    *mongo.Collection
	counters *mongo.Collection
	opts     storeOptions
}

func NewMongoStore(client *mongo.Client, database string, opts ...Option) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		notes:    db.Collection(notesCollectionName),
		counters: db.Collection(countersCollectionName),
		opts:     buildOptions(opts),
	}
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": notesCollectionName},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate note id: %w", err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) CreateNote(ctx context.Context, authorID, authorName, title, content string) (*model.Note, error) {
	defer metrics.TrackDBOperation("create", mongoBackend).ObserveDuration()

	if err := checkNoteFields(authorID, authorName, &title); err != nil {
		return nil, err
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.opts.timestamp()
	note := &model.Note{
		ID:         id,
		AuthorID:   authorID,
		AuthorName: authorName,
		Title:      title,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := s.notes.InsertOne(ctx, note); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("insert note: %w: %v", model.ErrIntegrity, err)
		}
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

func (s *MongoStore) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	defer metrics.TrackDBOperation("get", mongoBackend).ObserveDuration()

	var note model.Note
	err := s.notes.FindOne(ctx, bson.M{"_id": id}).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return normalize(&note), nil
}

func (s *MongoStore) UpdateContent(ctx context.Context, id int64, title, content *string) (*model.Note, error) {
	if title == nil && content == nil {
		return s.GetNote(ctx, id)
	}
	defer metrics.TrackDBOperation("update", mongoBackend).ObserveDuration()

	if title != nil && utf8.RuneCountInString(*title) > model.MaxTitleLength {
		return nil, fmt.Errorf("update note: %w: title too long", model.ErrIntegrity)
	}

	set := bson.M{"updated_at": s.opts.timestamp()}
	if title != nil {
		set["title"] = *title
	}
	if content != nil {
		set["content"] = *content
	}

	var note model.Note
	err := s.notes.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update note %d: %w", id, err)
	}
	return normalize(&note), nil
}

func (s *MongoStore) DeleteNote(ctx context.Context, id int64) error {
	defer metrics.TrackDBOperation("delete", mongoBackend).ObserveDuration()

	result, err := s.notes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func (s *MongoStore) PatchEnrichment(ctx context.Context, id int64, summary *string, sentiment *float64) (int64, error) {
	defer metrics.TrackDBOperation("patch_enrichment", mongoBackend).ObserveDuration()

	if sentiment != nil && (*sentiment < 0 || *sentiment > 1) {
		return 0, fmt.Errorf("patch enrichment: %w: sentiment %v out of range", model.ErrIntegrity, *sentiment)
	}

	result, err := s.notes.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"summary":         summary,
			"sentiment_score": sentiment,
			"updated_at":      s.opts.timestamp(),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("patch enrichment %d: %w", id, err)
	}
	return result.MatchedCount, nil
}

func (s *MongoStore) ListEnriched(ctx context.Context, q model.PageQuery) ([]*model.Note, error) {
	defer metrics.TrackDBOperation("list", mongoBackend).ObserveDuration()

	cmp, dir := "$lt", -1
	if q.Order == model.OrderAsc {
		cmp, dir = "$gt", 1
	}

	filter := bson.M{
		"summary":         bson.M{"$ne": nil},
		"sentiment_score": bson.M{"$ne": nil},
	}
	if q.After != nil {
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{cmp: q.After.CreatedAt}},
			bson.M{"created_at": q.After.CreatedAt, "_id": bson.M{cmp: q.After.ID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}).
		SetLimit(int64(q.Limit))

	cursor, err := s.notes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	var notes []*model.Note
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	for _, n := range notes {
		normalize(n)
	}
	return notes, nil
}

// checkNoteFields enforces the column limits the SQL schema declares.
func checkNoteFields(authorID, authorName string, title *string) error {
	switch {
	case authorID == "" || utf8.RuneCountInString(authorID) > model.MaxAuthorIDLength:
		return fmt.Errorf("%w: author id length", model.ErrIntegrity)
	case utf8.RuneCountInString(authorName) > model.MaxAuthorNameLength:
		return fmt.Errorf("%w: author name length", model.ErrIntegrity)
	case title != nil && utf8.RuneCountInString(*title) > model.MaxTitleLength:
		return fmt.Errorf("%w: title length", model.ErrIntegrity)
	}
	return nil
}

func normalize(n *model.Note) *model.Note {
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n
}

package docstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

// Mongo is a Store backed by one MongoDB collection per kind.
type Mongo struct {
	client   *mongo.Client
	notes    *mongoCollection[models.Note]
	lectures *mongoCollection[models.Lecture]
	tags     *mongoCollection[models.Tag]
}

// OpenMongo connects to uri and uses the named database.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("docstore: connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("docstore: ping mongo: %w", err)
	}
	db := client.Database(database)
	return &Mongo{
		client:   client,
		notes:    newMongoCollection[models.Note](db),
		lectures: newMongoCollection[models.Lecture](db),
		tags:     newMongoCollection[models.Tag](db),
	}, nil
}

func (m *Mongo) Notes() Collection[models.Note]       { return m.notes }
func (m *Mongo) Lectures() Collection[models.Lecture] { return m.lectures }
func (m *Mongo) Tags() Collection[models.Tag]         { return m.tags }

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

type mongoCollection[T models.Record[T]] struct {
	coll *mongo.Collection
}

func newMongoCollection[T models.Record[T]](db *mongo.Database) *mongoCollection[T] {
	return &mongoCollection[T]{coll: db.Collection(string(models.KindOf[T]()))}
}

func (c *mongoCollection[T]) Create(ctx context.Context, rec T) (string, error) {
	id := uuid.NewString()
	if _, err := c.coll.InsertOne(ctx, rec.WithIdentifier(id)); err != nil {
		return "", fmt.Errorf("docstore: insert %s: %w", c.coll.Name(), err)
	}
	return id, nil
}

func (c *mongoCollection[T]) Update(ctx context.Context, id string, rec T) error {
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, rec.WithIdentifier(id))
	if err != nil {
		return fmt.Errorf("docstore: replace %s: %w", c.coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("docstore: update %s %s: %w", c.coll.Name(), id, apperr.ErrNotFound)
	}
	return nil
}

func (c *mongoCollection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("docstore: delete %s: %w", c.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("docstore: delete %s %s: %w", c.coll.Name(), id, apperr.ErrNotFound)
	}
	return nil
}

func (c *mongoCollection[T]) List(ctx context.Context) ([]T, error) {
	cursor, err := c.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("docstore: find %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("docstore: decode %s: %w", c.coll.Name(), err)
	}
	return out, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

// DefaultCollection is the MongoDB collection used by [NewMongoStore].
const DefaultCollection = "workflows"

// MongoOptions configures [NewMongoStore].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoRecord is the stored shape. The graph is kept as its JSON encoding
// so that passthrough members survive byte for byte.
type mongoRecord struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Graph     string    `bson:"graph,omitempty"`
	Nodes     int       `bson:"nodes"`
	Edges     int       `bson:"edges"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Database == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, doc *Document) error {
	var prev time.Time
	if doc.ID != "" {
		var old mongoRecord
		err := s.coll.FindOne(ctx, bson.M{"_id": doc.ID},
			options.FindOne().SetProjection(bson.M{"created_at": 1})).Decode(&old)
		switch {
		case err == nil:
			prev = old.CreatedAt
		case !errors.Is(err, mongo.ErrNoDocuments):
			return fmt.Errorf("load workflow %s: %w", doc.ID, err)
		}
	}
	stamp(doc, prev)

	rec, err := toRecord(doc)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save workflow %s: %w", doc.ID, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}
	return fromRecord(rec)
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"graph": 0}).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	var recs []mongoRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	out := make([]Summary, len(recs))
	for i, r := range recs {
		out[i] = r.summary()
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete workflow %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toRecord(doc *Document) (mongoRecord, error) {
	data, err := workflow.MarshalGraph(doc.Graph)
	if err != nil {
		return mongoRecord{}, fmt.Errorf("encode workflow %s: %w", doc.ID, err)
	}
	return mongoRecord{
		ID:        doc.ID,
		Name:      doc.Name,
		Graph:     string(data),
		Nodes:     len(doc.Graph.Nodes),
		Edges:     len(doc.Graph.Edges),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func fromRecord(rec mongoRecord) (*Document, error) {
	g, err := workflow.UnmarshalGraph([]byte(rec.Graph))
	if err != nil {
		return nil, fmt.Errorf("decode workflow %s: %w", rec.ID, err)
	}
	return &Document{
		ID:        rec.ID,
		Name:      rec.Name,
		Graph:     g,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (r mongoRecord) summary() Summary {
	return Summary{
		ID:        r.ID,
		Name:      r.Name,
		Nodes:     r.Nodes,
		Edges:     r.Edges,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

var _ Store = (*MongoStore)(nil)

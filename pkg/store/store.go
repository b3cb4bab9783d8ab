// Package store persists named workflow documents.
//
// Backends:
//   - [MemoryStore]: process-local, for tests and single-instance servers
//   - [FileStore]: one JSON file per document, for the CLI
//   - [MongoStore]: MongoDB collection, for shared deployments
//
// Documents are stored unpositioned or positioned exactly as given; layout
// happens on read, in the pipeline.
//
//	st := store.NewMemoryStore()
//	doc := &store.Document{Name: "research crew", Graph: g}
//	if err := st.Save(ctx, doc); err != nil {
//	    return err
//	}
//	fmt.Println(doc.ID) // uuid assigned on first save
package store

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("workflow not found")

// Document is a stored workflow.
type Document struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Graph     workflow.Graph `json:"graph"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Summary describes a document without its graph.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summarize returns the summary of d.
func (d *Document) Summarize() Summary {
	return Summary{
		ID:        d.ID,
		Name:      d.Name,
		Nodes:     len(d.Graph.Nodes),
		Edges:     len(d.Graph.Edges),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store is the interface for workflow document backends.
type Store interface {
	// Save inserts or replaces a document. An empty ID is filled with a new
	// UUID; CreatedAt is kept from an earlier save and UpdatedAt is set to now.
	Save(ctx context.Context, doc *Document) error

	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a document or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	Close() error
}

// NewID returns a fresh document ID.
func NewID() string { return uuid.NewString() }

// stamp assigns the ID and timestamps for a save. prev is the stored
// creation time, zero when the document is new.
func stamp(doc *Document, prev time.Time) {
	now := time.Now().UTC()
	if doc.ID == "" {
		doc.ID = NewID()
	}
	switch {
	case !prev.IsZero():
		doc.CreatedAt = prev
	case doc.CreatedAt.IsZero():
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
}

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

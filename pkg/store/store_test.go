package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

func sampleGraph() workflow.Graph {
	return workflow.Graph{
		Nodes: []workflow.Node{
			{ID: "in", Kind: workflow.KindInput, IsStartingNode: true},
			{ID: "t1", Kind: workflow.KindTask, Data: map[string]any{"description": "research"}},
		},
		Edges: []workflow.Edge{{ID: "e1", Source: "in", Target: "t1"}},
	}
}

func backends(t *testing.T) map[string]Store {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			defer st.Close()

			doc := &Document{Name: "crew", Graph: sampleGraph()}
			if err := st.Save(ctx, doc); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			if doc.ID == "" || doc.CreatedAt.IsZero() {
				t.Fatalf("Save() did not stamp document: %+v", doc)
			}

			got, err := st.Get(ctx, doc.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got.Name != "crew" || len(got.Graph.Nodes) != 2 || len(got.Graph.Edges) != 1 {
				t.Errorf("Get() = %+v", got)
			}
			if got.Graph.Nodes[1].Data["description"] != "research" {
				t.Errorf("payload lost: %v", got.Graph.Nodes[1].Data)
			}

			created := doc.CreatedAt
			time.Sleep(time.Millisecond)
			doc.Name = "renamed"
			doc.CreatedAt = time.Time{}
			if err := st.Save(ctx, doc); err != nil {
				t.Fatalf("second Save() error: %v", err)
			}
			if !doc.CreatedAt.Equal(created) {
				t.Errorf("CreatedAt changed on update: %v -> %v", created, doc.CreatedAt)
			}

			list, err := st.List(ctx)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			want := []Summary{{ID: doc.ID, Name: "renamed", Nodes: 2, Edges: 1}}
			if diff := cmp.Diff(want, list, cmpIgnoreTimes); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}

			if err := st.Delete(ctx, doc.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := st.Get(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after delete = %v, want ErrNotFound", err)
			}
			if err := st.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete() twice = %v, want ErrNotFound", err)
			}
		})
	}
}

var cmpIgnoreTimes = cmp.Transformer("summary", func(s Summary) Summary {
	s.CreatedAt, s.UpdatedAt = time.Time{}, time.Time{}
	return s
})

func TestStoreGetUnknown(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{NewID(), "../../etc/passwd", ""} {
				if _, err := st.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
					t.Errorf("Get(%q) = %v, want ErrNotFound", id, err)
				}
			}
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "new", "mid"} {
		created := base.Add([]time.Duration{0, 2 * time.Hour, time.Hour}[i])
		if err := st.Save(ctx, &Document{Name: name, CreatedAt: created}); err != nil {
			t.Fatal(err)
		}
	}

	list, _ := st.List(ctx)
	var names []string
	for _, s := range list {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"new", "mid", "old"}, names); diff != "" {
		t.Errorf("List() order (-want +got):\n%s", diff)
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	doc := &Document{Name: "crew", Graph: sampleGraph()}
	_ = st.Save(ctx, doc)

	doc.Graph.Nodes[0].ID = "mutated"
	got, _ := st.Get(ctx, doc.ID)
	if got.Graph.Nodes[0].ID != "in" {
		t.Error("store shares graph with caller")
	}
}

func TestMongoRecordRoundTrip(t *testing.T) {
	doc := &Document{ID: NewID(), Name: "crew", Graph: sampleGraph()}
	stamp(doc, time.Time{})

	rec, err := toRecord(doc)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Nodes != 2 || rec.Edges != 1 {
		t.Errorf("record counts = %d/%d", rec.Nodes, rec.Edges)
	}

	back, err := fromRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	if back.ID != doc.ID || back.Name != doc.Name || len(back.Graph.Nodes) != 2 {
		t.Errorf("fromRecord() = %+v", back)
	}
	if s := rec.summary(); s.Nodes != 2 || s.ID != doc.ID {
		t.Errorf("summary() = %+v", s)
	}
}

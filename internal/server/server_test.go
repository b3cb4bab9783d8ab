package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errs "github.com/matzehuels/crewviz/pkg/errors"
	"github.com/matzehuels/crewviz/pkg/source"
	"github.com/matzehuels/crewviz/pkg/store"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

const crewJSON = `{
  "nodes": [
    {"id": "in", "type": "agentInput", "is_starting_node": true, "data": {"variables": {"topic": "AI"}}},
    {"id": "t1", "type": "task", "data": {"name": "Research"}},
    {"id": "a1", "type": "agent", "data": {"role": "Researcher"}},
    {"id": "tool", "type": "tool", "data": {"name": "Search"}}
  ],
  "edges": [
    {"id": "e1", "source": "in", "target": "t1"},
    {"id": "e2", "source": "a1", "target": "t1"},
    {"id": "e3", "source": "a1", "target": "tool", "markerEnd": {"type": "arrowclosed"}}
  ]
}`

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeGraph(t *testing.T, resp *http.Response) workflow.Graph {
	t.Helper()
	g, err := workflow.ReadGraph(resp.Body)
	if err != nil {
		t.Fatalf("decode graph: %v", err)
	}
	return g
}

func decodeError(t *testing.T, resp *http.Response) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func positionOf(g workflow.Graph, id string) (workflow.Position, bool) {
	for _, n := range g.Nodes {
		if n.ID == id && n.Position != nil {
			return *n.Position, true
		}
	}
	return workflow.Position{}, false
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t, Options{})
	const id = "3f2b8a4e-1c9d-4e7f-9a3b-5d6c7e8f9a0b"
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestDefaultWorkflow(t *testing.T) {
	ts := newTestServer(t, Options{Default: source.Demo()})
	resp := do(t, http.MethodGet, ts.URL+"/api/v1/workflow", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	g := decodeGraph(t, resp)
	if len(g.Nodes) != 4 || len(g.Edges) != 7 {
		t.Fatalf("got %d nodes %d edges, want 4 and 7", len(g.Nodes), len(g.Edges))
	}
	if _, ok := positionOf(g, "agent-1"); !ok {
		t.Error("agent-1 has no position")
	}
}

func TestLayoutPosted(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		name  string
		query string
		id    string
		want  workflow.Position
	}{
		{"input", "", "in", workflow.Position{X: 50, Y: 100}},
		{"task", "", "t1", workflow.Position{X: 400, Y: 100}},
		{"agent follows task", "", "a1", workflow.Position{X: 400, Y: 500}},
		{"tool under agent", "", "tool", workflow.Position{X: 425, Y: 820}},
		{"centered", "?center=true&center_x=1000", "in", workflow.Position{X: 700, Y: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/api/v1/layout"+tt.query, crewJSON)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			got, ok := positionOf(decodeGraph(t, resp), tt.id)
			if !ok {
				t.Fatalf("%s has no position", tt.id)
			}
			if got != tt.want {
				t.Errorf("%s at %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestLayoutErrors(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   errs.Code
	}{
		{"not json", "", "{", http.StatusBadRequest, errs.ErrCodeInvalidDocument},
		{"bad strategy", "?strategy=spiral", crewJSON, http.StatusBadRequest, errs.ErrCodeInvalidStrategy},
		{"bad center", "?center=maybe", crewJSON, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"bad center_x", "?center_x=left", crewJSON, http.StatusBadRequest, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/api/v1/layout"+tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			detail := decodeError(t, resp)
			if detail.Code != tt.code {
				t.Errorf("code = %s, want %s", detail.Code, tt.code)
			}
			if detail.RequestID == "" {
				t.Error("error body has no request id")
			}
		})
	}
}

func TestStoredWorkflowLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{Store: store.NewMemoryStore()})
	base := ts.URL + "/api/v1/workflows"

	resp := do(t, http.MethodPost, base, `{"name": "research crew", "graph": `+crewJSON+`}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created store.Summary
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Nodes != 4 || created.Edges != 3 {
		t.Fatalf("created = %+v", created)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/v1/workflows/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	resp = do(t, http.MethodGet, base, "")
	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Workflows) != 1 || list.Workflows[0].Name != "research crew" {
		t.Errorf("list = %+v", list.Workflows)
	}

	resp = do(t, http.MethodGet, base+"/"+created.ID, "")
	var doc store.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := positionOf(doc.Graph, "a1"); ok {
		t.Error("stored document should keep its original positions")
	}

	resp = do(t, http.MethodGet, base+"/"+created.ID+"/layout", "")
	if got, _ := positionOf(decodeGraph(t, resp), "a1"); got != (workflow.Position{X: 400, Y: 500}) {
		t.Errorf("stored layout agent at %+v", got)
	}

	resp = do(t, http.MethodGet, base+"/"+created.ID+"/render.dot", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("render status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	dot, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(dot), `"a1" -> "tool"`) {
		t.Errorf("DOT missing agent-tool edge:\n%s", dot)
	}

	resp = do(t, http.MethodGet, base+"/"+created.ID+"/render.svg", "")
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("svg Content-Type = %q", ct)
	}

	resp = do(t, http.MethodDelete, base+"/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, base+"/"+created.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
	if code := decodeError(t, resp).Code; code != errs.ErrCodeWorkflowNotFound {
		t.Errorf("code = %s", code)
	}
}

func TestStoredWorkflowErrors(t *testing.T) {
	ts := newTestServer(t, Options{})
	base := ts.URL + "/api/v1/workflows"
	missing := "3f2b8a4e-1c9d-4e7f-9a3b-5d6c7e8f9a0b"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed id", http.MethodGet, "/not-a-uuid", "", http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/" + missing, "", http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/" + missing, "", http.StatusNotFound},
		{"unknown format", http.MethodGet, "/" + missing + "/render.gif", "", http.StatusBadRequest},
		{"empty name", http.MethodPost, "", `{"name": " ", "graph": {"nodes": [], "edges": []}}`, http.StatusBadRequest},
		{"bad body", http.MethodPost, "", `[]`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, base+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

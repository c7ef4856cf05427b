package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sanonone/lawgraph/pkg/cache"
	"github.com/sanonone/lawgraph/pkg/client"
	"github.com/sanonone/lawgraph/pkg/core/filter"
	"github.com/sanonone/lawgraph/pkg/engine"
	"github.com/sanonone/lawgraph/pkg/loader"
)

const upstreamDataset = `{
	"nodes": [
		{"id": "a", "position": [0, 0, 0], "chapter_number": 1, "title_label": "Title 1", "path": "a summary"},
		{"id": "b", "position": [0.5, 0, 0], "chapter_number": 1, "title_label": "Title 2", "cluster_color": "#123456"},
		{"id": "c", "position": [-5, 0, 0], "chapter_number": 2, "title_label": "Title 1"},
		{"id": "broken", "position": [1, 2]}
	],
	"edges": [{"from": "a", "to": "c"}]
}`

// upstream fakes the law chunk API.
type upstream struct {
	*httptest.Server
	version      atomic.Value
	datasetCalls atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.version.Store("v1")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/law-chunk-metadata", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"version": u.version.Load()})
	})
	mux.HandleFunc("GET /api/law-chunks.json", func(w http.ResponseWriter, r *http.Request) {
		u.datasetCalls.Add(1)
		io.WriteString(w, upstreamDataset)
	})
	mux.HandleFunc("GET /api/law-chunks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "c" {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":             r.PathValue("id"),
			"text":           "Full text",
			"chapter_number": 1,
		})
	})
	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

func newTestServer(t *testing.T) (*httptest.Server, *upstream) {
	t.Helper()
	up := newUpstream(t)
	api := client.New(up.URL)
	eng, err := engine.New(loader.New(api, cache.NewMemoryStore()), api, engine.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewServer(eng, "").Handler())
	t.Cleanup(srv.Close)
	return srv, up
}

func do(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, url, err)
		}
	}
	return resp
}

func TestHealthzBeforeLoad(t *testing.T) {
	srv, _ := newTestServer(t)

	var health HealthResponse
	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil, &health)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", resp.StatusCode)
	}
	if health.State != "idle" || health.Nodes != 0 {
		t.Errorf("health = %+v", health)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("healthz response missing X-Request-ID")
	}

	var graph GraphResponse
	do(t, http.MethodGet, srv.URL+"/graph", nil, &graph)
	if len(graph.Nodes) != 0 || graph.Edges == nil {
		t.Errorf("empty graph = %+v", graph)
	}
}

func TestReloadAndGraph(t *testing.T) {
	srv, up := newTestServer(t)

	var reload ReloadResponse
	resp := do(t, http.MethodPost, srv.URL+"/reload", nil, &reload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reload expected 200, got %d", resp.StatusCode)
	}
	if reload.Source != "network" || reload.Nodes != 3 || reload.Dropped != 1 || reload.ServerVersion != "v1" {
		t.Errorf("reload = %+v", reload)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	// Same version: served from cache.
	do(t, http.MethodPost, srv.URL+"/reload", nil, &reload)
	if reload.Source != "cache" || up.datasetCalls.Load() != 1 {
		t.Errorf("second reload = %+v, dataset calls %d", reload, up.datasetCalls.Load())
	}

	var graph GraphResponse
	do(t, http.MethodGet, srv.URL+"/graph?declared=true", nil, &graph)
	if len(graph.Nodes) != 3 {
		t.Fatalf("got %d nodes", len(graph.Nodes))
	}
	// a <-> b are 0.5 apart; c is isolated.
	if len(graph.Edges) != 2 {
		t.Errorf("edges = %v", graph.Edges)
	}
	if graph.Nodes[1].Color != "#123456" || graph.Nodes[0].Color != "#ff0000" {
		t.Errorf("colors = %s %s", graph.Nodes[0].Color, graph.Nodes[1].Color)
	}
	if len(graph.DeclaredEdges) != 1 {
		t.Errorf("declared edges = %v", graph.DeclaredEdges)
	}

	var facets filter.FacetValues
	do(t, http.MethodGet, srv.URL+"/facets", nil, &facets)
	if strings.Join(facets.Chapters, ",") != "1,2" || strings.Join(facets.Titles, ",") != "Title 1,Title 2" {
		t.Errorf("facets = %+v", facets)
	}

	var health HealthResponse
	do(t, http.MethodGet, srv.URL+"/healthz", nil, &health)
	if health.State != "ready" || health.Nodes != 3 || health.DatasetVersion != "v1" {
		t.Errorf("health = %+v", health)
	}
}

func TestFilters(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/reload", nil, nil)

	var graph GraphResponse
	resp := do(t, http.MethodPut, srv.URL+"/filters", FilterRequest{Chapters: []string{"1"}, Titles: []string{"Title 1"}}, &graph)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /filters expected 200, got %d", resp.StatusCode)
	}
	if len(graph.Nodes) != 1 || graph.Nodes[0].ID != "a" || len(graph.Edges) != 0 {
		t.Errorf("filtered graph = %+v", graph)
	}
	if strings.Join(graph.Filter.Chapters, ",") != "1" {
		t.Errorf("filter echo = %+v", graph.Filter)
	}

	var current FilterResponse
	do(t, http.MethodGet, srv.URL+"/filters", nil, &current)
	if strings.Join(current.Titles, ",") != "Title 1" {
		t.Errorf("GET /filters = %+v", current)
	}

	// Unknown chapter: empty view, no error.
	resp = do(t, http.MethodPut, srv.URL+"/filters", FilterRequest{Chapters: []string{"5"}}, &graph)
	if resp.StatusCode != http.StatusOK || len(graph.Nodes) != 0 || len(graph.Edges) != 0 {
		t.Errorf("chapter 5: status %d graph %+v", resp.StatusCode, graph)
	}

	do(t, http.MethodDelete, srv.URL+"/filters", nil, &graph)
	if len(graph.Nodes) != 3 {
		t.Errorf("cleared graph has %d nodes", len(graph.Nodes))
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/filters", strings.NewReader(`{"chapter": "1"}`))
	bad, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown field expected 400, got %d", bad.StatusCode)
	}
}

func TestNodeEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/reload", nil, nil)

	var node NodeResponse
	resp := do(t, http.MethodGet, srv.URL+"/graph/nodes/2", nil, &node)
	if resp.StatusCode != http.StatusOK || node.ID != "c" || node.Index != 2 {
		t.Errorf("node at 2 = %+v (%d)", node, resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/graph/nodes/9", nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("node at 9 expected 404, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/graph/nodes/x", nil, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("node at x expected 400, got %d", resp.StatusCode)
	}

	var detail NodeDetailResponse
	resp = do(t, http.MethodGet, srv.URL+"/nodes/a", nil, &detail)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /nodes/a expected 200, got %d", resp.StatusCode)
	}
	if !detail.Visible || detail.Node.Path != "a summary" || detail.Detail == nil || detail.Detail.Text != "Full text" {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Detail != nil && detail.Detail.ChapterNumber != "1" {
		t.Errorf("chapter = %q", detail.Detail.ChapterNumber)
	}

	// Hidden nodes resolve too; upstream failures are reported inline.
	do(t, http.MethodPut, srv.URL+"/filters", FilterRequest{Chapters: []string{"1"}}, nil)
	do(t, http.MethodGet, srv.URL+"/nodes/c", nil, &detail)
	if detail.Visible || detail.Node.Index != -1 || detail.Detail != nil || detail.DetailError == "" {
		t.Errorf("hidden node detail = %+v", detail)
	}

	if resp := do(t, http.MethodGet, srv.URL+"/nodes/broken", nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("dropped node expected 404, got %d", resp.StatusCode)
	}
}

func TestReloadFailure(t *testing.T) {
	eng, err := engine.New(loader.New(client.New("http://127.0.0.1:1"), cache.NewMemoryStore()), nil, engine.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewServer(eng, "").Handler())
	defer srv.Close()

	var body map[string]string
	resp := do(t, http.MethodPost, srv.URL+"/reload", nil, &body)
	if resp.StatusCode != http.StatusBadGateway || body["error"] == "" {
		t.Errorf("reload = %d %v", resp.StatusCode, body)
	}

	var health HealthResponse
	do(t, http.MethodGet, srv.URL+"/healthz", nil, &health)
	if health.State != "failed" || health.LastError == "" {
		t.Errorf("health = %+v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, http.MethodGet, srv.URL+"/graph", nil, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "lawgraph_http_requests_total") {
		t.Error("request counter missing from /metrics")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("metrics response missing X-Request-ID")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := &Server{}
	h := s.RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	s := &Server{}
	var seen string
	h := s.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc" || rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("request id not propagated: %q / %q", seen, rec.Header().Get("X-Request-ID"))
	}
}

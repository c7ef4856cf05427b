package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sanonone/lawgraph/pkg/core/filter"
	"github.com/sanonone/lawgraph/pkg/engine"
)

// maxBodySize bounds request bodies; filter selections are tiny.
const maxBodySize = 1 << 20

func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /graph", s.handleGraph)
	mux.HandleFunc("GET /graph/nodes/{index}", s.handleNodeAt)
	mux.HandleFunc("GET /facets", s.handleFacets)
	mux.HandleFunc("GET /filters", s.handleGetFilters)
	mux.HandleFunc("PUT /filters", s.handleSetFilters)
	mux.HandleFunc("DELETE /filters", s.handleClearFilters)
	mux.HandleFunc("GET /nodes/{id}", s.handleNode)
	mux.HandleFunc("POST /reload", s.handleReload)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	st := s.Engine.Status()
	resp := HealthResponse{
		Status:         "ok",
		State:          st.State.String(),
		Source:         string(st.Source),
		ServerVersion:  st.ServerVersion,
		DatasetVersion: st.DatasetVersion,
		Nodes:          st.Nodes,
		Dropped:        st.Dropped,
		Generation:     st.Generation,
	}
	if st.LastError != nil {
		resp.LastError = st.LastError.Error()
	}
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	resp := newGraphResponse(s.Engine.View())
	if r.URL.Query().Get("declared") == "true" {
		resp.DeclaredEdges = s.Engine.DeclaredEdges()
	}
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

func (s *Server) handleNodeAt(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	n, ok := s.Engine.NodeAt(i)
	if !ok {
		s.writeHTTPError(w, http.StatusNotFound, "no visible node at index "+strconv.Itoa(i))
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, newNodeResponse(i, n))
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.Facets())
}

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, newFilterResponse(s.Engine.Filters()))
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON: expected {\"chapters\": [...], \"titles\": [...]}")
		return
	}
	view := s.Engine.ApplyFilter(filter.NewState(req.Chapters, req.Titles))
	s.writeHTTPResponse(w, http.StatusOK, newGraphResponse(view))
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, newGraphResponse(s.Engine.ClearFilters()))
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, ok := s.Engine.Node(id)
	if !ok {
		s.writeHTTPError(w, http.StatusNotFound, "node not found")
		return
	}

	resp := NodeDetailResponse{Node: newNodeResponse(-1, n)}
	for i, v := range s.Engine.View().Nodes {
		if v.ID == id {
			resp.Node.Index, resp.Visible = i, true
			break
		}
	}

	detail, err := s.Engine.Detail(r.Context(), id)
	switch {
	case err == nil:
		resp.Detail = detail
	case errors.Is(err, engine.ErrNoDetailSource):
	default:
		resp.DetailError = err.Error()
	}
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	res, err := s.Engine.Load(r.Context())
	if err != nil {
		s.writeHTTPError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := ReloadResponse{
		LoadID:        res.LoadID,
		Source:        string(res.Source),
		ServerVersion: res.ServerVersion,
		CachedVersion: res.CachedVersion,
		Nodes:         len(res.Dataset.Nodes),
		Dropped:       len(res.Dropped),
		DroppedEdges:  res.DroppedEdges,
		DurationMS:    res.Duration.Milliseconds(),
	}
	for _, warning := range res.Warnings {
		resp.Warnings = append(resp.Warnings, warning.Error())
	}
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, map[string]string{"error": message})
}

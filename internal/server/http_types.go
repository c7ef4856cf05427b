package server

import (
	"github.com/sanonone/lawgraph/pkg/core/filter"
	"github.com/sanonone/lawgraph/pkg/engine"
	"github.com/sanonone/lawgraph/pkg/model"
)

// FilterRequest is the body of PUT /filters. Omitted or empty lists clear
// the corresponding facet.
type FilterRequest struct {
	Chapters []string `json:"chapters"`
	Titles   []string `json:"titles"`
}

// FilterResponse echoes a selection.
type FilterResponse struct {
	Chapters []string `json:"chapters"`
	Titles   []string `json:"titles"`
}

func newFilterResponse(s filter.State) FilterResponse {
	return FilterResponse{Chapters: s.ChapterList(), Titles: s.TitleList()}
}

// NodeResponse is a node as drawn by the renderer. Index is the instance
// index of the node in the current view.
type NodeResponse struct {
	Index           int            `json:"index"`
	ID              string         `json:"id"`
	Position        model.Position `json:"position"`
	Color           string         `json:"color"`
	TitleLabel      string         `json:"title_label,omitempty"`
	ChapterNumber   string         `json:"chapter_number,omitempty"`
	SectionNumber   string         `json:"section_number,omitempty"`
	SubsectionLabel string         `json:"subsection_label,omitempty"`
	PartLabel       string         `json:"part_label,omitempty"`
	SectionTitle    string         `json:"section_title,omitempty"`
	RelativeLink    string         `json:"relative_link,omitempty"`
	Path            string         `json:"path,omitempty"`
}

func newNodeResponse(i int, n model.Node) NodeResponse {
	return NodeResponse{
		Index:           i,
		ID:              n.ID,
		Position:        n.Position,
		Color:           n.Color.Hex(),
		TitleLabel:      n.TitleLabel,
		ChapterNumber:   n.ChapterNumber,
		SectionNumber:   n.SectionNumber,
		SubsectionLabel: n.SubsectionLabel,
		PartLabel:       n.PartLabel,
		SectionTitle:    n.SectionTitle,
		RelativeLink:    n.RelativeLink,
		Path:            n.Path,
	}
}

// GraphResponse is the body of GET /graph and of every filter change.
type GraphResponse struct {
	Generation uint64         `json:"generation"`
	Filter     FilterResponse `json:"filter"`
	Nodes      []NodeResponse `json:"nodes"`
	Edges      []model.Edge   `json:"edges"`
	// DeclaredEdges are the server-shipped edges, only with ?declared=true.
	DeclaredEdges []model.Edge `json:"declared_edges,omitempty"`
	BuildTimeMS   float64      `json:"build_time_ms"`
}

func newGraphResponse(v *engine.View) GraphResponse {
	nodes := make([]NodeResponse, len(v.Nodes))
	for i, n := range v.Nodes {
		nodes[i] = newNodeResponse(i, n)
	}
	return GraphResponse{
		Generation:  v.Generation,
		Filter:      newFilterResponse(v.Filter),
		Nodes:       nodes,
		Edges:       v.Edges,
		BuildTimeMS: float64(v.BuildTime.Microseconds()) / 1000,
	}
}

// NodeDetailResponse is the body of GET /nodes/{id}.
type NodeDetailResponse struct {
	Node    NodeResponse       `json:"node"`
	Visible bool               `json:"visible"`
	Detail  *model.ChunkDetail `json:"detail,omitempty"`
	// DetailError is set when the node is known but its text could not be
	// fetched.
	DetailError string `json:"detail_error,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status         string `json:"status"`
	State          string `json:"state"`
	LastError      string `json:"last_error,omitempty"`
	Source         string `json:"source,omitempty"`
	ServerVersion  string `json:"server_version,omitempty"`
	DatasetVersion string `json:"dataset_version,omitempty"`
	Nodes          int    `json:"nodes"`
	Dropped        int    `json:"dropped"`
	Generation     uint64 `json:"generation"`
}

// ReloadResponse is the body of POST /reload.
type ReloadResponse struct {
	LoadID        string   `json:"load_id"`
	Source        string   `json:"source"`
	ServerVersion string   `json:"server_version,omitempty"`
	CachedVersion string   `json:"cached_version,omitempty"`
	Nodes         int      `json:"nodes"`
	Dropped       int      `json:"dropped"`
	DroppedEdges  int      `json:"dropped_edges"`
	Warnings      []string `json:"warnings,omitempty"`
	DurationMS    int64    `json:"duration_ms"`
}

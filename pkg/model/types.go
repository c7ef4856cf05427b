// Package model holds the data types shared by the loader, the filter and the
// graph builder: normalized law chunk nodes, edges and datasets, plus the
// permissive wire shapes they are normalized from.
package model

import "fmt"

// Position is a point in the 3D embedding space.
type Position [3]float64

// Color is an RGB display color packed as 0xRRGGBB.
type Color uint32

// Hex renders the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// Node is a single visualized law chunk.
// Every field is fixed once the dataset has been loaded.
type Node struct {
	ID              string   `json:"id"`
	Position        Position `json:"position"`
	Color           Color    `json:"cluster_color"`
	TitleLabel      string   `json:"title_label,omitempty"`
	ChapterNumber   string   `json:"chapter_number,omitempty"`
	SectionNumber   string   `json:"section_number,omitempty"`
	SubsectionLabel string   `json:"subsection_label,omitempty"`
	PartLabel       string   `json:"part_label,omitempty"`
	SectionTitle    string   `json:"section_title,omitempty"`
	RelativeLink    string   `json:"relative_link,omitempty"`
	Path            string   `json:"path,omitempty"` // short summary shown on selection
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Dataset is a complete, normalized snapshot of the server data.
// Edges are the optional server-declared edges, not the nearest-neighbour
// edges computed over a filtered subset.
type Dataset struct {
	Version string `json:"version,omitempty"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges,omitempty"`
}

// ChunkDetail is the full text and metadata of one chunk, served by the
// detail-by-id endpoint.
type ChunkDetail struct {
	ID            Label  `json:"id"`
	Text          string `json:"text"`
	TitleLabel    Label  `json:"title_label"`
	ChapterNumber Label  `json:"chapter_number"`
	SectionNumber Label  `json:"section_number"`
	SectionTitle  Label  `json:"section_title"`
	RelativeLink  string `json:"relative_link,omitempty"`
}

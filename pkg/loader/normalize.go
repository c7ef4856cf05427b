package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/sanonone/lawgraph/pkg/core/color"
	"github.com/sanonone/lawgraph/pkg/model"
)

// Drop describes a record removed during normalization.
type Drop struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Err   error  `json:"-"`
}

// Reason returns the drop cause as text.
func (d Drop) Reason() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

// Normalize turns raw records into nodes. Records that failed to decode,
// lack an id, carry a malformed position or repeat an earlier id are dropped
// and reported;
// the rest keep their input order. Nodes without a usable server color get
// the octant color of their position. Server edges whose endpoints are empty
// or not among the kept nodes are dropped and counted.
func Normalize(raw *model.RawDataset) (*model.Dataset, []Drop, int) {
	ds := &model.Dataset{
		Version: string(raw.Version),
		Nodes:   make([]model.Node, 0, len(raw.Nodes)),
	}
	var drops []Drop
	seen := make(map[string]struct{}, len(raw.Nodes))

	for i := range raw.Nodes {
		n, err := NormalizeRecord(&raw.Nodes[i])
		if err == nil {
			if _, dup := seen[n.ID]; dup {
				err = fmt.Errorf("%w: duplicate id", ErrNormalization)
			}
		}
		if err != nil {
			drops = append(drops, Drop{Index: i, ID: string(raw.Nodes[i].ID), Err: err})
			continue
		}
		seen[n.ID] = struct{}{}
		ds.Nodes = append(ds.Nodes, n)
	}

	droppedEdges := 0
	for _, e := range raw.Edges {
		from, to := string(e.From), string(e.To)
		if !hasNode(seen, from) || !hasNode(seen, to) {
			droppedEdges++
			continue
		}
		ds.Edges = append(ds.Edges, model.Edge{From: from, To: to})
	}
	return ds, drops, droppedEdges
}

// NormalizeRecord converts one raw record into a Node.
func NormalizeRecord(r *model.RawRecord) (model.Node, error) {
	if r.Err != nil {
		return model.Node{}, fmt.Errorf("%w: %v", ErrNormalization, r.Err)
	}
	if r.ID == "" {
		return model.Node{}, fmt.Errorf("%w: missing id", ErrNormalization)
	}
	pos, err := parsePosition(r.Position)
	if err != nil {
		return model.Node{}, fmt.Errorf("%w: %v", ErrNormalization, err)
	}

	c, ok, err := model.ParseColor(r.ClusterColor)
	if err != nil {
		slog.Debug("Ignoring malformed cluster_color", "id", string(r.ID), "error", err)
	}
	if !ok {
		c = color.Assign(pos)
	}

	return model.Node{
		ID:              string(r.ID),
		Position:        pos,
		Color:           c,
		TitleLabel:      string(r.TitleLabel),
		ChapterNumber:   string(r.ChapterNumber),
		SectionNumber:   string(r.SectionNumber),
		SubsectionLabel: string(r.SubsectionLabel),
		PartLabel:       string(r.PartLabel),
		SectionTitle:    string(r.SectionTitle),
		RelativeLink:    r.RelativeLink,
		Path:            r.Path,
	}, nil
}

// Revalidate runs the normalization checks over an already normalized
// dataset, as read back from the cache. Colors are already fixed there, so
// only nodes whose color was lost get a fallback color.
func Revalidate(ds *model.Dataset) (*model.Dataset, []Drop, int) {
	out := &model.Dataset{
		Version: ds.Version,
		Nodes:   make([]model.Node, 0, len(ds.Nodes)),
	}
	var drops []Drop
	seen := make(map[string]struct{}, len(ds.Nodes))

	for i, n := range ds.Nodes {
		var err error
		switch {
		case n.ID == "":
			err = fmt.Errorf("%w: missing id", ErrNormalization)
		case !finite(n.Position):
			err = fmt.Errorf("%w: position has non-finite components", ErrNormalization)
		default:
			if _, dup := seen[n.ID]; dup {
				err = fmt.Errorf("%w: duplicate id", ErrNormalization)
			}
		}
		if err != nil {
			drops = append(drops, Drop{Index: i, ID: n.ID, Err: err})
			continue
		}
		if n.Color == 0 {
			n.Color = color.Assign(n.Position)
		}
		seen[n.ID] = struct{}{}
		out.Nodes = append(out.Nodes, n)
	}

	droppedEdges := 0
	for _, e := range ds.Edges {
		if !hasNode(seen, e.From) || !hasNode(seen, e.To) {
			droppedEdges++
			continue
		}
		out.Edges = append(out.Edges, e)
	}
	return out, drops, droppedEdges
}

func parsePosition(raw json.RawMessage) (model.Position, error) {
	var p model.Position
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return p, fmt.Errorf("missing position")
	}
	var coords []float64
	if err := json.Unmarshal(raw, &coords); err != nil {
		return p, fmt.Errorf("position must be an array of numbers: %v", err)
	}
	if len(coords) != 3 {
		return p, fmt.Errorf("position must have 3 components, got %d", len(coords))
	}
	copy(p[:], coords)
	if !finite(p) {
		return p, fmt.Errorf("position has non-finite components")
	}
	return p, nil
}

func finite(p model.Position) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func hasNode(seen map[string]struct{}, id string) bool {
	if id == "" {
		return false
	}
	_, ok := seen[id]
	return ok
}

package loader

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/sanonone/lawgraph/pkg/core/color"
	"github.com/sanonone/lawgraph/pkg/model"
)

func TestNormalizeRecord(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
		check   func(t *testing.T, n model.Node)
	}{
		{
			name: "server color kept",
			json: `{"id": "x", "position": [1, 2, 3], "cluster_color": 1193046}`,
			check: func(t *testing.T, n model.Node) {
				if n.Color != 0x123456 {
					t.Errorf("color = %s, want #123456", n.Color.Hex())
				}
			},
		},
		{
			name: "hex string color",
			json: `{"id": "x", "position": [1, 2, 3], "cluster_color": "#00ff00"}`,
			check: func(t *testing.T, n model.Node) {
				if n.Color != 0x00ff00 {
					t.Errorf("color = %s, want #00ff00", n.Color.Hex())
				}
			},
		},
		{
			name: "zero color falls back to octant",
			json: `{"id": "x", "position": [-1, 2, 3], "cluster_color": 0}`,
			check: func(t *testing.T, n model.Node) {
				if want := color.Assign(model.Position{-1, 2, 3}); n.Color != want {
					t.Errorf("color = %s, want %s", n.Color.Hex(), want.Hex())
				}
			},
		},
		{
			name: "malformed color falls back to octant",
			json: `{"id": "x", "position": [1, 1, 1], "cluster_color": "purple"}`,
			check: func(t *testing.T, n model.Node) {
				if want := color.Assign(model.Position{1, 1, 1}); n.Color != want {
					t.Errorf("color = %s, want %s", n.Color.Hex(), want.Hex())
				}
			},
		},
		{
			name: "numeric labels become text",
			json: `{"id": 42, "position": [0, 0, 0], "chapter_number": 5, "section_number": "5A", "path": "p"}`,
			check: func(t *testing.T, n model.Node) {
				if n.ID != "42" || n.ChapterNumber != "5" || n.SectionNumber != "5A" || n.Path != "p" {
					t.Errorf("unexpected node %+v", n)
				}
			},
		},
		{name: "missing id", json: `{"position": [0, 0, 0]}`, wantErr: true},
		{name: "missing position", json: `{"id": "x"}`, wantErr: true},
		{name: "null position", json: `{"id": "x", "position": null}`, wantErr: true},
		{name: "two components", json: `{"id": "x", "position": [1, 2]}`, wantErr: true},
		{name: "four components", json: `{"id": "x", "position": [1, 2, 3, 4]}`, wantErr: true},
		{name: "string component", json: `{"id": "x", "position": [1, "2", 3]}`, wantErr: true},
		{name: "object position", json: `{"id": "x", "position": {"x": 1}}`, wantErr: true},
		{name: "object label", json: `{"id": "x", "position": [0, 0, 0], "chapter_number": {"x": 1}}`, wantErr: true},
		{name: "boolean id", json: `{"id": true, "position": [0, 0, 0]}`, wantErr: true},
		{name: "numeric path", json: `{"id": "x", "position": [0, 0, 0], "path": 7}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r model.RawRecord
			if err := json.Unmarshal([]byte(tt.json), &r); err != nil {
				t.Fatalf("decode: %v", err)
			}
			n, err := NormalizeRecord(&r)
			if tt.wantErr {
				if !errors.Is(err, ErrNormalization) {
					t.Fatalf("expected ErrNormalization, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, n)
		})
	}
}

func TestNormalize_KeepsOrderAndFirstDuplicate(t *testing.T) {
	raw := &model.RawDataset{Nodes: []model.RawRecord{
		{ID: "b", Position: json.RawMessage(`[1, 0, 0]`), Path: "first"},
		{ID: "a", Position: json.RawMessage(`[2, 0, 0]`)},
		{ID: "b", Position: json.RawMessage(`[3, 0, 0]`), Path: "second"},
	}}

	ds, drops, _ := Normalize(raw)
	if len(ds.Nodes) != 2 || ds.Nodes[0].ID != "b" || ds.Nodes[1].ID != "a" {
		t.Fatalf("unexpected nodes %+v", ds.Nodes)
	}
	if ds.Nodes[0].Path != "first" {
		t.Errorf("duplicate replaced the first record: %+v", ds.Nodes[0])
	}
	if len(drops) != 1 || drops[0].Index != 2 || drops[0].ID != "b" || drops[0].Reason() == "" {
		t.Errorf("unexpected drops %+v", drops)
	}
}

func TestNormalize_Empty(t *testing.T) {
	ds, drops, droppedEdges := Normalize(&model.RawDataset{})
	if ds.Nodes == nil || len(ds.Nodes) != 0 {
		t.Errorf("expected empty non-nil nodes, got %#v", ds.Nodes)
	}
	if len(drops) != 0 || droppedEdges != 0 {
		t.Errorf("unexpected drops %v / %d", drops, droppedEdges)
	}
}

func TestRevalidate(t *testing.T) {
	ds := &model.Dataset{
		Version: "v3",
		Nodes: []model.Node{
			{ID: "a", Position: model.Position{1, 1, 1}, Color: 0xabcdef},
			{ID: "b", Position: model.Position{-1, -1, -1}},
			{ID: "", Position: model.Position{0, 0, 0}},
			{ID: "c", Position: model.Position{math.NaN(), 0, 0}},
			{ID: "a", Position: model.Position{2, 2, 2}},
		},
		Edges: []model.Edge{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "", To: "a"}},
	}

	out, drops, droppedEdges := Revalidate(ds)
	if out.Version != "v3" {
		t.Errorf("version = %q, want v3", out.Version)
	}
	if len(out.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(out.Nodes))
	}
	if out.Nodes[0].Color != 0xabcdef {
		t.Errorf("stored color overwritten: %s", out.Nodes[0].Color.Hex())
	}
	if want := color.Assign(model.Position{-1, -1, -1}); out.Nodes[1].Color != want {
		t.Errorf("missing color = %s, want %s", out.Nodes[1].Color.Hex(), want.Hex())
	}
	if len(drops) != 3 {
		t.Errorf("got %d drops, want 3", len(drops))
	}
	if droppedEdges != 2 || len(out.Edges) != 1 {
		t.Errorf("edges kept %d dropped %d, want 1 and 2", len(out.Edges), droppedEdges)
	}
	if ds.Nodes[1].Color != 0 {
		t.Error("Revalidate mutated its input")
	}
}

package model

import (
	"encoding/json"
	"testing"
)

func TestLabelUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Label
	}{
		{`"5A"`, "5A"},
		{`5`, "5"},
		{`12.5`, "12.5"},
		{`null`, ""},
		{`""`, ""},
	}
	for _, tt := range tests {
		var l Label
		if err := json.Unmarshal([]byte(tt.in), &l); err != nil {
			t.Errorf("%s: unexpected error %v", tt.in, err)
			continue
		}
		if l != tt.want {
			t.Errorf("%s: got %q, want %q", tt.in, l, tt.want)
		}
	}

	var l Label
	if err := json.Unmarshal([]byte(`{"a":1}`), &l); err == nil {
		t.Error("expected an error for an object label")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		ok      bool
		wantErr bool
	}{
		{in: ``},
		{in: `null`},
		{in: `""`},
		{in: `0`},
		{in: `"#000000"`},
		{in: `16711680`, want: 0xff0000, ok: true},
		{in: `"#ff0000"`, want: 0xff0000, ok: true},
		{in: `"0x00ff00"`, want: 0x00ff00, ok: true},
		{in: `"0000ff"`, want: 0x0000ff, ok: true},
		{in: `-1`, wantErr: true},
		{in: `16777216`, wantErr: true},
		{in: `1.5`, wantErr: true},
		{in: `"#gg0000"`, wantErr: true},
		{in: `"#1000000"`, wantErr: true},
		{in: `true`, wantErr: true},
	}
	for _, tt := range tests {
		c, ok, err := ParseColor(json.RawMessage(tt.in))
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %v", tt.in, c)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.in, err)
			continue
		}
		if ok != tt.ok || c != tt.want {
			t.Errorf("%s: got (%v, %v), want (%v, %v)", tt.in, c, ok, tt.want, tt.ok)
		}
	}
}

func TestColorHex(t *testing.T) {
	if got := Color(0xffa500).Hex(); got != "#ffa500" {
		t.Errorf("got %q", got)
	}
	if got := Color(0x0000ff).Hex(); got != "#0000ff" {
		t.Errorf("got %q", got)
	}
}

func TestRawDatasetToleratesBadRecords(t *testing.T) {
	var raw RawDataset
	err := json.Unmarshal([]byte(`{
		"nodes": [
			{"id": "a", "position": [0, 0, 0]},
			{"id": "b", "position": [1, 1, 1], "chapter_number": {"x": 1}},
			{"id": {"nested": true}, "position": [2, 2, 2]}
		],
		"edges": [{"from": "a", "to": "b"}, {"from": 1.5, "to": null}, {"from": [], "to": "a"}]
	}`), &raw)
	if err != nil {
		t.Fatalf("payload should decode: %v", err)
	}
	if len(raw.Nodes) != 3 {
		t.Fatalf("got %d records, want 3", len(raw.Nodes))
	}
	if raw.Nodes[0].Err != nil || raw.Nodes[0].ID != "a" {
		t.Errorf("good record: %+v", raw.Nodes[0])
	}
	if raw.Nodes[1].Err == nil || raw.Nodes[1].ID != "b" {
		t.Errorf("bad label should keep id and set Err: %+v", raw.Nodes[1])
	}
	if raw.Nodes[2].Err == nil || raw.Nodes[2].ID != "" {
		t.Errorf("bad id: %+v", raw.Nodes[2])
	}
	if raw.Edges[1].From != "1.5" || raw.Edges[1].To != "" {
		t.Errorf("edge with number and null = %+v", raw.Edges[1])
	}
	if raw.Edges[2] != (RawEdge{}) {
		t.Errorf("malformed edge should be empty, got %+v", raw.Edges[2])
	}
}

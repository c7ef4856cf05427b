package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Label is a loosely typed identifier or label. The server emits some of
// them as numbers (chapter 5) and some as strings ("5A"); both decode to the
// same textual form. null decodes to "".
type Label string

// UnmarshalJSON accepts a JSON string, number, or null.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("label must be a string or number: %w", err)
	}
	*l = Label(n.String())
	return nil
}

// RawRecord is one chunk record as sent by the dataset endpoint.
// Position and color are left undecoded so that a malformed value only
// drops the offending record.
type RawRecord struct {
	ID              Label           `json:"id"`
	Position        json.RawMessage `json:"position"`
	ClusterColor    json.RawMessage `json:"cluster_color,omitempty"`
	TitleLabel      Label           `json:"title_label"`
	ChapterNumber   Label           `json:"chapter_number"`
	SectionNumber   Label           `json:"section_number"`
	SubsectionLabel Label           `json:"subsection_label"`
	PartLabel       Label           `json:"part_label"`
	SectionTitle    Label           `json:"section_title"`
	RelativeLink    string          `json:"relative_link"`
	Path            string          `json:"path"`

	// Err is set when the record itself could not be decoded, for example a
	// label sent as an object. Only ID may be filled in that case.
	Err error `json:"-"`
}

type rawRecordFields RawRecord

// UnmarshalJSON decodes one record without ever failing the enclosing
// payload: a badly typed field is recorded in Err so that only this record
// is dropped.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var f rawRecordFields
	if err := json.Unmarshal(data, &f); err != nil {
		*r = RawRecord{Err: err}
		var id struct {
			ID Label `json:"id"`
		}
		if json.Unmarshal(data, &id) == nil {
			r.ID = id.ID
		}
		return nil
	}
	*r = RawRecord(f)
	return nil
}

// RawEdge is a server-declared edge before validation.
type RawEdge struct {
	From Label `json:"from"`
	To   Label `json:"to"`
}

type rawEdgeFields RawEdge

// UnmarshalJSON leaves both endpoints empty when the edge is malformed, so
// the edge is counted as dropped instead of failing the payload.
func (e *RawEdge) UnmarshalJSON(data []byte) error {
	var f rawEdgeFields
	if err := json.Unmarshal(data, &f); err != nil {
		*e = RawEdge{}
		return nil
	}
	*e = RawEdge(f)
	return nil
}

// RawDataset is the payload of the dataset endpoint.
type RawDataset struct {
	Version Label       `json:"version,omitempty"`
	Nodes   []RawRecord `json:"nodes"`
	Edges   []RawEdge   `json:"edges,omitempty"`
}

// ParseColor decodes a cluster_color value. It accepts a JSON number, a
// string in "#rrggbb", "0xrrggbb" or "rrggbb" form, or null.
// ok is false when no usable color is present: absent, null, empty string,
// or 0 all mean "no server color".
func ParseColor(raw json.RawMessage) (c Color, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}

	var v uint64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
		s = strings.TrimPrefix(s, "#")
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		v, err = strconv.ParseUint(s, 16, 32)
		if err != nil {
			return 0, false, fmt.Errorf("invalid color %q: %w", s, err)
		}
	} else {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, false, fmt.Errorf("invalid color: %w", err)
		}
		if f < 0 || f > 0xffffff || f != float64(uint64(f)) {
			return 0, false, fmt.Errorf("color %v out of range", f)
		}
		v = uint64(f)
	}

	if v > 0xffffff {
		return 0, false, fmt.Errorf("color %#x out of range", v)
	}
	if v == 0 {
		return 0, false, nil
	}
	return Color(v), true, nil
}

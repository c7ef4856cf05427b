// Package filter narrows the loaded node set down to the facets the user has
// selected (chapters and titles).
//
// Filtering is a pure function of the full node set and a State; the derived
// subset is always recomputed, never patched.
package filter

import (
	"sync"

	"github.com/sanonone/lawgraph/pkg/model"
)

// State is the active facet selection. An empty facet means "no filter on
// that facet": every value passes.
type State struct {
	Chapters map[string]struct{}
	Titles   map[string]struct{}
}

// NewState builds a State from chapter and title values.
func NewState(chapters, titles []string) State {
	return State{Chapters: toSet(chapters), Titles: toSet(titles)}
}

// IsEmpty reports whether no facet is restricted.
func (s State) IsEmpty() bool {
	return len(s.Chapters) == 0 && len(s.Titles) == 0
}

// Match reports whether n passes both facets.
func (s State) Match(n *model.Node) bool {
	if len(s.Chapters) > 0 {
		if _, ok := s.Chapters[n.ChapterNumber]; !ok {
			return false
		}
	}
	if len(s.Titles) > 0 {
		if _, ok := s.Titles[n.TitleLabel]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy; the maps are not shared.
func (s State) Clone() State {
	return State{Chapters: cloneSet(s.Chapters), Titles: cloneSet(s.Titles)}
}

// ChapterList returns the selected chapters in facet order.
func (s State) ChapterList() []string {
	return sortedKeys(s.Chapters, lessChapter)
}

// TitleList returns the selected titles in facet order.
func (s State) TitleList() []string {
	return sortedKeys(s.Titles, lessString)
}

// Apply returns the nodes passing state, preserving their relative order.
// The input slice is never modified. With an empty state the result holds
// the same elements in the same order.
func Apply(nodes []model.Node, state State) []model.Node {
	out := make([]model.Node, 0, len(nodes))
	if state.IsEmpty() {
		return append(out, nodes...)
	}
	for i := range nodes {
		if state.Match(&nodes[i]) {
			out = append(out, nodes[i])
		}
	}
	return out
}

// Engine owns the facet selection. Every mutator replaces the stored State
// with a fresh copy, so a State handed out by State() is never changed
// underneath its holder.
type Engine struct {
	mu    sync.RWMutex
	state State
}

// NewEngine returns an Engine with nothing selected.
func NewEngine() *Engine {
	return &Engine{}
}

// State returns a copy of the current selection.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// SetChapters replaces the chapter selection. No values clears the facet.
func (e *Engine) SetChapters(chapters ...string) State {
	return e.update(func(s *State) { s.Chapters = toSet(chapters) })
}

// SetTitles replaces the title selection. No values clears the facet.
func (e *Engine) SetTitles(titles ...string) State {
	return e.update(func(s *State) { s.Titles = toSet(titles) })
}

// ToggleChapter adds chapter to the selection, or removes it if present.
func (e *Engine) ToggleChapter(chapter string) State {
	return e.update(func(s *State) { s.Chapters = toggle(s.Chapters, chapter) })
}

// ToggleTitle adds title to the selection, or removes it if present.
func (e *Engine) ToggleTitle(title string) State {
	return e.update(func(s *State) { s.Titles = toggle(s.Titles, title) })
}

// Replace installs a whole selection at once.
func (e *Engine) Replace(state State) State {
	return e.update(func(s *State) { *s = state.Clone() })
}

// Clear resets both facets ("show all").
func (e *Engine) Clear() State {
	return e.update(func(s *State) { *s = State{} })
}

func (e *Engine) update(fn func(*State)) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.state.Clone()
	fn(&next)
	e.state = next
	return next.Clone()
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func cloneSet(set map[string]struct{}) map[string]struct{} {
	if len(set) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}

func toggle(set map[string]struct{}, v string) map[string]struct{} {
	if _, ok := set[v]; ok {
		delete(set, v)
		if len(set) == 0 {
			return nil
		}
		return set
	}
	if set == nil {
		set = make(map[string]struct{})
	}
	set[v] = struct{}{}
	return set
}

package sections

import "sync"

// DefaultOffset compensates for the sticky header, in the same units as the
// geometry (pixels in a browser, rows in the terminal).
const DefaultOffset = 200

// Geometry reports where a section is laid out in the document.
type Geometry interface {
	Bounds(id string) (top, height float64, ok bool)
}

// Bounds is a vertical extent within the document.
type Bounds struct {
	Top    float64
	Height float64
}

// StaticGeometry is a Geometry over precomputed bounds.
type StaticGeometry map[string]Bounds

func (g StaticGeometry) Bounds(id string) (float64, float64, bool) {
	b, ok := g[id]
	return b.Top, b.Height, ok
}

// Tracker maps a scroll position onto the active table-of-contents entry.
type Tracker struct {
	mu       sync.Mutex
	layout   []Section
	subIDs   []string
	isSub    map[string]bool
	geometry Geometry
	offset   float64
	active   string
	onChange func(id string)
}

// NewTracker starts with the first section active.
func NewTracker(layout []Section, geometry Geometry, offset float64) *Tracker {
	t := &Tracker{
		layout:   layout,
		isSub:    make(map[string]bool),
		geometry: geometry,
		offset:   offset,
	}
	for _, s := range layout {
		for _, sub := range s.Subsections {
			t.subIDs = append(t.subIDs, sub.ID)
			t.isSub[sub.ID] = true
		}
	}
	if len(layout) > 0 {
		t.active = layout[0].ID
	}
	return t
}

// OnChange registers a callback fired when the active id changes. It runs
// without the tracker lock held.
func (t *Tracker) OnChange(fn func(id string)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// SetGeometry swaps the layout measurements, e.g. after a re-render.
func (t *Tracker) SetGeometry(g Geometry) {
	t.mu.Lock()
	t.geometry = g
	t.mu.Unlock()
}

// Update reconciles the active entry against scrollY. Subsections are
// matched first, preferring the one that starts lowest; top-level sections
// are only considered when no subsection contains the position. When
// nothing matches the active entry is left as is.
func (t *Tracker) Update(scrollY float64) string {
	t.mu.Lock()
	pos := scrollY + t.offset

	id, found := t.bestMatch(pos, t.subIDs)
	if !found {
		var top []string
		for _, s := range t.layout {
			if !t.isSub[s.ID] {
				top = append(top, s.ID)
			}
		}
		id, found = t.bestMatch(pos, top)
	}

	changed := found && id != t.active
	if found {
		t.active = id
	}
	active, cb := t.active, t.onChange
	t.mu.Unlock()

	if changed && cb != nil {
		cb(active)
	}
	return active
}

func (t *Tracker) bestMatch(pos float64, ids []string) (string, bool) {
	if t.geometry == nil {
		return "", false
	}
	var (
		best    string
		bestTop float64
		found   bool
	)
	for _, id := range ids {
		top, height, ok := t.geometry.Bounds(id)
		if !ok {
			continue
		}
		if pos >= top && pos < top+height && (!found || top > bestTop) {
			best, bestTop, found = id, top, true
		}
	}
	return best, found
}

// Click activates an entry immediately. Unknown ids are ignored.
func (t *Tracker) Click(id string) bool {
	t.mu.Lock()
	if !t.known(id) {
		t.mu.Unlock()
		return false
	}
	changed := id != t.active
	t.active = id
	cb := t.onChange
	t.mu.Unlock()

	if changed && cb != nil {
		cb(id)
	}
	return true
}

func (t *Tracker) known(id string) bool {
	if t.isSub[id] {
		return true
	}
	for _, s := range t.layout {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Active returns the current entry id.
func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// IsSectionActive reports whether s or one of its subsections is active.
func (t *Tracker) IsSectionActive(s Section) bool {
	active := t.Active()
	if active == s.ID {
		return true
	}
	for _, sub := range s.Subsections {
		if sub.ID == active {
			return true
		}
	}
	return false
}

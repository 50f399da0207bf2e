package report

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/Ashfaaq98/claims-console/internal/store"
)

var (
	ErrEventNotFound = eris.New("timeline event not found")
	ErrNotEditing    = eris.New("report is not in edit mode")
	ErrUnknownField  = eris.New("field is not editable")
)

// InsertedSection is an analysis block added to the report from a chat
// answer.
type InsertedSection struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Markdown  string    `json:"markdown"`
	CreatedAt time.Time `json:"createdAt"`
}

// Report is one loaded, editable instance of a claim's report. All access
// goes through its methods; Data returns copies.
type Report struct {
	Claim store.Claim
	Type  Type
	Title string

	mu       sync.RWMutex
	data     Data
	editMode bool
	inserted []InsertedSection
}

// Data returns a snapshot of the report's current data.
func (r *Report) Data() Data {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data.Clone()
}

// Event returns a copy of a single timeline event.
func (r *Report) Event(id string) (MedicalEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.data.Timeline[i].Clone(), true
	}
	return MedicalEvent{}, false
}

// EditMode reports whether inline edits are currently accepted.
func (r *Report) EditMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.editMode
}

func (r *Report) SetEditMode(on bool) {
	r.mu.Lock()
	r.editMode = on
	r.mu.Unlock()
}

// ToggleKeyDate flips isKeyDate on one event and returns the new value.
func (r *Report) ToggleKeyDate(eventID string) (bool, error) {
	return r.toggle(eventID, func(e *MedicalEvent) *bool { return &e.IsKeyDate })
}

// ToggleNeedsReview flips needsReview on one event and returns the new value.
func (r *Report) ToggleNeedsReview(eventID string) (bool, error) {
	return r.toggle(eventID, func(e *MedicalEvent) *bool { return &e.NeedsReview })
}

func (r *Report) toggle(eventID string, field func(*MedicalEvent) *bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(eventID)
	if i < 0 {
		return false, eris.Wrapf(ErrEventNotFound, "event %s", eventID)
	}
	p := field(&r.data.Timeline[i])
	*p = !*p
	return *p, nil
}

// EditableFields lists the event text fields EditEvent accepts.
var EditableFields = []string{
	"date", "provider", "specialty", "eventType", "description",
	"narrativeSummary", "doctorName", "medicalFacility",
}

// EditEvent replaces one text field of an event. It is rejected unless the
// report is in edit mode.
func (r *Report) EditEvent(eventID, field, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.editMode {
		return ErrNotEditing
	}
	i := r.indexOf(eventID)
	if i < 0 {
		return eris.Wrapf(ErrEventNotFound, "event %s", eventID)
	}
	ev := &r.data.Timeline[i]
	switch field {
	case "date":
		ev.Date = value
	case "provider":
		ev.Provider = value
	case "specialty":
		ev.Specialty = value
	case "eventType":
		ev.EventType = value
	case "description":
		ev.Description = value
	case "narrativeSummary":
		ev.NarrativeSummary = value
	case "doctorName":
		ev.DoctorName = value
	case "medicalFacility":
		ev.MedicalFacility = value
	default:
		return eris.Wrapf(ErrUnknownField, "field %q", field)
	}
	return nil
}

// InsertSection appends an analysis section and returns it.
func (r *Report) InsertSection(title, markdown string) InsertedSection {
	s := InsertedSection{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Markdown:  markdown,
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.inserted = append(r.inserted, s)
	r.mu.Unlock()
	return s
}

// InsertedSections returns the sections added so far, oldest first.
func (r *Report) InsertedSections() []InsertedSection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]InsertedSection, len(r.inserted))
	copy(out, r.inserted)
	return out
}

func (r *Report) indexOf(eventID string) int {
	for i := range r.data.Timeline {
		if r.data.Timeline[i].ID == eventID {
			return i
		}
	}
	return -1
}

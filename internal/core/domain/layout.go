package domain

import "time"

// LayoutTemplate describes an R x C grid. Immutable once referenced by a
// relay job; deletion of a referenced template is rejected.
type LayoutTemplate struct {
	ID   TemplateID
	Name string
	Rows int
	Cols int

	CreatedAt time.Time
}

// Slots returns the total number of addressable cells.
func (t *LayoutTemplate) Slots() int {
	return t.Rows * t.Cols
}

// SlotMapping assigns a source to one cell of a relay job's grid.
// At most one source per slot per job; an unmapped slot renders black.
type SlotMapping struct {
	RelayID  RelayID
	Slot     int
	SourceID SourceID
}

// Rect is a placement rectangle on the output canvas, in pixels.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

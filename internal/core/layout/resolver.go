package layout

import (
	"fmt"

	"gridcast/internal/core/domain"
)

// Placement is one mapped slot resolved to its rectangle on the canvas.
type Placement struct {
	Slot     int
	SourceID domain.SourceID
	Rect     domain.Rect
}

// Resolve translates a grid layout and its slot mappings into placement
// rectangles. Cell sizes are floor(W/C) x floor(H/R); origins follow
// row-major slot order. Pure function, no I/O.
//
// An out-of-range slot index is a configuration error, never silently
// dropped. Unmapped slots simply produce no placement; the composition
// stage fills them with a neutral background.
func Resolve(rows, cols, width, height int, mappings []domain.SlotMapping) ([]Placement, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", rows, cols)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas dimensions must be positive, got %dx%d", width, height)
	}

	cellW := width / cols
	cellH := height / rows
	slots := rows * cols

	placements := make([]Placement, 0, len(mappings))
	seen := make(map[int]bool, len(mappings))

	for _, m := range mappings {
		if m.Slot < 0 || m.Slot >= slots {
			return nil, fmt.Errorf("slot %d: %w (grid %dx%d has %d slots)",
				m.Slot, domain.ErrSlotOutOfRange, rows, cols, slots)
		}
		if seen[m.Slot] {
			return nil, fmt.Errorf("slot %d mapped twice", m.Slot)
		}
		seen[m.Slot] = true

		placements = append(placements, Placement{
			Slot:     m.Slot,
			SourceID: m.SourceID,
			Rect: domain.Rect{
				X: (m.Slot % cols) * cellW,
				Y: (m.Slot / cols) * cellH,
				W: cellW,
				H: cellH,
			},
		})
	}

	return placements, nil
}

package pipeline

import (
	"fmt"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/layout"
)

// Params are the output encoding parameters for a composite relay.
type Params struct {
	Width       int
	Height      int
	Framerate   int
	BitrateKbps int
}

const maxFramerate = 60

// Validate rejects encoding parameters before any resource is touched.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.Framerate <= 0 || p.Framerate > maxFramerate {
		return fmt.Errorf("framerate must be in (0, %d], got %d", maxFramerate, p.Framerate)
	}
	if p.BitrateKbps <= 0 {
		return fmt.Errorf("bitrate must be positive, got %d", p.BitrateKbps)
	}
	return nil
}

// Build produces the engine-agnostic pipeline description for a set of
// resolved placements: one decode+scale input stage per mapped source, the
// composition implied by the placement rectangles, and one encode stage.
// Pure function of its inputs.
//
// Returns domain.ErrEmptyLayout when zero slots are mapped; a composite of
// nothing is a configuration error, not an empty stream.
func Build(placements []layout.Placement, sources map[domain.SourceID]domain.Source, params Params) (*domain.PipelineSpec, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(placements) == 0 {
		return nil, domain.ErrEmptyLayout
	}

	spec := &domain.PipelineSpec{
		CanvasWidth:  params.Width,
		CanvasHeight: params.Height,
		Inputs:       make([]domain.InputStage, 0, len(placements)),
		Encode: domain.EncodeStage{
			Framerate:   params.Framerate,
			BitrateKbps: params.BitrateKbps,
		},
	}

	for _, p := range placements {
		src, ok := sources[p.SourceID]
		if !ok {
			return nil, fmt.Errorf("slot %d references source %s: %w",
				p.Slot, p.SourceID, domain.ErrSourceNotFound)
		}
		spec.Inputs = append(spec.Inputs, domain.InputStage{
			Source: src,
			Rect:   p.Rect,
			Label:  fmt.Sprintf("cell%d", p.Slot),
		})
	}

	return spec, nil
}

package pipeline

import (
	"errors"
	"testing"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/layout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSources(ids ...domain.SourceID) map[domain.SourceID]domain.Source {
	m := make(map[domain.SourceID]domain.Source, len(ids))
	for _, id := range ids {
		m[id] = domain.Source{ID: id, URL: "rtsp://cam/" + string(id)}
	}
	return m
}

func validParams() Params {
	return Params{Width: 1920, Height: 1080, Framerate: 30, BitrateKbps: 4000}
}

func TestBuild_OneInputStagePerMappedSlot(t *testing.T) {
	mappings := []domain.SlotMapping{
		{Slot: 0, SourceID: "a"},
		{Slot: 1, SourceID: "b"},
		{Slot: 2, SourceID: "c"},
	}
	placements, err := layout.Resolve(2, 2, 1920, 1080, mappings)
	require.NoError(t, err)

	spec, err := Build(placements, testSources("a", "b", "c"), validParams())
	require.NoError(t, err)

	// Three of four slots mapped: exactly three decode/scale stages, slot 3
	// left to the composition background.
	require.Len(t, spec.Inputs, 3)
	assert.Equal(t, "cell0", spec.Inputs[0].Label)
	assert.Equal(t, "cell2", spec.Inputs[2].Label)
	assert.Equal(t, 1920, spec.CanvasWidth)
	assert.Equal(t, 1080, spec.CanvasHeight)
	assert.Equal(t, 30, spec.Encode.Framerate)
	assert.Equal(t, 4000, spec.Encode.BitrateKbps)
}

func TestBuild_EmptyLayoutRejected(t *testing.T) {
	_, err := Build(nil, testSources(), validParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyLayout))
}

func TestBuild_UnknownSourceRejected(t *testing.T) {
	placements, err := layout.Resolve(1, 1, 1280, 720, []domain.SlotMapping{{Slot: 0, SourceID: "ghost"}})
	require.NoError(t, err)

	_, err = Build(placements, testSources("a"), validParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceNotFound))
}

func TestParams_Validate(t *testing.T) {
	cases := []struct {
		name   string
		params Params
		ok     bool
	}{
		{"valid", validParams(), true},
		{"zero width", Params{Width: 0, Height: 1080, Framerate: 30, BitrateKbps: 4000}, false},
		{"negative height", Params{Width: 1920, Height: -1, Framerate: 30, BitrateKbps: 4000}, false},
		{"zero framerate", Params{Width: 1920, Height: 1080, Framerate: 0, BitrateKbps: 4000}, false},
		{"framerate above cap", Params{Width: 1920, Height: 1080, Framerate: 120, BitrateKbps: 4000}, false},
		{"zero bitrate", Params{Width: 1920, Height: 1080, Framerate: 30, BitrateKbps: 0}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

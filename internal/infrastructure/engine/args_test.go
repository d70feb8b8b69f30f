package engine

import (
	"strings"
	"testing"

	"gridcast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadSpec() *domain.PipelineSpec {
	return &domain.PipelineSpec{
		CanvasWidth:  1920,
		CanvasHeight: 1080,
		Inputs: []domain.InputStage{
			{Source: domain.Source{ID: "a", URL: "rtsp://cam/1"}, Rect: domain.Rect{X: 0, Y: 0, W: 960, H: 540}, Label: "cell0"},
			{Source: domain.Source{ID: "b", URL: "rtsp://cam/2"}, Rect: domain.Rect{X: 960, Y: 0, W: 960, H: 540}, Label: "cell1"},
			{Source: domain.Source{ID: "c", URL: "rtsp://cam/3"}, Rect: domain.Rect{X: 0, Y: 540, W: 960, H: 540}, Label: "cell2"},
		},
		Encode: domain.EncodeStage{Framerate: 30, BitrateKbps: 4000},
	}
}

func TestRender_OneInputFlagPerSource(t *testing.T) {
	args := Render(quadSpec(), domain.Endpoint{Port: 8554, URL: "rtsp://relay:8554/job"})

	var inputs []string
	for i, a := range args {
		if a == "-i" {
			inputs = append(inputs, args[i+1])
		}
	}
	assert.Equal(t, []string{"rtsp://cam/1", "rtsp://cam/2", "rtsp://cam/3"}, inputs)

	// Publish target is the final argument.
	assert.Equal(t, "rtsp://relay:8554/job", args[len(args)-1])
}

func TestRender_FilterGraphScalesAndOverlays(t *testing.T) {
	args := Render(quadSpec(), domain.Endpoint{URL: "rtsp://relay:8554/job"})

	var filter string
	for i, a := range args {
		if a == "-filter_complex" {
			filter = args[i+1]
		}
	}
	require.NotEmpty(t, filter)

	assert.Contains(t, filter, "color=c=black:s=1920x1080:r=30[base]")
	assert.Contains(t, filter, "[0:v]scale=960:540[cell0]")
	assert.Contains(t, filter, "[2:v]scale=960:540[cell2]")
	assert.Contains(t, filter, "[base][cell0]overlay=x=0:y=0[ov0]")
	assert.Contains(t, filter, "[ov1][cell2]overlay=x=0:y=540[out]")

	// Exactly one decode/scale stage per mapped source.
	assert.Equal(t, 3, strings.Count(filter, "scale="))
	assert.Equal(t, 3, strings.Count(filter, "overlay="))
}

func TestRender_EncodeParameters(t *testing.T) {
	args := Render(quadSpec(), domain.Endpoint{URL: "rtsp://relay:8554/job"})
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-r 30")
	assert.Contains(t, joined, "-b:v 4000k")
	assert.Contains(t, joined, "-bufsize 8000k")
	assert.Contains(t, joined, "-f rtsp")
}

func TestRender_SingleInputChainsToOut(t *testing.T) {
	spec := &domain.PipelineSpec{
		CanvasWidth:  1280,
		CanvasHeight: 720,
		Inputs: []domain.InputStage{
			{Source: domain.Source{URL: "rtsp://cam/solo"}, Rect: domain.Rect{W: 1280, H: 720}, Label: "cell0"},
		},
		Encode: domain.EncodeStage{Framerate: 25, BitrateKbps: 2000},
	}
	args := Render(spec, domain.Endpoint{URL: "rtsp://relay:8554/solo"})

	var filter string
	for i, a := range args {
		if a == "-filter_complex" {
			filter = args[i+1]
		}
	}
	assert.Contains(t, filter, "[base][cell0]overlay=x=0:y=0[out]")
}

func TestInputURL_EmbedsCredentials(t *testing.T) {
	src := domain.Source{URL: "rtsp://cam.local:554/stream", Username: "admin", Password: "pw"}
	assert.Equal(t, "rtsp://admin:pw@cam.local:554/stream", inputURL(src))

	plain := domain.Source{URL: "rtsp://cam.local/stream"}
	assert.Equal(t, "rtsp://cam.local/stream", inputURL(plain))
}

package engine

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gridcast/internal/core/domain"
)

// Render translates an engine-agnostic pipeline description into the ffmpeg
// argument list: one input per source, a filter graph that scales each input
// to its cell and overlays it onto a black canvas, and a single encode +
// RTSP publish output bound to the allocated endpoint.
//
// The builder knows nothing about this syntax; everything ffmpeg-shaped
// lives here so the translation is independently testable.
func Render(spec *domain.PipelineSpec, endpoint domain.Endpoint) []string {
	args := make([]string, 0, 64)

	args = append(args, "-hide_banner", "-nostdin", "-loglevel", "error")

	for _, in := range spec.Inputs {
		if strings.HasPrefix(in.Source.URL, "rtsp://") {
			args = append(args, "-rtsp_transport", "tcp")
		}
		args = append(args, "-i", inputURL(in.Source))
	}

	args = append(args,
		"-filter_complex", renderFilterGraph(spec),
		"-map", "[out]",
	)

	bitrate := strconv.Itoa(spec.Encode.BitrateKbps) + "k"
	args = append(args,
		"-r", strconv.Itoa(spec.Encode.Framerate),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-b:v", bitrate,
		"-maxrate", bitrate,
		"-bufsize", strconv.Itoa(2*spec.Encode.BitrateKbps)+"k",
		"-an",
		"-f", "rtsp",
		endpoint.URL,
	)

	return args
}

// renderFilterGraph lays a scaled copy of every input over a black canvas of
// the target resolution. Unmapped cells stay canvas-colored.
func renderFilterGraph(spec *domain.PipelineSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "color=c=black:s=%dx%d:r=%d[base]",
		spec.CanvasWidth, spec.CanvasHeight, spec.Encode.Framerate)

	for i, in := range spec.Inputs {
		fmt.Fprintf(&b, ";[%d:v]scale=%d:%d[%s]", i, in.Rect.W, in.Rect.H, in.Label)
	}

	prev := "base"
	for i, in := range spec.Inputs {
		out := fmt.Sprintf("ov%d", i)
		if i == len(spec.Inputs)-1 {
			out = "out"
		}
		fmt.Fprintf(&b, ";[%s][%s]overlay=x=%d:y=%d[%s]", prev, in.Label, in.Rect.X, in.Rect.Y, out)
		prev = out
	}

	return b.String()
}

// inputURL embeds source credentials into the stream address when present.
func inputURL(source domain.Source) string {
	if source.Username == "" {
		return source.URL
	}
	u, err := url.Parse(source.URL)
	if err != nil {
		return source.URL
	}
	u.User = url.UserPassword(source.Username, source.Password)
	return u.String()
}

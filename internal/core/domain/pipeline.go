package domain

// PipelineSpec is the engine-agnostic description of a transcoding pipeline:
// one decode+scale stage per mapped source, a single composition stage over
// the output canvas, and one encode-and-publish stage. It carries no
// knowledge of the engine's argument syntax; rendering is the engine
// package's job.
type PipelineSpec struct {
	CanvasWidth  int
	CanvasHeight int
	Inputs       []InputStage
	Encode       EncodeStage
}

// InputStage decodes one source and scales it to its cell.
type InputStage struct {
	Source Source
	Rect   Rect
	Label  string
}

// EncodeStage holds the output encoding parameters. The publish target is
// not part of the description; it is bound to the allocated endpoint at
// render time, after a port has been acquired.
type EncodeStage struct {
	Framerate   int
	BitrateKbps int
}

package retouch

// CompositeRenderer draws the visible image: source and mask are sampled at
// the same texture coordinate and painted pixels switch to grayscale. The
// mask never encodes which mode painted it; Invert flips the meaning at draw
// time, so changing mode needs no repaint.
type CompositeRenderer struct {
	cmd   DrawCommand
	verts [4]Vertex
}

func newCompositeRenderer() *CompositeRenderer {
	return &CompositeRenderer{cmd: DrawCommand{
		Program: ProgramComposite,
		Indices: quadIndices,
	}}
}

// Draw renders a display-sized quad through transform into dst.
func (r *CompositeRenderer) Draw(dst Surface, transform Matrix, display Size, source, mask Surface, invert bool) {
	r.verts = imageQuad(display.W, display.H)
	r.cmd.Vertices = r.verts[:]
	r.cmd.Transform = transform
	r.cmd.Textures = [2]Surface{source, mask}
	r.cmd.Invert = invert
	dst.Draw(&r.cmd)
}

// invertFor reports whether the composite interpretation is flipped for the
// given paint mode.
func invertFor(paintMode Mode) bool {
	return paintMode == ModeGray
}

package retouch

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

// Format selects the Output encoding.
type Format uint8

const (
	FormatPNG  Format = iota // lossless, keeps alpha
	FormatJPEG               // lossy, drops alpha
)

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// Output renders the image with the current mask at source resolution, with
// no rotation, translation or zoom, and returns it encoded. It returns nil
// and no error when no image has been loaded.
func (e *Engine) Output() ([]byte, error) {
	if e.destroyed {
		return nil, ErrDestroyed
	}
	if e.st.source == nil {
		return nil, nil
	}
	img, err := e.exportImage()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch e.cfg.Format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.cfg.JPEGQuality})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("retouch: encode %s: %w", e.cfg.Format.Ext(), err)
	}
	Logger().Info("retouch: output", "format", e.cfg.Format.Ext(),
		"width", img.Rect.Dx(), "height", img.Rect.Dy(), "bytes", buf.Len())
	e.bus.Emit(Event{Type: EventOutput, Bytes: buf.Len()})
	return buf.Bytes(), nil
}

// exportImage composites into surfaces of its own so the frame, the pool
// and the live mask are left untouched.
func (e *Engine) exportImage() (*image.NRGBA, error) {
	src := e.st.source
	w, h := src.Rect.Dx(), src.Rect.Dy()

	srcTex, err := e.backend.NewSurface(w, h, SurfaceColor)
	if err != nil {
		return nil, fmt.Errorf("retouch: export source: %w", err)
	}
	defer srcTex.Dispose()
	srcTex.WritePixels(src.Pix)

	maskTex, err := e.backend.NewSurface(w, h, SurfaceData)
	if err != nil {
		return nil, fmt.Errorf("retouch: export mask: %w", err)
	}
	defer maskTex.Dispose()
	maskTex.WritePixels(scaleMask(e.mask, w, h))

	target, err := e.backend.NewSurface(w, h, SurfaceColor)
	if err != nil {
		return nil, fmt.Errorf("retouch: export target: %w", err)
	}
	defer target.Dispose()
	target.Clear(colorTransparent)

	fw, fh := float64(w), float64(h)
	transform := Ortho(0, fw, fh, 0).Mul(Translate(fw/2, fh/2))
	newCompositeRenderer().Draw(target, transform, Size{W: fw, H: fh},
		srcTex, maskTex, invertFor(e.st.paintMode))

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(out.Pix, target.ReadPixels(out.Rect))
	return out, nil
}

// scaleMask reads the mask back and resamples it to w x h with nearest
// neighbour, so painted stays painted and nothing in between appears.
func scaleMask(m *PaintMaskLayer, w, h int) []byte {
	mw, mh := m.Surface().Size()
	small := &image.NRGBA{Pix: m.Pixels(), Stride: 4 * mw, Rect: image.Rect(0, 0, mw, mh)}
	if mw == w && mh == h {
		return small.Pix
	}
	big := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(big, big.Rect, small, small.Rect, draw.Src, nil)
	return big.Pix
}

// WriteOutput encodes the image with Output and writes it to dir under a
// timestamped name built from label. It returns the written path, or "" when
// no image is loaded.
func (e *Engine) WriteOutput(dir, label string) (string, error) {
	data, err := e.Output()
	if err != nil || data == nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	stamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", stamp, sanitizeLabel(label), e.cfg.Format.Ext()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "output" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "output"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

package retouch

// surfacePool keeps reusable offscreen surfaces keyed by exact size and
// kind. Surfaces are cleared by the caller, not here.
type surfacePool struct {
	backend Backend
	buckets map[poolKey][]Surface
}

type poolKey struct {
	w, h int
	kind SurfaceKind
}

func newSurfacePool(b Backend) *surfacePool {
	return &surfacePool{backend: b}
}

// Acquire returns a pooled surface of the given size, allocating one when
// the bucket is empty.
func (p *surfacePool) Acquire(w, h int, kind SurfaceKind) (Surface, error) {
	key := poolKey{w, h, kind}
	if stack := p.buckets[key]; len(stack) > 0 {
		s := stack[len(stack)-1]
		p.buckets[key] = stack[:len(stack)-1]
		return s, nil
	}
	return p.backend.NewSurface(w, h, kind)
}

// Release returns s to the pool for reuse.
func (p *surfacePool) Release(s Surface) {
	if s == nil {
		return
	}
	w, h := s.Size()
	key := poolKey{w, h, s.Kind()}
	if p.buckets == nil {
		p.buckets = make(map[poolKey][]Surface)
	}
	p.buckets[key] = append(p.buckets[key], s)
}

// Len returns the number of idle surfaces.
func (p *surfacePool) Len() int {
	n := 0
	for _, stack := range p.buckets {
		n += len(stack)
	}
	return n
}

// Dispose releases every idle surface.
func (p *surfacePool) Dispose() {
	for key, stack := range p.buckets {
		for _, s := range stack {
			s.Dispose()
		}
		delete(p.buckets, key)
	}
}

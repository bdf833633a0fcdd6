package loader

// Sentinel decides when the marker row placed after the last item counts as
// visible. Margin widens the viewport on both sides; Threshold is the minimum
// fraction of the sentinel's Height that must fall inside the widened window.
type Sentinel struct {
	Margin    int
	Threshold float64
	Height    int
}

// DefaultSentinel mirrors a 100px root margin with a 10% visibility threshold,
// at roughly twenty pixels per terminal row.
func DefaultSentinel() Sentinel {
	return Sentinel{Margin: 5, Threshold: 0.1, Height: 1}
}

// Visible reports whether a sentinel starting at row at is visible in a viewport
// showing rows [top, top+height).
func (s Sentinel) Visible(top, height, at int) bool {
	if height <= 0 {
		return false
	}
	size := s.Height
	if size <= 0 {
		size = 1
	}
	lo := top - s.Margin
	hi := top + height + s.Margin
	overlap := min(at+size, hi) - max(at, lo)
	if overlap <= 0 {
		return false
	}
	return float64(overlap)/float64(size) >= s.Threshold
}

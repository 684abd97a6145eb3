// Package curve holds the ANBIMA term structures (ETTJ) used to pick the
// effective annual rate at a business-day distance.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

// Kind identifies the published term structure.
type Kind string

const (
	// Pre is the fixed-rate curve, used as the DI proxy for CDI+ bonds.
	Pre Kind = "PRE"
	// NTNB is the real-rate curve implied by NTN-B bonds, used for IPCA+.
	NTNB Kind = "NTN-B"
)

// ErrCurveUnavailable is returned when a curve has no vertices. Callers fall
// back to a fixed rate.
var ErrCurveUnavailable = errors.New("rate curve unavailable")

// Vertex is one point of the curve: annual rate in percent at a distance in
// business days.
type Vertex struct {
	BusinessDays int     `json:"business_days" yaml:"businessDays"`
	Rate         float64 `json:"rate" yaml:"rate"`
}

// Curve is an immutable, strictly increasing list of vertices. The zero value
// is an empty curve.
type Curve struct {
	kind     Kind
	vertices []Vertex
}

// New sorts the vertices and rejects duplicate distances.
func New(kind Kind, vertices []Vertex) (Curve, error) {
	vs := make([]Vertex, len(vertices))
	copy(vs, vertices)
	sort.Slice(vs, func(i, j int) bool { return vs[i].BusinessDays < vs[j].BusinessDays })
	for i := 1; i < len(vs); i++ {
		if vs[i].BusinessDays == vs[i-1].BusinessDays {
			return Curve{}, fmt.Errorf("%s curve has duplicate vertex at %d business days", kind, vs[i].BusinessDays)
		}
	}
	return Curve{kind: kind, vertices: vs}, nil
}

// Kind returns the curve kind.
func (c Curve) Kind() Kind { return c.kind }

// Len returns the vertex count.
func (c Curve) Len() int { return len(c.vertices) }

// Loaded reports whether the curve has at least one vertex.
func (c Curve) Loaded() bool { return len(c.vertices) > 0 }

// MinDays returns the first vertex distance, or 0 when empty.
func (c Curve) MinDays() int {
	if len(c.vertices) == 0 {
		return 0
	}
	return c.vertices[0].BusinessDays
}

// MaxDays returns the last vertex distance, or 0 when empty.
func (c Curve) MaxDays() int {
	if len(c.vertices) == 0 {
		return 0
	}
	return c.vertices[len(c.vertices)-1].BusinessDays
}

// Vertices returns a copy of the vertices.
func (c Curve) Vertices() []Vertex {
	out := make([]Vertex, len(c.vertices))
	copy(out, c.vertices)
	return out
}

// Interpolate returns the rate at the given distance: flat outside the vertex
// range, linear between the bracketing vertices.
func (c Curve) Interpolate(businessDays int) (float64, error) {
	n := len(c.vertices)
	if n == 0 {
		return 0, ErrCurveUnavailable
	}
	if businessDays <= c.vertices[0].BusinessDays {
		return c.vertices[0].Rate, nil
	}
	if businessDays >= c.vertices[n-1].BusinessDays {
		return c.vertices[n-1].Rate, nil
	}

	// first vertex >= target; guaranteed 0 < idx < n here
	idx := sort.Search(n, func(i int) bool { return c.vertices[i].BusinessDays >= businessDays })
	hi := c.vertices[idx]
	if hi.BusinessDays == businessDays {
		return hi.Rate, nil
	}
	lo := c.vertices[idx-1]
	w := float64(businessDays-lo.BusinessDays) / float64(hi.BusinessDays-lo.BusinessDays)
	return lo.Rate + w*(hi.Rate-lo.Rate), nil
}

// Info summarizes a curve for response echoes.
type Info struct {
	Kind          Kind `json:"type"`
	Loaded        bool `json:"loaded"`
	VerticesCount int  `json:"vertices_count"`
	MinDays       int  `json:"min_days"`
	MaxDays       int  `json:"max_days"`
}

// Info returns the summary of the curve.
func (c Curve) Info() Info {
	return Info{
		Kind:          c.kind,
		Loaded:        c.Loaded(),
		VerticesCount: c.Len(),
		MinDays:       c.MinDays(),
		MaxDays:       c.MaxDays(),
	}
}

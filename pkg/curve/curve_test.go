package curve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCurve(t *testing.T) Curve {
	t.Helper()
	c, err := New(Pre, []Vertex{
		{BusinessDays: 252, Rate: 12.0},
		{BusinessDays: 21, Rate: 10.0},
		{BusinessDays: 504, Rate: 13.0},
	})
	require.NoError(t, err)
	return c
}

func TestInterpolate(t *testing.T) {
	c := testCurve(t)

	tests := []struct {
		name     string
		days     int
		expected float64
	}{
		{"Flat below first vertex", 1, 10.0},
		{"Zero distance", 0, 10.0},
		{"Exact first vertex", 21, 10.0},
		{"Exact middle vertex", 252, 12.0},
		{"Exact last vertex", 504, 13.0},
		{"Flat above last vertex", 2000, 13.0},
		{"Linear midpoint", 378, 12.5},
		{"Linear quarter", 315, 12.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Interpolate(tt.days)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestInterpolateExactAtVertex(t *testing.T) {
	c := testCurve(t)
	for _, v := range c.Vertices() {
		got, err := c.Interpolate(v.BusinessDays)
		require.NoError(t, err)
		if got != v.Rate {
			t.Errorf("Interpolate(%d) = %v, expected exactly %v", v.BusinessDays, got, v.Rate)
		}
	}
}

func TestInterpolateEmpty(t *testing.T) {
	var c Curve
	_, err := c.Interpolate(100)
	if !errors.Is(err, ErrCurveUnavailable) {
		t.Fatalf("expected ErrCurveUnavailable, got %v", err)
	}
	assert.False(t, c.Loaded())
	assert.Equal(t, 0, c.MinDays())
	assert.Equal(t, 0, c.MaxDays())
}

func TestSingleVertexIsFlat(t *testing.T) {
	c, err := New(NTNB, []Vertex{{BusinessDays: 126, Rate: 6.1}})
	require.NoError(t, err)
	for _, d := range []int{1, 126, 5000} {
		got, err := c.Interpolate(d)
		require.NoError(t, err)
		assert.Equal(t, 6.1, got)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(Pre, []Vertex{{BusinessDays: 21, Rate: 10}, {BusinessDays: 21, Rate: 11}})
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	info := testCurve(t).Info()
	assert.Equal(t, Info{Kind: Pre, Loaded: true, VerticesCount: 3, MinDays: 21, MaxDays: 504}, info)
}

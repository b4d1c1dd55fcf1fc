package inference

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b BoundingBox
		want float32
	}{
		{
			name: "identical",
			a:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			want: 1,
		},
		{
			name: "half overlap",
			a:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BoundingBox{X1: 5, Y1: 0, X2: 15, Y2: 10},
			want: 50.0 / 150.0,
		},
		{
			name: "disjoint",
			a:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BoundingBox{X1: 20, Y1: 20, X2: 30, Y2: 30},
			want: 0,
		},
		{
			name: "degenerate",
			a:    BoundingBox{X1: 5, Y1: 5, X2: 5, Y2: 5},
			b:    BoundingBox{X1: 5, Y1: 5, X2: 5, Y2: 5},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.a.IoU(&tt.b), 1e-6)
			assert.InDelta(t, tt.want, tt.b.IoU(&tt.a), 1e-6)
		})
	}
}

func TestBoundingBoxToRect(t *testing.T) {
	b := BoundingBox{X1: 10.9, Y1: 20.1, X2: 5.5, Y2: 40.7}
	assert.Equal(t, image.Rect(5, 20, 10, 40), b.ToRect())
}

func TestBoundingBoxRaw(t *testing.T) {
	b := BoundingBox{ClassID: 3, Confidence: 0.75, X1: 1, Y1: 2, X2: 3, Y2: 4}
	raw := b.Raw()

	assert.Equal(t, float32(3), raw.ClassID)
	assert.Equal(t, float32(0.75), raw.Confidence)
	require.NotNil(t, raw.Box)
	assert.Equal(t, []float32{1, 2, 3, 4}, raw.Box.Data())
	assert.Equal(t, 4, raw.Box.Shape().TotalSize())
}

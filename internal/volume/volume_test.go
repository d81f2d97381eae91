package volume

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexLayout(t *testing.T) {
	v := New(1, 3, 2, 4, 5)
	v.Set(2, 1, 3, 4, 7)

	assert.Equal(t, v.Len()-1, v.Index(2, 1, 3, 4))
	assert.Equal(t, 7.0, v.Data[v.Len()-1])
	assert.Equal(t, 7.0, v.At(2, 1, 3, 4))
}

func TestCheckBatch(t *testing.T) {
	assert.NoError(t, New(1, 3, 1, 1, 1).CheckBatch())

	err := New(2, 3, 1, 1, 1).CheckBatch()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedBatchSize))
}

func TestFromDataLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		FromData(make([]float64, 5), 1, 1, 1, 2, 2)
	})
}

func TestRescaled(t *testing.T) {
	v := FromData([]float64{0, 0.5, 1, 0.25}, 1, 1, 1, 2, 2)
	r := v.Rescaled()

	assert.InDeltaSlice(t, []float64{-1, 0, 1, -0.5}, r.Data, 1e-12)
	assert.Equal(t, 0.0, v.Data[0], "source must be untouched")
}

func TestTruncateFrames(t *testing.T) {
	v := New(1, 2, 3, 1, 2)
	for i := range v.Data {
		v.Data[i] = float64(i)
	}

	tr := v.TruncateFrames(2)
	require.Equal(t, 2, tr.Frames)
	// channel 0: frames 0,1 -> 0..3; channel 1 starts at 6
	assert.Equal(t, []float64{0, 1, 2, 3, 6, 7, 8, 9}, tr.Data)

	assert.Equal(t, 3, v.TruncateFrames(10).Frames)
}

func TestResizeSpatialIdentityAndConstant(t *testing.T) {
	v := Random(1, 3, 2, 4, 6, rand.NewPCG(1, 2))
	same := v.ResizeSpatial(4, 6)
	assert.Equal(t, v.Data, same.Data)

	c := New(1, 1, 1, 4, 4)
	for i := range c.Data {
		c.Data[i] = 0.3
	}
	up := c.ResizeSpatial(7, 9)
	for _, x := range up.Data {
		assert.InDelta(t, 0.3, x, 1e-12)
	}
	down := c.ResizeSpatial(2, 2)
	for _, x := range down.Data {
		assert.InDelta(t, 0.3, x, 1e-12)
	}
}

func TestResizeSpatialHalvesByAveraging(t *testing.T) {
	v := FromData([]float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
	}, 1, 1, 1, 2, 4)

	out := v.ResizeSpatial(1, 2)
	// half-pixel centres land exactly between the source pixels
	assert.InDeltaSlice(t, []float64{2.5, 4.5}, out.Data, 1e-12)
}

func TestEncodeDecode(t *testing.T) {
	v := Random(1, 3, 2, 3, 3, rand.NewPCG(3, 4))

	var buf bytes.Buffer
	require.NoError(t, v.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, v.Shape(), got.Shape())
	assert.Equal(t, v.Data, got.Data)
}

func TestSaveLoad(t *testing.T) {
	v := Random(1, 3, 1, 2, 2, rand.NewPCG(5, 6))
	path := t.TempDir() + "/signal.gob"

	require.NoError(t, v.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, v.Data, got.Data)

	_, err = Load(path + ".missing")
	assert.Error(t, err)
}

func TestRandomRange(t *testing.T) {
	v := Random(1, 3, 2, 5, 5, rand.NewPCG(7, 8))
	for _, x := range v.Data {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	}
}

func TestDrifting(t *testing.T) {
	v := Drifting(2, 4, 5, 6, 0, 1, rand.NewPCG(9, 10))
	for c := 0; c < 2; c++ {
		for f := 1; f < 4; f++ {
			for i := 0; i < 5; i++ {
				for j := 0; j < 6; j++ {
					assert.Equal(t, v.At(c, 0, i, (j+f)%6), v.At(c, f, i, j))
				}
			}
		}
	}

	back := Drifting(1, 2, 3, 3, -1, -1, rand.NewPCG(1, 1))
	assert.Equal(t, back.At(0, 0, 2, 2), back.At(0, 1, 0, 0))
}

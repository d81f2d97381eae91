package loss

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// TruncatedMSE is the mean squared error over the frames both volumes share.
// Frames beyond the shorter temporal extent are ignored.
func TruncatedMSE(x, y *volume.Volume) (float64, error) {
	xt, yt, err := truncateCommon(x, y)
	if err != nil {
		return 0, err
	}
	return MSE{}.Forward(xt.Data, yt.Data), nil
}

// TruncatedMSEGrad returns dTruncatedMSE/dx, zero on frames past the common length.
func TruncatedMSEGrad(x, y *volume.Volume) (*volume.Volume, error) {
	xt, yt, err := truncateCommon(x, y)
	if err != nil {
		return nil, err
	}
	gt := MSE{}.Backward(xt.Data, yt.Data)

	grad := volume.NewLike(x)
	plane := x.Height * x.Width
	n := xt.Frames * plane
	for c := 0; c < x.Channels; c++ {
		copy(grad.Data[c*x.Frames*plane:c*x.Frames*plane+n], gt[c*n:(c+1)*n])
	}
	return grad, nil
}

// TemporalMean is the mean squared error between per-pixel temporal means,
// a coarse comparison that ignores motion.
func TemporalMean(x, y *volume.Volume) (float64, error) {
	mx, my, err := temporalMeans(x, y)
	if err != nil {
		return 0, err
	}
	return MSE{}.Forward(mx, my), nil
}

// TemporalMeanGrad returns dTemporalMean/dx.
func TemporalMeanGrad(x, y *volume.Volume) (*volume.Volume, error) {
	mx, my, err := temporalMeans(x, y)
	if err != nil {
		return nil, err
	}
	gm := MSE{}.Backward(mx, my)

	grad := volume.NewLike(x)
	plane := x.Height * x.Width
	inv := 1 / float64(x.Frames)
	for c := 0; c < x.Channels; c++ {
		for t := 0; t < x.Frames; t++ {
			dst := grad.Data[(c*x.Frames+t)*plane : (c*x.Frames+t+1)*plane]
			for k := range dst {
				dst[k] = gm[c*plane+k] * inv
			}
		}
	}
	return grad, nil
}

func checkSpatial(x, y *volume.Volume) error {
	if err := x.CheckBatch(); err != nil {
		return err
	}
	if err := y.CheckBatch(); err != nil {
		return err
	}
	if x.Channels != y.Channels || x.Height != y.Height || x.Width != y.Width {
		return fmt.Errorf("%w: %+v vs %+v", volume.ErrShapeMismatch, x.Shape(), y.Shape())
	}
	return nil
}

func truncateCommon(x, y *volume.Volume) (*volume.Volume, *volume.Volume, error) {
	if err := checkSpatial(x, y); err != nil {
		return nil, nil, err
	}
	n := min(x.Frames, y.Frames)
	return x.TruncateFrames(n), y.TruncateFrames(n), nil
}

func temporalMeans(x, y *volume.Volume) ([]float64, []float64, error) {
	if err := checkSpatial(x, y); err != nil {
		return nil, nil, err
	}
	return frameMean(x), frameMean(y), nil
}

// frameMean averages over frames, giving a [channels, height, width] slice.
func frameMean(v *volume.Volume) []float64 {
	plane := v.Height * v.Width
	out := make([]float64, v.Channels*plane)
	for c := 0; c < v.Channels; c++ {
		acc := out[c*plane : (c+1)*plane]
		for t := 0; t < v.Frames; t++ {
			src := v.Data[(c*v.Frames+t)*plane : (c*v.Frames+t+1)*plane]
			for k, s := range src {
				acc[k] += s
			}
		}
		inv := 1 / float64(v.Frames)
		for k := range acc {
			acc[k] *= inv
		}
	}
	return out
}

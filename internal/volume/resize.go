package volume

// ResizeSpatial resamples every frame to height x width with bilinear
// interpolation (half-pixel centres, edges clamped). Frames and channels
// are unchanged.
func (v *Volume) ResizeSpatial(height, width int) *Volume {
	out := New(v.Batch, v.Channels, v.Frames, height, width)
	if height == v.Height && width == v.Width {
		copy(out.Data, v.Data)
		return out
	}

	sy := float64(v.Height) / float64(height)
	sx := float64(v.Width) / float64(width)
	y0s, y1s, wys := bilinearTaps(height, v.Height, sy)
	x0s, x1s, wxs := bilinearTaps(width, v.Width, sx)

	inPlane := v.Height * v.Width
	outPlane := height * width
	planes := v.Batch * v.Channels * v.Frames
	for p := 0; p < planes; p++ {
		src := v.Data[p*inPlane : (p+1)*inPlane]
		dst := out.Data[p*outPlane : (p+1)*outPlane]
		for i := 0; i < height; i++ {
			r0 := src[y0s[i]*v.Width : (y0s[i]+1)*v.Width]
			r1 := src[y1s[i]*v.Width : (y1s[i]+1)*v.Width]
			wy := wys[i]
			for j := 0; j < width; j++ {
				wx := wxs[j]
				top := r0[x0s[j]]*(1-wx) + r0[x1s[j]]*wx
				bot := r1[x0s[j]]*(1-wx) + r1[x1s[j]]*wx
				dst[i*width+j] = top*(1-wy) + bot*wy
			}
		}
	}
	return out
}

// bilinearTaps precomputes the two source indices and the blend weight
// of the second one for every output coordinate along an axis.
func bilinearTaps(outN, inN int, scale float64) (lo, hi []int, w []float64) {
	lo = make([]int, outN)
	hi = make([]int, outN)
	w = make([]float64, outN)
	for i := 0; i < outN; i++ {
		s := (float64(i)+0.5)*scale - 0.5
		if s < 0 {
			s = 0
		}
		i0 := int(s)
		if i0 > inN-1 {
			i0 = inN - 1
		}
		i1 := i0 + 1
		if i1 > inN-1 {
			i1 = inN - 1
		}
		lo[i] = i0
		hi[i] = i1
		w[i] = s - float64(i0)
	}
	return lo, hi, w
}

package bsp

import (
	"image"
	"image/color"
	gomath "math"
)

// ColorRGBExp32 is one compressed lightmap sample.
type ColorRGBExp32 struct {
	R, G, B  uint8
	Exponent int8
}

// RGBA expands the sample to 8-bit color as channel * 2^exponent, clamped to [0,255].
func (c ColorRGBExp32) RGBA() color.RGBA {
	return color.RGBA{
		R: expandChannel(c.R, c.Exponent),
		G: expandChannel(c.G, c.Exponent),
		B: expandChannel(c.B, c.Exponent),
		A: 255,
	}
}

func expandChannel(v uint8, exp int8) uint8 {
	x := gomath.Ldexp(float64(v), int(exp))
	return uint8(min(x, 255))
}

// luxelBytes is the size of one ColorRGBExp32 sample.
const luxelBytes = 4

// LightmapSize returns the lightmap dimensions of a face in luxels.
func (f *File) LightmapSize(face int) (w, h int) {
	fc := f.Faces[face]
	return int(fc.LightmapSize[0]) + 1, int(fc.LightmapSize[1]) + 1
}

// DecodeLightmap expands a face's lighting samples into an RGBA image.
// It reports false for faces without lighting. Samples beyond the end of the
// lighting lump decode as opaque black.
func (f *File) DecodeLightmap(face int) (*image.RGBA, bool) {
	fc := f.Faces[face]
	if !fc.HasLightmap() {
		return nil, false
	}

	w, h := f.LightmapSize(face)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i := 0; i < w*h; i++ {
		c := color.RGBA{A: 255}
		off := int(fc.LightOfs) + i*luxelBytes
		if off >= 0 && off+luxelBytes <= len(f.Lighting) {
			c = ColorRGBExp32{
				R:        f.Lighting[off],
				G:        f.Lighting[off+1],
				B:        f.Lighting[off+2],
				Exponent: int8(f.Lighting[off+3]),
			}.RGBA()
		}
		img.SetRGBA(i%w, i/w, c)
	}
	return img, true
}

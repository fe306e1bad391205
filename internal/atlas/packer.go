// Package atlas packs lightmap images into a single texture using a binary-tree
// rectangle packer.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// DefaultMaxSize is the largest atlas side DefaultPacker will grow to.
const DefaultMaxSize = 16384

var (
	// ErrAtlasTooLarge is returned when the images do not fit within MaxSize.
	ErrAtlasTooLarge = errors.New("atlas exceeds maximum size")
	// ErrEmptyImage is returned for nil or zero-area input images.
	ErrEmptyImage = errors.New("empty image")
)

// Rect is a placed region of the atlas, in pixels.
type Rect struct {
	X, Y, W, H int
}

// Overlaps reports whether the two rectangles share any pixel.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Packer places images into a growing power-of-two-scaled atlas.
// When an image cannot be placed the whole tree is discarded and packing
// restarts with both dimensions doubled.
type Packer struct {
	InitialWidth  int
	InitialHeight int
	// MaxSize caps each atlas side. Zero or negative disables the cap.
	MaxSize int
}

// DefaultPacker starts at 1x1 and stops at DefaultMaxSize.
var DefaultPacker = Packer{InitialWidth: 1, InitialHeight: 1, MaxSize: DefaultMaxSize}

// Atlas is the packed result. Rects are in input order.
type Atlas struct {
	Image *image.RGBA
	Rects []Rect
}

// Empty returns a 1x1 white atlas for groups without any lightmap.
func Empty() *Atlas {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})
	return &Atlas{Image: img}
}

// Width returns the atlas width in pixels.
func (a *Atlas) Width() int { return a.Image.Bounds().Dx() }

// Height returns the atlas height in pixels.
func (a *Atlas) Height() int { return a.Image.Bounds().Dy() }

// RemapUV converts a coordinate in a source image's [0,1] space to atlas space.
func (a *Atlas) RemapUV(uv math.Vec2, r Rect) math.Vec2 {
	return math.Vec2{
		X: (uv.X*float32(r.W) + float32(r.X)) / float32(a.Width()),
		Y: (uv.Y*float32(r.H) + float32(r.Y)) / float32(a.Height()),
	}
}

// Pack places every image and blits them into a new atlas. Packing is
// deterministic and depends on input order. An empty input yields Empty().
func (p Packer) Pack(images []*image.RGBA) (*Atlas, error) {
	if len(images) == 0 {
		return Empty(), nil
	}

	sizes := make([]image.Point, len(images))
	for i, img := range images {
		if img == nil || img.Bounds().Empty() {
			return nil, fmt.Errorf("image %d: %w", i, ErrEmptyImage)
		}
		sizes[i] = img.Bounds().Size()
	}

	w, h := max(p.InitialWidth, 1), max(p.InitialHeight, 1)
	var rects []Rect
	for {
		var ok bool
		if rects, ok = packTree(w, h, sizes); ok {
			break
		}
		w, h = w*2, h*2
		if p.MaxSize > 0 && (w > p.MaxSize || h > p.MaxSize) {
			return nil, fmt.Errorf("%w: %d images need more than %dx%d", ErrAtlasTooLarge, len(images), p.MaxSize, p.MaxSize)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, img := range images {
		r := rects[i]
		draw.Draw(dst, image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H), img, img.Bounds().Min, draw.Src)
	}
	return &Atlas{Image: dst, Rects: rects}, nil
}

// packTree inserts all sizes into a fresh tree of the given root size.
func packTree(w, h int, sizes []image.Point) ([]Rect, bool) {
	t := tree{nodes: []node{{rect: Rect{W: w, H: h}, first: -1, second: -1}}}
	rects := make([]Rect, len(sizes))
	for i, s := range sizes {
		n := t.insert(0, s.X, s.Y)
		if n < 0 {
			return nil, false
		}
		rects[i] = t.nodes[n].rect
	}
	return rects, true
}

// node is one region of the packing tree. A node has either two children or none.
type node struct {
	rect          Rect
	first, second int
	used          bool
}

// tree stores nodes in an arena; children are indices into nodes.
type tree struct {
	nodes []node
}

func (t *tree) add(r Rect) int {
	t.nodes = append(t.nodes, node{rect: r, first: -1, second: -1})
	return len(t.nodes) - 1
}

// insert returns the index of the leaf claimed for a w x h image, or -1.
func (t *tree) insert(n, w, h int) int {
	nd := t.nodes[n]
	if nd.first >= 0 {
		if got := t.insert(nd.first, w, h); got >= 0 {
			return got
		}
		return t.insert(nd.second, w, h)
	}
	if nd.used {
		return -1
	}
	r := nd.rect
	if w > r.W || h > r.H {
		return -1
	}
	if w == r.W && h == r.H {
		t.nodes[n].used = true
		return n
	}

	var first, second int
	if dw, dh := r.W-w, r.H-h; dw > dh {
		first = t.add(Rect{X: r.X, Y: r.Y, W: w, H: r.H})
		second = t.add(Rect{X: r.X + w, Y: r.Y, W: r.W - w, H: r.H})
	} else {
		first = t.add(Rect{X: r.X, Y: r.Y, W: r.W, H: h})
		second = t.add(Rect{X: r.X, Y: r.Y + h, W: r.W, H: r.H - h})
	}
	t.nodes[n].first, t.nodes[n].second = first, second
	return t.insert(first, w, h)
}

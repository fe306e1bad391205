package bsp_test

import (
	"bytes"
	gomath "math"
	"testing"

	"github.com/Faultbox/vbsp-viewer/pkg/bsp"
	"github.com/Faultbox/vbsp-viewer/pkg/bsp/bsptest"
	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

func approx(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func approxVec2(a, b math.Vec2) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y)
}

func approxVec3(a, b math.Vec3) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y) && approx(a.Z, b.Z)
}

func mustRead(t *testing.T, b *bsptest.Builder) *bsp.File {
	t.Helper()
	f, err := bsp.Read(bytes.NewReader(b.Bytes()), bsp.LoadOptions{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return f
}

func TestFlipVector(t *testing.T) {
	got := bsp.FlipVector(math.Vec3{X: 1, Y: 2, Z: 3})
	if got != (math.Vec3{X: 1, Y: 3, Z: -2}) {
		t.Errorf("FlipVector = %v", got)
	}
}

func TestBuildFace_Quad(t *testing.T) {
	f := mustRead(t, newQuadMap())

	s := f.BuildSurface(0)
	if s.Face != 0 {
		t.Errorf("expected face 0, got %d", s.Face)
	}

	wantIdx := []uint32{0, 1, 2, 0, 2, 3}
	if len(s.Indices) != len(wantIdx) {
		t.Fatalf("expected %d indices, got %d", len(wantIdx), len(s.Indices))
	}
	for i := range wantIdx {
		if s.Indices[i] != wantIdx[i] {
			t.Errorf("index %d: expected %d, got %d", i, wantIdx[i], s.Indices[i])
		}
	}

	wantPos := []math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 64, Y: 0, Z: 0},
		{X: 64, Y: 0, Z: -64},
		{X: 0, Y: 0, Z: -64},
	}
	for i, want := range wantPos {
		if !approxVec3(s.Positions[i], want) {
			t.Errorf("position %d: expected %v, got %v", i, want, s.Positions[i])
		}
	}

	// Texture 128x64, axes along map X and Y.
	wantUV1 := []math.Vec2{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 1}}
	for i, want := range wantUV1 {
		if !approxVec2(s.UV1[i], want) {
			t.Errorf("uv1 %d: expected %v, got %v", i, want, s.UV1[i])
		}
	}

	// 2x2 luxels, one luxel per 64 units, half-luxel inset.
	wantUV2 := []math.Vec2{{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.25}, {X: 0.75, Y: 0.75}, {X: 0.25, Y: 0.75}}
	for i, want := range wantUV2 {
		if !approxVec2(s.UV2[i], want) {
			t.Errorf("uv2 %d: expected %v, got %v", i, want, s.UV2[i])
		}
	}
}

// A wall in the map's XZ plane maps lightmap V along map Z, which the
// viewer's Y-up flip moves onto a different axis.
func TestBuildFace_WallLightmapUV(t *testing.T) {
	b := bsptest.New()
	td := b.AddTexture("concrete/wall01", 64, 64)
	ti := b.AddTexInfo(bsp.TexInfo{
		TextureU:  bsp.TexAxis{Axis: math.Vec3{X: 1}},
		TextureV:  bsp.TexAxis{Axis: math.Vec3{Z: -1}},
		LightmapU: bsp.TexAxis{Axis: math.Vec3{X: 1.0 / 64}},
		LightmapV: bsp.TexAxis{Axis: math.Vec3{Z: -1.0 / 64}},
		TexData:   td,
	})
	face := b.AddFace([]math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 64, Y: 0, Z: 0},
		{X: 64, Y: 0, Z: 64},
		{X: 0, Y: 0, Z: 64},
	}, ti)
	b.SetLightmap(face, [2]int32{0, -1}, [2]int32{1, 1}, make([]bsp.ColorRGBExp32, 4))
	b.AddModel(0, 1)

	s := mustRead(t, b).BuildFace(0)

	want := []math.Vec2{{X: 0.25, Y: 0.75}, {X: 0.75, Y: 0.75}, {X: 0.75, Y: 0.25}, {X: 0.25, Y: 0.25}}
	for i, w := range want {
		if !approxVec2(s.UV2[i], w) {
			t.Errorf("uv2 %d: expected %v, got %v", i, w, s.UV2[i])
		}
	}
}

func TestBuildFace_FloorLightmapSpansBothAxes(t *testing.T) {
	s := mustRead(t, newQuadMap()).BuildFace(0)

	if approx(s.UV2[0].Y, s.UV2[2].Y) {
		t.Errorf("lightmap V constant across a floor face: %v", s.UV2)
	}
	if approx(s.UV2[0].X, s.UV2[2].X) {
		t.Errorf("lightmap U constant across a floor face: %v", s.UV2)
	}
}

func TestBuildFace_FanIndexCount(t *testing.T) {
	for k := 3; k <= 8; k++ {
		b := bsptest.New()
		td := b.AddTexture("tools/test", 64, 64)
		ti := b.AddTexInfo(bsp.TexInfo{TexData: td})
		verts := make([]math.Vec3, k)
		for i := range verts {
			a := 2 * gomath.Pi * float64(i) / float64(k)
			verts[i] = math.Vec3{X: float32(gomath.Cos(a)) * 100, Y: float32(gomath.Sin(a)) * 100}
		}
		b.AddFace(verts, ti)
		f := mustRead(t, b)

		s := f.BuildFace(0)
		if len(s.Indices) != 3*(k-2) {
			t.Errorf("k=%d: expected %d indices, got %d", k, 3*(k-2), len(s.Indices))
		}
		if len(s.Positions) != k || len(s.UV1) != k || len(s.UV2) != k {
			t.Errorf("k=%d: expected %d vertices, got %d/%d/%d", k, k, len(s.Positions), len(s.UV1), len(s.UV2))
		}
		for _, idx := range s.Indices {
			if int(idx) >= k {
				t.Errorf("k=%d: index %d out of range", k, idx)
			}
		}
		for i, v := range verts {
			if !approxVec3(s.Positions[i], bsp.FlipVector(v)) {
				t.Errorf("k=%d: vertex %d: winding not preserved", k, i)
			}
		}
	}
}

// newDispMap builds a 64x64 displacement with its start at map (64,64,0).
// Grid vertex (2,2) is raised 10 units.
func newDispMap(power int32) *bsptest.Builder {
	b := bsptest.New()
	td := b.AddTexture("nature/blendgrass", 64, 64)
	ti := b.AddTexInfo(bsp.TexInfo{
		TextureU: bsp.TexAxis{Axis: math.Vec3{X: 1}},
		TextureV: bsp.TexAxis{Axis: math.Vec3{Y: 1}},
		TexData:  td,
	})
	face := b.AddFace([]math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 64, Y: 0, Z: 0},
		{X: 64, Y: 64, Z: 0},
		{X: 0, Y: 64, Z: 0},
	}, ti)
	b.Faces[face].LightmapSize = [2]int32{4, 4}
	b.AddDisplacement(face, power, math.Vec3{X: 64, Y: 64}, func(row, col int) (math.Vec3, float32) {
		if row == 2 && col == 2 {
			return math.Vec3{Z: 1}, 10
		}
		return math.Vec3{}, 0
	})
	return b
}

func TestBuildDisplacement_Grid(t *testing.T) {
	for power := int32(2); power <= 4; power++ {
		f := mustRead(t, newDispMap(power))
		s := f.BuildSurface(0)

		n := 1<<uint(power) + 1
		if len(s.Positions) != n*n {
			t.Errorf("power %d: expected %d vertices, got %d", power, n*n, len(s.Positions))
		}
		if len(s.Indices) != 6*(n-1)*(n-1) {
			t.Errorf("power %d: expected %d indices, got %d", power, 6*(n-1)*(n-1), len(s.Indices))
		}
		for _, idx := range s.Indices {
			if int(idx) >= n*n {
				t.Fatalf("power %d: index %d out of range", power, idx)
			}
		}
	}
}

func TestBuildDisplacement_CornerRotation(t *testing.T) {
	f := mustRead(t, newDispMap(2))
	s := f.BuildDisplacement(0)
	const n = 5

	// The start position selects map corner (64,64,0) as grid vertex 0.
	corners := map[int]math.Vec3{
		0:           bsp.FlipVector(math.Vec3{X: 64, Y: 64}),
		n - 1:       bsp.FlipVector(math.Vec3{X: 64, Y: 0}),
		n * (n - 1): bsp.FlipVector(math.Vec3{X: 0, Y: 64}),
		n*n - 1:     bsp.FlipVector(math.Vec3{X: 0, Y: 0}),
	}
	for idx, want := range corners {
		if !approxVec3(s.Positions[idx], want) {
			t.Errorf("grid vertex %d: expected %v, got %v", idx, want, s.Positions[idx])
		}
	}

	center := s.Positions[2*n+2]
	if want := bsp.FlipVector(math.Vec3{X: 32, Y: 32, Z: 10}); !approxVec3(center, want) {
		t.Errorf("center: expected %v, got %v", want, center)
	}
}

func TestBuildDisplacement_UVs(t *testing.T) {
	f := mustRead(t, newDispMap(2))
	s := f.BuildDisplacement(0)
	const n = 5

	// UV1 ignores the displacement offset.
	if want := (math.Vec2{X: 0.5, Y: 0.5}); !approxVec2(s.UV1[2*n+2], want) {
		t.Errorf("center uv1: expected %v, got %v", want, s.UV1[2*n+2])
	}
	if want := (math.Vec2{X: 1, Y: 1}); !approxVec2(s.UV1[0], want) {
		t.Errorf("first uv1: expected %v, got %v", want, s.UV1[0])
	}

	// Lightmap size 4 (5x5 luxels): (step*j*4 + 0.5) / 5.
	if want := (math.Vec2{X: 0.1, Y: 0.1}); !approxVec2(s.UV2[0], want) {
		t.Errorf("first uv2: expected %v, got %v", want, s.UV2[0])
	}
	if want := (math.Vec2{X: 0.9, Y: 0.1}); !approxVec2(s.UV2[n-1], want) {
		t.Errorf("uv2 (0,%d): expected %v, got %v", n-1, want, s.UV2[n-1])
	}
	if want := (math.Vec2{X: 0.9, Y: 0.9}); !approxVec2(s.UV2[n*n-1], want) {
		t.Errorf("last uv2: expected %v, got %v", want, s.UV2[n*n-1])
	}
	for i, uv := range s.UV2 {
		if !uv.InUnitRange() {
			t.Errorf("uv2 %d out of [0,1]: %v", i, uv)
		}
	}
}

func TestBuildDisplacement_Checkerboard(t *testing.T) {
	f := mustRead(t, newDispMap(2))
	s := f.BuildDisplacement(0)

	want := []uint32{
		// cell k=0
		6, 1, 0, 5, 6, 0,
		// cell k=1
		6, 7, 2, 6, 2, 1,
	}
	for i, w := range want {
		if s.Indices[i] != w {
			t.Errorf("index %d: expected %d, got %d", i, w, s.Indices[i])
		}
	}
}

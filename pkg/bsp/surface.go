package bsp

import (
	gomath "math"

	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// Surface is the triangulated geometry of one face.
type Surface struct {
	Face      int
	Indices   []uint32
	Positions []math.Vec3
	UV1       []math.Vec2 // material texture space
	UV2       []math.Vec2 // lightmap space, [0,1] over the face's luxel rectangle
}

// BuildSurface triangulates a face, planar or displacement.
func (f *File) BuildSurface(face int) Surface {
	if f.Faces[face].IsDisplacement() {
		return f.BuildDisplacement(face)
	}
	return f.BuildFace(face)
}

// edgeVertex resolves the vertex a surf-edge starts at. The sign of the
// surf-edge selects which end of the edge is used.
func (f *File) edgeVertex(surfEdge int) math.Vec3 {
	se := f.SurfEdges[surfEdge]
	if se > 0 {
		return f.Vertexes[f.Edges[se].V[0]]
	}
	return f.Vertexes[f.Edges[-se].V[1]]
}

// BuildFace fan-triangulates a planar face around its first vertex.
// The edge loop is convex and planar in compiled maps.
func (f *File) BuildFace(face int) Surface {
	fc := f.Faces[face]
	ti := f.TexInfos[fc.TexInfo]
	td := f.TexData[ti.TexData]

	n := int(fc.NumEdges)
	s := Surface{
		Face:      face,
		Indices:   make([]uint32, 0, max(3*(n-2), 0)),
		Positions: make([]math.Vec3, 0, n),
		UV1:       make([]math.Vec2, 0, n),
		UV2:       make([]math.Vec2, 0, n),
	}

	for i := 1; i < n-1; i++ {
		s.Indices = append(s.Indices, 0, uint32(i), uint32(i+1))
	}

	texU := TexAxis{Axis: FlipVector(ti.TextureU.Axis), Offset: ti.TextureU.Offset}
	texV := TexAxis{Axis: FlipVector(ti.TextureV.Axis), Offset: ti.TextureV.Offset}
	texSize := math.Vec2{X: float32(td.Width), Y: float32(td.Height)}
	lmMins := math.Vec2{X: float32(fc.LightmapMins[0]), Y: float32(fc.LightmapMins[1])}
	lmSize := math.Vec2{X: float32(fc.LightmapSize[0] + 1), Y: float32(fc.LightmapSize[1] + 1)}

	first := int(fc.FirstEdge)
	for i := first; i < first+n; i++ {
		raw := f.edgeVertex(i)
		v := FlipVector(raw)

		uv1 := math.Vec2{X: texU.Project(v), Y: texV.Project(v)}.Div(texSize)

		// Lightmap axes stay in map space, so they project the unflipped position.
		uv2 := math.Vec2{
			X: ti.LightmapU.Project(raw) + 0.5 - lmMins.X,
			Y: ti.LightmapV.Project(raw) + 0.5 - lmMins.Y,
		}.Div(lmSize)

		s.Positions = append(s.Positions, v)
		s.UV1 = append(s.UV1, uv1)
		s.UV2 = append(s.UV2, uv2)
	}

	return s
}

// dispCorners returns the four corners of a displacement's base face, rotated
// so that the corner closest to the recorded start position comes first.
func (f *File) dispCorners(fc Face, disp DispInfo) [4]math.Vec3 {
	var corners [4]math.Vec3
	for i := range corners {
		corners[i] = f.edgeVertex(int(fc.FirstEdge) + i)
	}

	minDist := float32(gomath.MaxFloat32)
	minIndex := 0
	for i, c := range corners {
		if d := c.DistanceSq(disp.StartPosition); d < minDist {
			minDist = d
			minIndex = i
		}
	}

	var rotated [4]math.Vec3
	for i := range rotated {
		rotated[i] = corners[(i+minIndex)%4]
	}
	return rotated
}

// BuildDisplacement tessellates a displacement face into a (2^power+1)^2 grid.
func (f *File) BuildDisplacement(face int) Surface {
	fc := f.Faces[face]
	ti := f.TexInfos[fc.TexInfo]
	td := f.TexData[ti.TexData]
	disp := f.DispInfos[fc.DispInfo]

	corners := f.dispCorners(fc, disp)

	n := disp.SideVerts()
	step := 1 / float32(n-1)

	leftStep := corners[1].Sub(corners[0]).Scale(step)
	rightStep := corners[2].Sub(corners[3]).Scale(step)

	texSize := math.Vec2{X: float32(td.Width), Y: float32(td.Height)}
	lmSize := math.Vec2{X: float32(fc.LightmapSize[0]), Y: float32(fc.LightmapSize[1])}
	lmDiv := math.Vec2{X: lmSize.X + 1, Y: lmSize.Y + 1}

	s := Surface{
		Face:      face,
		Indices:   make([]uint32, 0, 6*(n-1)*(n-1)),
		Positions: make([]math.Vec3, 0, n*n),
		UV1:       make([]math.Vec2, 0, n*n),
		UV2:       make([]math.Vec2, 0, n*n),
	}

	for i := 0; i < n; i++ {
		leftEnd := corners[0].Add(leftStep.Scale(float32(i)))
		rightEnd := corners[3].Add(rightStep.Scale(float32(i)))
		rowStep := rightEnd.Sub(leftEnd).Scale(step)

		for j := 0; j < n; j++ {
			dv := f.DispVerts[int(disp.DispVertStart)+i*n+j]

			flat := leftEnd.Add(rowStep.Scale(float32(j)))
			pos := flat.Add(dv.Vector.Scale(dv.Dist))

			uv1 := math.Vec2{X: ti.TextureU.Project(flat), Y: ti.TextureV.Project(flat)}.Div(texSize)
			uv2 := math.Vec2{
				X: step*float32(j)*lmSize.X + 0.5,
				Y: step*float32(i)*lmSize.Y + 0.5,
			}.Div(lmDiv)

			s.Positions = append(s.Positions, FlipVector(pos))
			s.UV1 = append(s.UV1, uv1)
			s.UV2 = append(s.UV2, uv2)
		}
	}

	s.Indices = appendGridIndices(s.Indices, n)
	return s
}

// appendGridIndices emits two triangles per grid cell. The split diagonal
// alternates with the parity of the cell's first vertex index.
func appendGridIndices(indices []uint32, n int) []uint32 {
	w := uint32(n)
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-1; j++ {
			k := uint32(i*n + j)
			if k%2 == 1 {
				indices = append(indices,
					k+w, k+w+1, k+1,
					k+w, k+1, k,
				)
			} else {
				indices = append(indices,
					k+w+1, k+1, k,
					k+w, k+w+1, k,
				)
			}
		}
	}
	return indices
}

package bsp

import (
	"encoding/binary"
	gomath "math"

	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// On-disk record sizes.
const (
	modelSize     = 48
	vertexSize    = 12
	edgeSize      = 4
	surfEdgeSize  = 4
	texInfoSize   = 72
	texDataSize   = 32
	faceSize      = 56
	dispInfoSize  = 176
	dispVertSize  = 20
	stringRefSize = 4
)

// Model is one independently placed piece of the map. Model 0 is the world.
type Model struct {
	Mins, Maxs math.Vec3
	Origin     math.Vec3
	HeadNode   int32
	FirstFace  int32
	NumFaces   int32
}

// Edge references two entries of the vertex lump.
type Edge struct {
	V [2]uint16
}

// TexAxis is one projection axis of a TexInfo.
type TexAxis struct {
	Axis   math.Vec3
	Offset float32
}

// Project returns dot(v, axis) + offset.
func (a TexAxis) Project(v math.Vec3) float32 {
	return v.Dot(a.Axis) + a.Offset
}

// TexInfo maps positions to material and lightmap texture space.
type TexInfo struct {
	TextureU  TexAxis
	TextureV  TexAxis
	LightmapU TexAxis
	LightmapV TexAxis
	Flags     int32
	TexData   int32
}

// Hidden reports whether faces using this TexInfo are never drawn.
func (t TexInfo) Hidden() bool {
	return t.Flags&SurfHidden != 0
}

// TexData names a material and its dimensions.
type TexData struct {
	Reflectivity      math.Vec3
	NameStringTableID int32
	Width             int32
	Height            int32
	ViewWidth         int32
	ViewHeight        int32
}

// Face is one polygon of a model.
type Face struct {
	PlaneNum           uint16
	Side               uint8
	OnNode             uint8
	FirstEdge          int32
	NumEdges           int16
	TexInfo            int16
	DispInfo           int16 // -1 for planar faces
	SurfaceFogVolumeID int16
	Styles             [4]uint8
	LightOfs           int32 // byte offset into the lighting lump, -1 if unlit
	Area               float32
	LightmapMins       [2]int32 // in luxels
	LightmapSize       [2]int32 // in luxels, minus one
	OrigFace           int32
	NumPrims           uint16
	FirstPrimID        uint16
	SmoothingGroups    uint32
}

// IsDisplacement reports whether the face is tessellated from a DispInfo.
func (f Face) IsDisplacement() bool { return f.DispInfo != -1 }

// HasLightmap reports whether the face carries lighting samples.
func (f Face) HasLightmap() bool { return f.LightOfs != -1 }

// DispSubNeighbor is half of a displacement edge neighbour.
type DispSubNeighbor struct {
	Neighbor            uint16
	NeighborOrientation uint8
	Span                uint8
	NeighborSpan        uint8
}

// DispCornerNeighbors lists displacements touching one corner.
type DispCornerNeighbors struct {
	Neighbors  [4]uint16
	NNeighbors uint8
}

// DispInfo describes a displacement surface built on top of a four-sided face.
type DispInfo struct {
	StartPosition               math.Vec3
	DispVertStart               int32
	DispTriStart                int32
	Power                       int32
	MinTess                     int32
	SmoothingAngle              float32
	Contents                    int32
	MapFace                     uint16
	LightmapAlphaStart          int32
	LightmapSamplePositionStart int32
	EdgeNeighbors               [4][2]DispSubNeighbor
	CornerNeighbors             [4]DispCornerNeighbors
	AllowedVerts                [10]uint32
}

// SideVerts returns the number of grid vertices along one side: 2^power + 1.
func (d DispInfo) SideVerts() int {
	return 1<<uint(d.Power) + 1
}

// DispVert offsets one displacement grid vertex.
type DispVert struct {
	Vector math.Vec3
	Dist   float32
	Alpha  float32
}

// fieldReader decodes little-endian fields from one record.
type fieldReader struct {
	buf []byte
	off int
}

func (r *fieldReader) skip(n int) { r.off += n }

func (r *fieldReader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *fieldReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *fieldReader) i16() int16 { return int16(r.u16()) }

func (r *fieldReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *fieldReader) i32() int32 { return int32(r.u32()) }

func (r *fieldReader) f32() float32 { return gomath.Float32frombits(r.u32()) }

func (r *fieldReader) vec3() math.Vec3 {
	return math.Vec3{X: r.f32(), Y: r.f32(), Z: r.f32()}
}

func (r *fieldReader) texAxis() TexAxis {
	return TexAxis{Axis: r.vec3(), Offset: r.f32()}
}

// decodeRecords splits data into fixed-size records. A trailing partial record is dropped.
func decodeRecords[T any](data []byte, size int, decode func(*fieldReader) T) []T {
	out := make([]T, len(data)/size)
	for i := range out {
		r := fieldReader{buf: data[i*size : (i+1)*size]}
		out[i] = decode(&r)
	}
	return out
}

func decodeModel(r *fieldReader) Model {
	return Model{
		Mins:      r.vec3(),
		Maxs:      r.vec3(),
		Origin:    r.vec3(),
		HeadNode:  r.i32(),
		FirstFace: r.i32(),
		NumFaces:  r.i32(),
	}
}

func decodeVertex(r *fieldReader) math.Vec3 { return r.vec3() }

func decodeEdge(r *fieldReader) Edge {
	return Edge{V: [2]uint16{r.u16(), r.u16()}}
}

func decodeInt32(r *fieldReader) int32 { return r.i32() }

func decodeTexInfo(r *fieldReader) TexInfo {
	return TexInfo{
		TextureU:  r.texAxis(),
		TextureV:  r.texAxis(),
		LightmapU: r.texAxis(),
		LightmapV: r.texAxis(),
		Flags:     r.i32(),
		TexData:   r.i32(),
	}
}

func decodeTexData(r *fieldReader) TexData {
	return TexData{
		Reflectivity:      r.vec3(),
		NameStringTableID: r.i32(),
		Width:             r.i32(),
		Height:            r.i32(),
		ViewWidth:         r.i32(),
		ViewHeight:        r.i32(),
	}
}

func decodeFace(r *fieldReader) Face {
	var f Face
	f.PlaneNum = r.u16()
	f.Side = r.u8()
	f.OnNode = r.u8()
	f.FirstEdge = r.i32()
	f.NumEdges = r.i16()
	f.TexInfo = r.i16()
	f.DispInfo = r.i16()
	f.SurfaceFogVolumeID = r.i16()
	for i := range f.Styles {
		f.Styles[i] = r.u8()
	}
	f.LightOfs = r.i32()
	f.Area = r.f32()
	f.LightmapMins = [2]int32{r.i32(), r.i32()}
	f.LightmapSize = [2]int32{r.i32(), r.i32()}
	f.OrigFace = r.i32()
	f.NumPrims = r.u16()
	f.FirstPrimID = r.u16()
	f.SmoothingGroups = r.u32()
	return f
}

func decodeDispInfo(r *fieldReader) DispInfo {
	var d DispInfo
	d.StartPosition = r.vec3()
	d.DispVertStart = r.i32()
	d.DispTriStart = r.i32()
	d.Power = r.i32()
	d.MinTess = r.i32()
	d.SmoothingAngle = r.f32()
	d.Contents = r.i32()
	d.MapFace = r.u16()
	r.skip(2)
	d.LightmapAlphaStart = r.i32()
	d.LightmapSamplePositionStart = r.i32()
	for i := range d.EdgeNeighbors {
		for j := range d.EdgeNeighbors[i] {
			d.EdgeNeighbors[i][j] = DispSubNeighbor{
				Neighbor:            r.u16(),
				NeighborOrientation: r.u8(),
				Span:                r.u8(),
				NeighborSpan:        r.u8(),
			}
			r.skip(1)
		}
	}
	for i := range d.CornerNeighbors {
		for j := range d.CornerNeighbors[i].Neighbors {
			d.CornerNeighbors[i].Neighbors[j] = r.u16()
		}
		d.CornerNeighbors[i].NNeighbors = r.u8()
		r.skip(1)
	}
	for i := range d.AllowedVerts {
		d.AllowedVerts[i] = r.u32()
	}
	return d
}

func decodeDispVert(r *fieldReader) DispVert {
	return DispVert{Vector: r.vec3(), Dist: r.f32(), Alpha: r.f32()}
}

// Package bsptest builds small in-memory VBSP files for tests.
package bsptest

import (
	"bytes"
	"encoding/binary"

	"github.com/Faultbox/vbsp-viewer/pkg/bsp"
	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// Builder accumulates lump contents and serializes them as a VBSP file.
type Builder struct {
	Magic       [4]byte
	Version     int32
	MapRevision int32

	// HDR writes faces and lighting to the HDR lumps. The LDR lumps then get
	// a copy of the faces with no lighting so both variants stay loadable.
	HDR bool

	Models      []bsp.Model
	Vertexes    []math.Vec3
	Edges       []bsp.Edge
	SurfEdges   []int32
	TexInfos    []bsp.TexInfo
	TexData     []bsp.TexData
	Faces       []bsp.Face
	DispInfos   []bsp.DispInfo
	DispVerts   []bsp.DispVert
	StringTable []int32
	StringData  []byte
	Lighting    []byte
	Entities    string
}

// New returns a Builder with the reserved edge 0 already present.
func New() *Builder {
	return &Builder{
		Magic:   [4]byte{'V', 'B', 'S', 'P'},
		Version: 20,
		Edges:   []bsp.Edge{{}},
	}
}

// AddTexture registers a material name and returns its TexData index.
func (b *Builder) AddTexture(name string, width, height int32) int32 {
	b.StringTable = append(b.StringTable, int32(len(b.StringData)))
	b.StringData = append(b.StringData, name...)
	b.StringData = append(b.StringData, 0)
	b.TexData = append(b.TexData, bsp.TexData{
		NameStringTableID: int32(len(b.StringTable) - 1),
		Width:             width,
		Height:            height,
	})
	return int32(len(b.TexData) - 1)
}

// AddTexInfo appends a TexInfo and returns its index.
func (b *Builder) AddTexInfo(ti bsp.TexInfo) int16 {
	b.TexInfos = append(b.TexInfos, ti)
	return int16(len(b.TexInfos) - 1)
}

// AddFace appends a planar face over the given polygon and returns its index.
// Odd edges are stored reversed and referenced with a negative surf-edge so
// both winding paths are exercised.
func (b *Builder) AddFace(verts []math.Vec3, texInfo int16) int {
	base := uint16(len(b.Vertexes))
	b.Vertexes = append(b.Vertexes, verts...)

	firstEdge := int32(len(b.SurfEdges))
	for i := range verts {
		a := base + uint16(i)
		c := base + uint16((i+1)%len(verts))
		idx := int32(len(b.Edges))
		if i%2 == 0 {
			b.Edges = append(b.Edges, bsp.Edge{V: [2]uint16{a, c}})
			b.SurfEdges = append(b.SurfEdges, idx)
		} else {
			b.Edges = append(b.Edges, bsp.Edge{V: [2]uint16{c, a}})
			b.SurfEdges = append(b.SurfEdges, -idx)
		}
	}

	b.Faces = append(b.Faces, bsp.Face{
		FirstEdge: firstEdge,
		NumEdges:  int16(len(verts)),
		TexInfo:   texInfo,
		DispInfo:  -1,
		LightOfs:  -1,
	})
	return len(b.Faces) - 1
}

// AddDisplacement turns a four-sided face into a displacement of the given power.
// offset returns the direction and distance for grid vertex (row, col).
func (b *Builder) AddDisplacement(face int, power int32, start math.Vec3, offset func(row, col int) (math.Vec3, float32)) int16 {
	n := 1<<uint(power) + 1
	d := bsp.DispInfo{
		StartPosition: start,
		DispVertStart: int32(len(b.DispVerts)),
		Power:         power,
		MapFace:       uint16(face),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var dir math.Vec3
			var dist float32
			if offset != nil {
				dir, dist = offset(i, j)
			}
			b.DispVerts = append(b.DispVerts, bsp.DispVert{Vector: dir, Dist: dist})
		}
	}
	b.DispInfos = append(b.DispInfos, d)
	idx := int16(len(b.DispInfos) - 1)
	b.Faces[face].DispInfo = idx
	return idx
}

// SetLightmap attaches lighting samples to a face. len(luxels) must be
// (sizeU+1)*(sizeV+1).
func (b *Builder) SetLightmap(face int, mins, size [2]int32, luxels []bsp.ColorRGBExp32) {
	b.Faces[face].LightOfs = int32(len(b.Lighting))
	b.Faces[face].LightmapMins = mins
	b.Faces[face].LightmapSize = size
	for _, l := range luxels {
		b.Lighting = append(b.Lighting, l.R, l.G, l.B, byte(l.Exponent))
	}
}

// AddModel appends a model covering faces [first, first+num).
func (b *Builder) AddModel(first, num int32) int {
	b.Models = append(b.Models, bsp.Model{FirstFace: first, NumFaces: num})
	return len(b.Models) - 1
}

// Bytes serializes the file: header first, then each lump in directory order.
func (b *Builder) Bytes() []byte {
	lumps := map[int][]byte{
		bsp.LumpEntities:           []byte(b.Entities),
		bsp.LumpModels:             encode(b.Models, putModel),
		bsp.LumpVertexes:           encode(b.Vertexes, putVec3),
		bsp.LumpEdges:              encode(b.Edges, putEdge),
		bsp.LumpSurfEdges:          encode(b.SurfEdges, putInt32),
		bsp.LumpTexInfo:            encode(b.TexInfos, putTexInfo),
		bsp.LumpTexData:            encode(b.TexData, putTexData),
		bsp.LumpDispInfo:           encode(b.DispInfos, putDispInfo),
		bsp.LumpDispVerts:          encode(b.DispVerts, putDispVert),
		bsp.LumpTexDataStringTable: encode(b.StringTable, putInt32),
		bsp.LumpTexDataStringData:  b.StringData,
	}
	if b.HDR {
		unlit := make([]bsp.Face, len(b.Faces))
		for i, f := range b.Faces {
			f.LightOfs = -1
			unlit[i] = f
		}
		lumps[bsp.LumpFaces] = encode(unlit, putFace)
		lumps[bsp.LumpFacesHDR] = encode(b.Faces, putFace)
		lumps[bsp.LumpLightingHDR] = b.Lighting
	} else {
		lumps[bsp.LumpFaces] = encode(b.Faces, putFace)
		lumps[bsp.LumpLighting] = b.Lighting
	}

	var body bytes.Buffer
	var dir [bsp.HeaderLumps]bsp.Lump
	for id := 0; id < bsp.HeaderLumps; id++ {
		data := lumps[id]
		if len(data) == 0 {
			continue
		}
		dir[id] = bsp.Lump{Offset: int32(bsp.HeaderSize + body.Len()), Length: int32(len(data))}
		body.Write(data)
		// Lumps start on 4-byte boundaries in compiled maps.
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer
	out.Write(b.Magic[:])
	binary.Write(&out, binary.LittleEndian, b.Version)
	binary.Write(&out, binary.LittleEndian, dir)
	binary.Write(&out, binary.LittleEndian, b.MapRevision)
	out.Write(body.Bytes())
	return out.Bytes()
}

func encode[T any](items []T, put func(*bytes.Buffer, T)) []byte {
	var buf bytes.Buffer
	for _, it := range items {
		put(&buf, it)
	}
	return buf.Bytes()
}

func write(buf *bytes.Buffer, fields ...any) {
	for _, f := range fields {
		binary.Write(buf, binary.LittleEndian, f)
	}
}

func putVec3(buf *bytes.Buffer, v math.Vec3) { write(buf, v.X, v.Y, v.Z) }

func putInt32(buf *bytes.Buffer, v int32) { write(buf, v) }

func putEdge(buf *bytes.Buffer, e bsp.Edge) { write(buf, e.V) }

func putModel(buf *bytes.Buffer, m bsp.Model) {
	putVec3(buf, m.Mins)
	putVec3(buf, m.Maxs)
	putVec3(buf, m.Origin)
	write(buf, m.HeadNode, m.FirstFace, m.NumFaces)
}

func putTexAxis(buf *bytes.Buffer, a bsp.TexAxis) {
	putVec3(buf, a.Axis)
	write(buf, a.Offset)
}

func putTexInfo(buf *bytes.Buffer, t bsp.TexInfo) {
	putTexAxis(buf, t.TextureU)
	putTexAxis(buf, t.TextureV)
	putTexAxis(buf, t.LightmapU)
	putTexAxis(buf, t.LightmapV)
	write(buf, t.Flags, t.TexData)
}

func putTexData(buf *bytes.Buffer, t bsp.TexData) {
	putVec3(buf, t.Reflectivity)
	write(buf, t.NameStringTableID, t.Width, t.Height, t.ViewWidth, t.ViewHeight)
}

func putFace(buf *bytes.Buffer, f bsp.Face) {
	write(buf,
		f.PlaneNum, f.Side, f.OnNode, f.FirstEdge,
		f.NumEdges, f.TexInfo, f.DispInfo, f.SurfaceFogVolumeID,
		f.Styles, f.LightOfs, f.Area, f.LightmapMins, f.LightmapSize,
		f.OrigFace, f.NumPrims, f.FirstPrimID, f.SmoothingGroups,
	)
}

func putDispInfo(buf *bytes.Buffer, d bsp.DispInfo) {
	putVec3(buf, d.StartPosition)
	write(buf, d.DispVertStart, d.DispTriStart, d.Power, d.MinTess, d.SmoothingAngle, d.Contents, d.MapFace)
	write(buf, uint16(0))
	write(buf, d.LightmapAlphaStart, d.LightmapSamplePositionStart)
	for _, edge := range d.EdgeNeighbors {
		for _, sub := range edge {
			write(buf, sub.Neighbor, sub.NeighborOrientation, sub.Span, sub.NeighborSpan, uint8(0))
		}
	}
	for _, c := range d.CornerNeighbors {
		write(buf, c.Neighbors, c.NNeighbors, uint8(0))
	}
	write(buf, d.AllowedVerts)
}

func putDispVert(buf *bytes.Buffer, v bsp.DispVert) {
	putVec3(buf, v.Vector)
	write(buf, v.Dist, v.Alpha)
}

package bsp

import (
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/vbsp-viewer/pkg/encoding"
	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// LoadOptions selects which variant of the lighting data is read.
type LoadOptions struct {
	// HDR reads the HDR lighting and face lumps instead of the LDR ones.
	HDR bool
}

// File holds the lumps needed to rebuild a map's geometry.
// A File is owned by a single load and is not safe for concurrent mutation.
type File struct {
	Header *Header
	HDR    bool

	Models      []Model
	Vertexes    []math.Vec3
	Edges       []Edge
	SurfEdges   []int32
	TexInfos    []TexInfo
	TexData     []TexData
	Faces       []Face
	DispInfos   []DispInfo
	DispVerts   []DispVert
	StringTable []int32
	StringData  []byte
	Lighting    []byte
	Entities    []byte
}

// Open reads a VBSP file from disk. The file is closed before Open returns.
func Open(path string, opts LoadOptions) (*File, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	defer fp.Close()

	f, err := Read(fp, opts)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	return f, nil
}

// Read reads a VBSP file from r.
func Read(r io.ReaderAt, opts LoadOptions) (*File, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	f := &File{Header: h, HDR: opts.HDR}

	lightingLump, facesLump := LumpLighting, LumpFaces
	if opts.HDR {
		lightingLump, facesLump = LumpLightingHDR, LumpFacesHDR
	}

	lumps := []struct {
		id   int
		load func([]byte)
	}{
		{LumpModels, func(b []byte) { f.Models = decodeRecords(b, modelSize, decodeModel) }},
		{lightingLump, func(b []byte) { f.Lighting = b }},
		{LumpEntities, func(b []byte) { f.Entities = b }},
		{LumpVertexes, func(b []byte) { f.Vertexes = decodeRecords(b, vertexSize, decodeVertex) }},
		{LumpTexInfo, func(b []byte) { f.TexInfos = decodeRecords(b, texInfoSize, decodeTexInfo) }},
		{LumpTexData, func(b []byte) { f.TexData = decodeRecords(b, texDataSize, decodeTexData) }},
		{LumpDispInfo, func(b []byte) { f.DispInfos = decodeRecords(b, dispInfoSize, decodeDispInfo) }},
		{LumpDispVerts, func(b []byte) { f.DispVerts = decodeRecords(b, dispVertSize, decodeDispVert) }},
		{facesLump, func(b []byte) { f.Faces = decodeRecords(b, faceSize, decodeFace) }},
		{LumpEdges, func(b []byte) { f.Edges = decodeRecords(b, edgeSize, decodeEdge) }},
		{LumpSurfEdges, func(b []byte) { f.SurfEdges = decodeRecords(b, surfEdgeSize, decodeInt32) }},
		{LumpTexDataStringData, func(b []byte) { f.StringData = b }},
		{LumpTexDataStringTable, func(b []byte) { f.StringTable = decodeRecords(b, stringRefSize, decodeInt32) }},
	}

	for _, l := range lumps {
		data, err := h.readLump(r, l.id)
		if err != nil {
			return nil, err
		}
		l.load(data)
	}

	return f, nil
}

// TextureName returns the material name referenced by a TexData entry.
func (f *File) TextureName(texData int) string {
	td := f.TexData[texData]
	if int(td.NameStringTableID) >= len(f.StringTable) {
		return ""
	}
	off := int(f.StringTable[td.NameStringTableID])
	if off < 0 || off >= len(f.StringData) {
		return ""
	}
	return encoding.CString(f.StringData[off:])
}

// ModelFaces returns the face index range [first, end) of a model.
func (f *File) ModelFaces(model int) (first, end int) {
	m := f.Models[model]
	return int(m.FirstFace), int(m.FirstFace + m.NumFaces)
}

// String summarizes the loaded lumps.
func (f *File) String() string {
	return fmt.Sprintf("VBSP v%d rev %d: %d models, %d faces, %d vertexes, %d texinfo, %d dispinfo, %d bytes lighting",
		f.Header.Version, f.Header.MapRevision, len(f.Models), len(f.Faces), len(f.Vertexes),
		len(f.TexInfos), len(f.DispInfos), len(f.Lighting))
}

// Package bsp reads Source engine VBSP map files and rebuilds renderable surfaces from them.
//
// All multi-byte fields are little-endian. Records are decoded field by field so the
// layout never depends on Go struct padding.
package bsp

import (
	"errors"
	"fmt"

	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

// Ident is the little-endian encoding of "VBSP".
const Ident = 'V' | 'B'<<8 | 'S'<<16 | 'P'<<24

// HeaderLumps is the number of entries in the lump directory.
const HeaderLumps = 64

// WorldScale converts map units (inches) to meters.
const WorldScale = 0.0254

// Lump identifiers.
const (
	LumpEntities                    = 0
	LumpPlanes                      = 1
	LumpTexData                     = 2
	LumpVertexes                    = 3
	LumpVisibility                  = 4
	LumpNodes                       = 5
	LumpTexInfo                     = 6
	LumpFaces                       = 7
	LumpLighting                    = 8
	LumpOcclusion                   = 9
	LumpLeafs                       = 10
	LumpFaceIDs                     = 11
	LumpEdges                       = 12
	LumpSurfEdges                   = 13
	LumpModels                      = 14
	LumpWorldLights                 = 15
	LumpLeafFaces                   = 16
	LumpLeafBrushes                 = 17
	LumpBrushes                     = 18
	LumpBrushSides                  = 19
	LumpAreas                       = 20
	LumpAreaPortals                 = 21
	LumpDispInfo                    = 26
	LumpOriginalFaces               = 27
	LumpPhysDisp                    = 28
	LumpPhysCollide                 = 29
	LumpVertNormals                 = 30
	LumpVertNormalIndices           = 31
	LumpDispLightmapAlphas          = 32
	LumpDispVerts                   = 33
	LumpDispLightmapSamplePositions = 34
	LumpGameLump                    = 35
	LumpLeafWaterData               = 36
	LumpPrimitives                  = 37
	LumpPrimVerts                   = 38
	LumpPrimIndices                 = 39
	LumpPakFile                     = 40
	LumpClipPortalVerts             = 41
	LumpCubemaps                    = 42
	LumpTexDataStringData           = 43
	LumpTexDataStringTable          = 44
	LumpOverlays                    = 45
	LumpLeafMinDistToWater          = 46
	LumpFaceMacroTextureInfo        = 47
	LumpDispTris                    = 48
	LumpPhysCollideSurface          = 49
	LumpWaterOverlays               = 50
	LumpLeafAmbientIndexHDR         = 51
	LumpLeafAmbientIndex            = 52
	LumpLightingHDR                 = 53
	LumpWorldLightsHDR              = 54
	LumpLeafAmbientLightingHDR      = 55
	LumpLeafAmbientLighting         = 56
	LumpXZipPakFile                 = 57
	LumpFacesHDR                    = 58
	LumpMapFlags                    = 59
	LumpOverlayFades                = 60
)

var lumpNames = map[int]string{
	LumpEntities:                    "entities",
	LumpPlanes:                      "planes",
	LumpTexData:                     "texdata",
	LumpVertexes:                    "vertexes",
	LumpVisibility:                  "visibility",
	LumpNodes:                       "nodes",
	LumpTexInfo:                     "texinfo",
	LumpFaces:                       "faces",
	LumpLighting:                    "lighting",
	LumpOcclusion:                   "occlusion",
	LumpLeafs:                       "leafs",
	LumpFaceIDs:                     "faceids",
	LumpEdges:                       "edges",
	LumpSurfEdges:                   "surfedges",
	LumpModels:                      "models",
	LumpWorldLights:                 "worldlights",
	LumpLeafFaces:                   "leaffaces",
	LumpLeafBrushes:                 "leafbrushes",
	LumpBrushes:                     "brushes",
	LumpBrushSides:                  "brushsides",
	LumpAreas:                       "areas",
	LumpAreaPortals:                 "areaportals",
	LumpDispInfo:                    "dispinfo",
	LumpOriginalFaces:               "originalfaces",
	LumpPhysDisp:                    "physdisp",
	LumpPhysCollide:                 "physcollide",
	LumpVertNormals:                 "vertnormals",
	LumpVertNormalIndices:           "vertnormalindices",
	LumpDispLightmapAlphas:          "displightmapalphas",
	LumpDispVerts:                   "dispverts",
	LumpDispLightmapSamplePositions: "displightmapsamplepositions",
	LumpGameLump:                    "gamelump",
	LumpLeafWaterData:               "leafwaterdata",
	LumpPrimitives:                  "primitives",
	LumpPrimVerts:                   "primverts",
	LumpPrimIndices:                 "primindices",
	LumpPakFile:                     "pakfile",
	LumpClipPortalVerts:             "clipportalverts",
	LumpCubemaps:                    "cubemaps",
	LumpTexDataStringData:           "texdata_string_data",
	LumpTexDataStringTable:          "texdata_string_table",
	LumpOverlays:                    "overlays",
	LumpLeafMinDistToWater:          "leafmindisttowater",
	LumpFaceMacroTextureInfo:        "face_macro_texture_info",
	LumpDispTris:                    "disptris",
	LumpPhysCollideSurface:          "physcollidesurface",
	LumpWaterOverlays:               "wateroverlays",
	LumpLeafAmbientIndexHDR:         "leaf_ambient_index_hdr",
	LumpLeafAmbientIndex:            "leaf_ambient_index",
	LumpLightingHDR:                 "lighting_hdr",
	LumpWorldLightsHDR:              "worldlights_hdr",
	LumpLeafAmbientLightingHDR:      "leaf_ambient_lighting_hdr",
	LumpLeafAmbientLighting:         "leaf_ambient_lighting",
	LumpXZipPakFile:                 "xzippakfile",
	LumpFacesHDR:                    "faces_hdr",
	LumpMapFlags:                    "map_flags",
	LumpOverlayFades:                "overlay_fades",
}

// LumpName returns a short name for a lump identifier.
func LumpName(id int) string {
	if name, ok := lumpNames[id]; ok {
		return name
	}
	return fmt.Sprintf("unused%d", id)
}

// Surface flags stored in TexInfo.Flags.
const (
	SurfLight     = 0x0001
	SurfSky2D     = 0x0002
	SurfSky       = 0x0004
	SurfWarp      = 0x0008
	SurfTrans     = 0x0010
	SurfNoPortal  = 0x0020
	SurfTrigger   = 0x0040
	SurfNoDraw    = 0x0080
	SurfHint      = 0x0100
	SurfSkip      = 0x0200
	SurfNoLight   = 0x0400
	SurfBumpLight = 0x0800
	SurfNoShadows = 0x1000
	SurfNoDecals  = 0x2000
	SurfNoChop    = 0x4000
	SurfHitbox    = 0x8000

	// SurfHidden marks faces that never produce renderable geometry.
	SurfHidden = SurfSky | SurfNoDraw | SurfHint | SurfSkip
)

// BSP format errors.
var (
	ErrInvalidMagic    = errors.New("invalid BSP magic: expected 'VBSP'")
	ErrTruncatedHeader = errors.New("truncated BSP header")
	ErrTruncatedLump   = errors.New("truncated BSP lump")
)

// FormatError reports a map file that could not be opened or is not a VBSP file.
// Loading stops at the first FormatError.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "bsp: " + e.Err.Error()
	}
	return fmt.Sprintf("bsp %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ParseError reports a malformed value in the entity lump.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("entity key %q: bad value %q: %v", e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FlipVector converts a Z-up map coordinate to the viewer's Y-up convention.
func FlipVector(v math.Vec3) math.Vec3 {
	return math.Vec3{X: v.X, Y: v.Z, Z: -v.Y}
}

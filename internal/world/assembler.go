package world

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/vbsp-viewer/internal/atlas"
	"github.com/Faultbox/vbsp-viewer/internal/engine/scene"
	"github.com/Faultbox/vbsp-viewer/pkg/bsp"
)

// ErrCorruptModel is returned when a model's geometry references data that
// does not exist in the file.
var ErrCorruptModel = errors.New("corrupt model geometry")

// Group is the combined geometry of one material within one model.
type Group struct {
	NameID   int32 // texdata string table id
	Name     string
	Faces    []int
	Surfaces int
	Mesh     *scene.Mesh
	Atlas    *atlas.Atlas
}

// Assembler builds model geometry from one parsed file.
// It is not safe for concurrent use.
type Assembler struct {
	f      *bsp.File
	packer atlas.Packer
	log    *zap.Logger
	stats  Stats
}

// NewAssembler creates an assembler for f.
func NewAssembler(f *bsp.File, opts Options) *Assembler {
	return &Assembler{f: f, packer: opts.Packer, log: opts.logger()}
}

// Stats returns a copy of the counters accumulated so far.
func (a *Assembler) Stats() *Stats {
	s := a.stats
	return &s
}

// BuildModel assembles model index into a node with one child per
// non-empty material group. An index outside the model lump yields an empty
// node and a warning.
func (a *Assembler) BuildModel(index int) (*scene.Node, error) {
	node := scene.NewNode(fmt.Sprintf("*%d", index))
	if index < 0 || index >= len(a.f.Models) {
		a.log.Warn("model index out of range",
			zap.Int("model", index),
			zap.Int("models", len(a.f.Models)),
		)
		return node, nil
	}

	groups, err := a.BuildGroups(index)
	if err != nil {
		return nil, err
	}

	for _, g := range groups {
		child := scene.NewNode(g.Name)
		child.Mesh = g.Mesh
		child.Material = &scene.Material{Name: g.Name, Lightmap: g.Atlas.Image}
		child.SetParent(node)
	}

	a.stats.Models++
	a.log.Debug("model built",
		zap.Int("model", index),
		zap.Int("groups", len(groups)),
	)
	return node, nil
}

// BuildGroups buckets a model's faces by material and builds each bucket's
// mesh and lightmap atlas. Groups come back in ascending string table id
// order; buckets left empty by hidden faces are dropped.
func (a *Assembler) BuildGroups(index int) (groups []*Group, err error) {
	saved := a.stats
	defer func() {
		if r := recover(); r != nil {
			a.stats = saved
			groups = nil
			err = fmt.Errorf("model %d: %w: %v", index, ErrCorruptModel, r)
		}
	}()

	buckets := map[int32][]int{}
	first, end := a.f.ModelFaces(index)
	for i := first; i < end; i++ {
		ti := a.f.TexInfos[a.f.Faces[i].TexInfo]
		id := a.f.TexData[ti.TexData].NameStringTableID
		buckets[id] = append(buckets[id], i)
	}

	ids := make([]int32, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		g, err := a.buildGroup(id, buckets[id])
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", index, err)
		}
		if g != nil {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// buildGroup returns nil when every face of the bucket is hidden.
func (a *Assembler) buildGroup(nameID int32, faces []int) (*Group, error) {
	var surfaces []bsp.Surface
	for _, face := range faces {
		if a.f.TexInfos[a.f.Faces[face].TexInfo].Hidden() {
			continue
		}
		surfaces = append(surfaces, a.f.BuildSurface(face))
	}
	if len(surfaces) == 0 {
		return nil, nil
	}

	name := a.f.TextureName(int(a.f.TexInfos[a.f.Faces[faces[0]].TexInfo].TexData))

	packed, err := a.packLightmaps(surfaces)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}

	mesh := &scene.Mesh{}
	for _, s := range surfaces {
		offset := uint32(len(mesh.Positions))
		for _, idx := range s.Indices {
			mesh.Indices = append(mesh.Indices, idx+offset)
		}
		mesh.Positions = append(mesh.Positions, s.Positions...)
		mesh.UV1 = append(mesh.UV1, s.UV1...)
		mesh.UV2 = append(mesh.UV2, s.UV2...)
	}

	a.stats.Groups++
	a.stats.Surfaces += len(surfaces)
	a.stats.Vertices += len(mesh.Positions)
	a.stats.Indices += len(mesh.Indices)

	return &Group{
		NameID:   nameID,
		Name:     name,
		Faces:    faces,
		Surfaces: len(surfaces),
		Mesh:     mesh,
		Atlas:    packed,
	}, nil
}

// packLightmaps packs the lightmaps of the lit surfaces and rewrites their
// UV2 into atlas space in place. Unlit surfaces keep their UV2 unchanged.
func (a *Assembler) packLightmaps(surfaces []bsp.Surface) (*atlas.Atlas, error) {
	var images []*image.RGBA
	var lit []int
	for i, s := range surfaces {
		img, ok := a.f.DecodeLightmap(s.Face)
		if !ok {
			continue
		}
		images = append(images, img)
		lit = append(lit, i)
	}

	packed, err := a.packer.Pack(images)
	if err != nil {
		return nil, err
	}

	for n, i := range lit {
		rect := packed.Rects[n]
		uv := surfaces[i].UV2
		for j := range uv {
			uv[j] = packed.RemapUV(uv[j], rect)
		}
	}
	return packed, nil
}

// Vertices returns the combined vertex count of the groups.
func Vertices(groups []*Group) int {
	n := 0
	for _, g := range groups {
		n += g.Mesh.VertexCount()
	}
	return n
}

func isParseError(err error) bool {
	var pe *bsp.ParseError
	return errors.As(err, &pe)
}

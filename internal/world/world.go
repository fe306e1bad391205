// Package world turns a parsed VBSP file into a scene graph.
//
// The root node carries the inch-to-meter scale. Each entity in the entity
// lump becomes one child of the root; entities that reference a brush model
// get that model's geometry as one child per material group.
package world

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/vbsp-viewer/internal/atlas"
	"github.com/Faultbox/vbsp-viewer/internal/engine/scene"
	"github.com/Faultbox/vbsp-viewer/internal/logger"
	"github.com/Faultbox/vbsp-viewer/pkg/bsp"
)

// Options controls how a map is loaded and assembled.
type Options struct {
	HDR bool
	// StrictEntities aborts the load on a malformed entity instead of
	// skipping it with a warning.
	StrictEntities bool
	// Packer packs each group's lightmaps. The zero value packs from 1x1 without a cap.
	Packer atlas.Packer
	// Logger defaults to the "world" child of the global logger.
	Logger *zap.Logger
}

// DefaultOptions returns LDR, lenient loading with the default atlas packer.
func DefaultOptions() Options {
	return Options{Packer: atlas.DefaultPacker}
}

// Stats counts what a load produced.
type Stats struct {
	Entities        int
	Models          int
	Groups          int
	Surfaces        int
	Vertices        int
	Indices         int
	SkippedEntities int
}

// Load reads the map at path and assembles it.
func Load(path string, opts Options) (*scene.Node, *Stats, error) {
	start := time.Now()
	f, err := bsp.Open(path, bsp.LoadOptions{HDR: opts.HDR})
	if err != nil {
		return nil, nil, err
	}

	log := opts.logger()
	log.Info("map read",
		zap.String("path", path),
		zap.Int32("version", f.Header.Version),
		zap.Bool("hdr", opts.HDR),
		zap.Int("faces", len(f.Faces)),
		zap.Int("models", len(f.Models)),
		zap.Duration("elapsed", time.Since(start)),
	)

	root, stats, err := Build(f, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	root.Name = filepath.Base(path)

	log.Info("map assembled",
		zap.String("path", path),
		zap.Int("entities", stats.Entities),
		zap.Int("skipped_entities", stats.SkippedEntities),
		zap.Int("groups", stats.Groups),
		zap.Int("vertices", stats.Vertices),
		zap.Duration("elapsed", time.Since(start)),
	)
	return root, stats, nil
}

// Build assembles an already parsed file. f is not modified.
func Build(f *bsp.File, opts Options) (*scene.Node, *Stats, error) {
	a := NewAssembler(f, opts)

	root := scene.NewNode("map")
	root.SetUniformScale(bsp.WorldScale)

	for i, ent := range bsp.ParseEntities(f.Entities) {
		node, err := a.buildEntity(ent)
		if err != nil {
			if !opts.StrictEntities && isParseError(err) {
				a.stats.SkippedEntities++
				a.log.Warn("skipping entity",
					zap.Int("index", i),
					zap.String("classname", ent.ClassName()),
					zap.Error(err),
				)
				continue
			}
			return nil, nil, fmt.Errorf("entity %d (%s): %w", i, ent.ClassName(), err)
		}
		node.SetParent(root)
		a.stats.Entities++
	}

	return root, a.Stats(), nil
}

// buildEntity creates the node for one entity, including its model geometry.
func (a *Assembler) buildEntity(ent bsp.Entity) (*scene.Node, error) {
	index, hasModel, err := ent.ModelIndex()
	if err != nil {
		return nil, err
	}
	pos, hasOrigin, err := ent.Origin()
	if err != nil {
		return nil, err
	}

	var node *scene.Node
	if hasModel {
		if node, err = a.BuildModel(index); err != nil {
			return nil, err
		}
	} else {
		node = scene.NewNode("")
	}
	node.Name = entityName(ent)

	if hasOrigin {
		node.SetPosition(pos)
	}
	return node, nil
}

func entityName(ent bsp.Entity) string {
	if name := ent["targetname"]; name != "" {
		return ent.ClassName() + ":" + name
	}
	return ent.ClassName()
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.Named("world")
}

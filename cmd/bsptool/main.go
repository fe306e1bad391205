// bsptool is a CLI utility for inspecting VBSP map files.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/Faultbox/vbsp-viewer/internal/engine/debug"
	"github.com/Faultbox/vbsp-viewer/internal/world"
	"github.com/Faultbox/vbsp-viewer/pkg/bsp"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "entities", "ents":
		cmdEntities(args)
	case "models":
		cmdModels(args)
	case "atlas":
		cmdAtlas(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bsptool - VBSP map file utility

Usage:
  bsptool <command> [options]

Commands:
  info <file.bsp>                          Show header and lump table
  entities <file.bsp>                      Dump the entity lump
  models <file.bsp> [-hdr]                 Show material groups per model
  atlas <file.bsp> <model> <outdir>        Export lightmap atlases of a model
        [-format png|bmp|tga|webp] [-hdr]

Examples:
  bsptool info de_dust2.bsp
  bsptool models de_dust2.bsp -hdr
  bsptool atlas de_dust2.bsp 0 ./atlases -format webp`)
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments and returns the positionals.
func parseInterspersed(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		fs.Parse(args)
		args = fs.Args()
		if len(args) == 0 {
			return positional
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bsptool info <file.bsp>")
		os.Exit(1)
	}

	fp, err := os.Open(args[0])
	if err != nil {
		fatal(err)
	}
	defer fp.Close()

	h, err := bsp.ReadHeader(fp)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("File:     %s\n", args[0])
	fmt.Printf("Version:  %d\n", h.Version)
	fmt.Printf("Revision: %d\n", h.MapRevision)
	fmt.Println()
	fmt.Println("Lumps:")
	fmt.Printf("  %-3s %-24s %10s %10s %4s\n", "id", "name", "offset", "length", "ver")
	for _, l := range h.LumpInfo() {
		fmt.Printf("  %-3d %-24s %10d %10d %4d\n", l.ID, l.Name, l.Offset, l.Length, l.Version)
	}
}

func cmdEntities(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bsptool entities <file.bsp>")
		os.Exit(1)
	}

	f, err := bsp.Open(args[0], bsp.LoadOptions{})
	if err != nil {
		fatal(err)
	}

	for i, ent := range bsp.ParseEntities(f.Entities) {
		fmt.Printf("[%d] %s\n", i, ent.ClassName())
		keys := make([]string, 0, len(ent))
		for k := range ent {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Printf("  %-20s %s\n", k, ent[k])
		}
	}
}

func cmdModels(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	hdr := fs.Bool("hdr", false, "Use HDR lighting lumps")
	positional := parseInterspersed(fs, args)

	if len(positional) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bsptool models <file.bsp> [-hdr]")
		os.Exit(1)
	}

	f, err := bsp.Open(positional[0], bsp.LoadOptions{HDR: *hdr})
	if err != nil {
		fatal(err)
	}

	opts := world.DefaultOptions()
	opts.HDR = *hdr
	asm := world.NewAssembler(f, opts)

	for m := range f.Models {
		groups, err := asm.BuildGroups(m)
		if err != nil {
			fmt.Printf("*%d: %v\n", m, err)
			continue
		}
		first, end := f.ModelFaces(m)
		fmt.Printf("*%d: %d faces, %d groups, %d vertices\n", m, end-first, len(groups), world.Vertices(groups))
		for _, g := range groups {
			fmt.Printf("  %-40s faces=%-4d surfaces=%-4d verts=%-6d tris=%-6d atlas=%dx%d\n",
				g.Name, len(g.Faces), g.Surfaces, g.Mesh.VertexCount(), len(g.Mesh.Indices)/3,
				g.Atlas.Width(), g.Atlas.Height())
		}
	}

	s := asm.Stats()
	fmt.Println()
	fmt.Printf("Total: %d groups, %d surfaces, %d vertices, %d indices\n", s.Groups, s.Surfaces, s.Vertices, s.Indices)
}

func cmdAtlas(args []string) {
	fs := flag.NewFlagSet("atlas", flag.ExitOnError)
	format := fs.String("format", "png", "Output format: png, bmp, tga or webp")
	hdr := fs.Bool("hdr", false, "Use HDR lighting lumps")
	positional := parseInterspersed(fs, args)

	if len(positional) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: bsptool atlas <file.bsp> <model> <outdir> [-format png|bmp|tga|webp] [-hdr]")
		os.Exit(1)
	}

	model, err := strconv.Atoi(positional[1])
	if err != nil {
		fatal(fmt.Errorf("invalid model index %q", positional[1]))
	}

	f, err := bsp.Open(positional[0], bsp.LoadOptions{HDR: *hdr})
	if err != nil {
		fatal(err)
	}
	if model < 0 || model >= len(f.Models) {
		fatal(fmt.Errorf("model %d out of range (map has %d)", model, len(f.Models)))
	}

	opts := world.DefaultOptions()
	opts.HDR = *hdr
	groups, err := world.NewAssembler(f, opts).BuildGroups(model)
	if err != nil {
		fatal(err)
	}

	exporter := debug.NewExporter(positional[2], *format)
	for _, g := range groups {
		path, err := exporter.Save(fmt.Sprintf("model%d_%s", model, g.Name), g.Atlas.Image)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s (%dx%d, %d lightmaps)\n", path, g.Atlas.Width(), g.Atlas.Height(), len(g.Atlas.Rects))
	}
	fmt.Fprintf(os.Stderr, "\n(%d atlases written)\n", len(groups))
}

// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MapVertexShader transforms map geometry and passes both UV channels through.
//
//go:embed map.vert
var MapVertexShader string

// MapFragmentShader samples the lightmap atlas.
//
//go:embed map.frag
var MapFragmentShader string

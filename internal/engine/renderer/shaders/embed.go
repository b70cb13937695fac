// Package shaders embeds the GLSL sources used by the gpu package.
package shaders

import _ "embed"

//go:embed object.vert
var ObjectVertexShader string

//go:embed object.frag
var ObjectFragmentShader string

//go:embed material.vert
var MaterialVertexShader string

//go:embed material.frag
var MaterialFragmentShader string

//go:embed line.vert
var LineVertexShader string

//go:embed line.frag
var LineFragmentShader string

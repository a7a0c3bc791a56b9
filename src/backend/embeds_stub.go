//go:build !embed
// +build !embed

package main

import "embed"

// Stub for builds without the embed tag. The FS is empty, so the model
// directory from the configuration is used as is.
var modelFiles embed.FS

const modelRoot = "model/quantized"

package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/raycore/asset"
	"github.com/achilleasa/raycore/bvh"
	"github.com/achilleasa/raycore/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file. Meshes that use a BVH are built with bvhOpts.
func ReadScene(filename string, bvhOpts bvh.Options) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(filename, ".obj") {
		reader = NewWavefrontReader(bvhOpts)
	} else {
		return nil, fmt.Errorf("readScene: unsupported file format")
	}
	return reader.Read(res)
}

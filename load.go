// Package mesh3 loads triangle meshes from text and STL files into flat
// vertex and index buffers ready for GPU upload.
//
// The text format is line oriented:
//
//	v  x y z     vertex position
//	vn x y z     vertex normal, paired with the vertex of the same position
//	f  i j k     triangle of 1-based vertex references
//
// Any other line is ignored. Malformed lines are skipped and reported in
// [Diagnostics] rather than failing the load.
package mesh3

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Load reads the mesh at path. Files with the .stl extension are read as
// binary STL, everything else as the text format. The returned error is
// non-nil only if the file could not be opened or read, in which case no
// mesh is returned.
func Load(path string) (Buffers, Diagnostics, error) {
	fp, err := os.Open(path)
	if err != nil {
		return Buffers{}, Diagnostics{}, fmt.Errorf("mesh3: %w", err)
	}
	defer fp.Close()
	if strings.EqualFold(filepath.Ext(path), ".stl") {
		return loadSTL(fp, path)
	}
	b, diag, err := Decode(fp)
	if err != nil {
		return Buffers{}, Diagnostics{}, fmt.Errorf("mesh3: reading %s: %w", path, err)
	}
	logger().Debug("loaded mesh", "path", path, "vertices", len(b.Vertices),
		"indices", len(b.Indices), "skipped", diag.Skipped())
	return b, diag, nil
}

// Decode reads a text mesh from r until EOF.
func Decode(r io.Reader) (Buffers, Diagnostics, error) {
	var bld Builder
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			bld.AddLine(line)
		}
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return Buffers{}, Diagnostics{}, err
		}
	}
	b, diag := bld.Build()
	return b, diag, nil
}

func loadSTL(r io.Reader, path string) (Buffers, Diagnostics, error) {
	b, err := ReadBinarySTL(r)
	if errors.Is(err, ErrNormalMismatch) {
		logger().Warn("STL facet normals differ from winding", "path", path)
	} else if err != nil {
		return Buffers{}, Diagnostics{}, fmt.Errorf("mesh3: reading %s: %w", path, err)
	}
	diag := Diagnostics{
		RawVertices: len(b.Vertices),
		RawNormals:  len(b.Vertices),
	}
	return b, diag, nil
}

// Package exporter encodes generated meshes as Wavefront OBJ so build
// artifacts can be stored and inspected with standard tooling.
package exporter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/immersivekit/meshgen/pkg/models"
)

// EncodeOBJ writes the mesh to w in Wavefront OBJ format. The placement is
// not baked into the vertices; it is emitted as comments so the consuming
// side can apply it as a transform.
func EncodeOBJ(w io.Writer, name string, mesh *models.GeneratedMesh) error {
	if len(mesh.Normals) != len(mesh.Positions) || len(mesh.UVs) != len(mesh.Positions) {
		return fmt.Errorf("misaligned vertex buffers: %d positions, %d normals, %d uvs",
			len(mesh.Positions), len(mesh.Normals), len(mesh.UVs))
	}
	if len(mesh.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a triangle list", len(mesh.Indices))
	}

	bw := bufio.NewWriter(w)

	p := mesh.Placement
	fmt.Fprintf(bw, "o %s\n", name)
	fmt.Fprintf(bw, "# scale %g %g %g\n", p.Scale.X(), p.Scale.Y(), p.Scale.Z())
	fmt.Fprintf(bw, "# rotation axis %g %g %g angle %g\n",
		p.RotationAxis.X(), p.RotationAxis.Y(), p.RotationAxis.Z(), p.RotationAngle)
	fmt.Fprintf(bw, "# translation %g %g %g\n",
		p.Translation.X(), p.Translation.Y(), p.Translation.Z())

	for _, v := range mesh.Positions {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X(), v.Y(), v.Z())
	}
	for _, vt := range mesh.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", vt.X(), vt.Y())
	}
	for _, vn := range mesh.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", vn.X(), vn.Y(), vn.Z())
	}

	// OBJ indices are 1-based.
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i]+1, mesh.Indices[i+1]+1, mesh.Indices[i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	return bw.Flush()
}

// OBJBytes encodes the mesh into an in-memory OBJ document.
func OBJBytes(name string, mesh *models.GeneratedMesh) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeOBJ(&buf, name, mesh); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package exporter

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immersivekit/meshgen/pkg/models"
)

func quadMesh() *models.GeneratedMesh {
	up := mgl32.Vec3{0, 1, 0}
	return &models.GeneratedMesh{
		Positions: []mgl32.Vec3{
			{-0.5, 0, -0.5}, {0.5, 0, -0.5}, {-0.5, 0, 0.5}, {0.5, 0, 0.5},
		},
		Normals: []mgl32.Vec3{up, up, up, up},
		UVs: []mgl32.Vec2{
			{0, 0}, {1, 0}, {0, 1}, {1, 1},
		},
		Indices: []uint32{0, 2, 1, 1, 2, 3},
		Placement: models.Placement{
			Scale:         mgl32.Vec3{100, 1, 100},
			RotationAxis:  mgl32.Vec3{1, 0, 0},
			RotationAngle: 1.5707964,
			Translation:   mgl32.Vec3{0, 0, -50},
		},
	}
}

func TestEncodeOBJ(t *testing.T) {
	data, err := OBJBytes("video-plane", quadMesh())
	require.NoError(t, err)

	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, "o video-plane", lines[0])
	assert.Contains(t, out, "v -0.5 0 -0.5\n")
	assert.Contains(t, out, "vt 1 1\n")
	assert.Contains(t, out, "vn 0 1 0\n")
	// 1-based face indices
	assert.Contains(t, out, "f 1/1/1 3/3/3 2/2/2\n")
	assert.Contains(t, out, "f 2/2/2 3/3/3 4/4/4\n")
	// placement travels as comments
	assert.Contains(t, out, "# translation 0 0 -50\n")

	var v, vt, vn, f int
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "v "):
			v++
		case strings.HasPrefix(line, "vt "):
			vt++
		case strings.HasPrefix(line, "vn "):
			vn++
		case strings.HasPrefix(line, "f "):
			f++
		}
	}
	assert.Equal(t, 4, v)
	assert.Equal(t, 4, vt)
	assert.Equal(t, 4, vn)
	assert.Equal(t, 2, f)
}

func TestEncodeOBJMisalignedBuffers(t *testing.T) {
	mesh := quadMesh()
	mesh.Normals = mesh.Normals[:3]

	_, err := OBJBytes("broken", mesh)
	assert.Error(t, err)
}

func TestEncodeOBJNonTriangleIndices(t *testing.T) {
	mesh := quadMesh()
	mesh.Indices = mesh.Indices[:5]

	_, err := OBJBytes("broken", mesh)
	assert.Error(t, err)
}

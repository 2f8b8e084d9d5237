package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoSphereGridProperties(t *testing.T) {
	tests := []struct {
		name     string
		clipHFov float32
		slices   int
	}{
		{"full wrap", 360, 120},
		{"half wrap", 180, 60},
		{"narrow clip", 65, 21},
		{"minimum tessellation", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := videoSphere(sphereParams{
				radius:           DefaultSphereRadius,
				sourceHFov:       360,
				sourceVFov:       180,
				clipHFov:         tt.clipHFov,
				clipVFov:         180,
				verticalSlices:   DefaultVerticalSlices,
				horizontalSlices: tt.slices,
			})
			require.NoError(t, err)

			nVtx := (DefaultVerticalSlices + 1) * (tt.slices + 1)
			assert.Equal(t, nVtx, len(mesh.Positions))
			assert.Equal(t, nVtx, len(mesh.Normals))
			assert.Equal(t, nVtx, len(mesh.UVs))
			assert.Equal(t, 6*DefaultVerticalSlices*tt.slices, len(mesh.Indices))

			for _, idx := range mesh.Indices {
				assert.Less(t, idx, uint32(nVtx))
			}

			// Every vertex sits on the sphere surface.
			for _, p := range mesh.Positions {
				assert.InDelta(t, DefaultSphereRadius, p.Len(), 0.5)
			}
		})
	}
}

func TestVideoSphereRejectsDegenerateSlices(t *testing.T) {
	_, err := videoSphere(sphereParams{
		radius:           DefaultSphereRadius,
		sourceHFov:       360,
		sourceVFov:       180,
		clipHFov:         180,
		clipVFov:         180,
		verticalSlices:   0,
		horizontalSlices: 60,
	})
	assert.ErrorIs(t, err, ErrDegenerateMesh)

	_, err = videoSphere(sphereParams{
		radius:           -1,
		sourceHFov:       360,
		sourceVFov:       180,
		clipHFov:         180,
		clipVFov:         180,
		verticalSlices:   DefaultVerticalSlices,
		horizontalSlices: 60,
	})
	assert.ErrorIs(t, err, ErrDegenerateMesh)
}

package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/immersivekit/meshgen/pkg/models"
)

// sphereParams describes a clipped UV sphere. Source FOVs are the angular
// window encoded in the video frame; clip FOVs are the angular window
// actually displayed. Their ratio drives UV sub-sampling, so a clip can
// show a sub-rectangle of a frame that encodes a wider sweep.
type sphereParams struct {
	radius                 float32
	sourceHFov, sourceVFov float32
	clipHFov, clipVFov     float32
	verticalSlices         int
	horizontalSlices       int
}

// videoSphere generates a partial or full UV sphere viewed from its
// interior. A partial sphere is produced by compressing and re-centering
// the angular sweep rather than generating a full sphere and cropping it.
func videoSphere(p sphereParams) (*models.GeneratedMesh, error) {
	if p.verticalSlices < 1 || p.horizontalSlices < 1 {
		return nil, fmt.Errorf("%w: %dx%d slices", ErrDegenerateMesh,
			p.verticalSlices, p.horizontalSlices)
	}
	if p.radius <= 0 {
		return nil, fmt.Errorf("%w: radius %v", ErrDegenerateMesh, p.radius)
	}
	if p.clipHFov <= 0 || p.clipHFov > 360 || p.clipVFov <= 0 || p.clipVFov > 180 {
		return nil, fmt.Errorf("%w: clip fov %vx%v", ErrDegenerateMesh,
			p.clipHFov, p.clipVFov)
	}

	nVtx := (p.verticalSlices + 1) * (p.horizontalSlices + 1)
	positions := make([]mgl32.Vec3, 0, nVtx)
	normals := make([]mgl32.Vec3, 0, nVtx)
	uvs := make([]mgl32.Vec2, 0, nVtx)
	indices := make([]uint32, 0, 6*p.verticalSlices*p.horizontalSlices)

	// Angular sweep compression: scale 1 is a full wrap, smaller scales
	// re-center the partial sweep around the forward direction.
	hScale := p.clipHFov / 360
	hOffset := (1 - hScale) / 2
	vScale := p.clipVFov / 180
	vOffset := (1 - vScale) / 2

	uvXScale := p.clipHFov / p.sourceHFov
	uvXOffset := (1 - uvXScale) / 2
	uvYScale := p.clipVFov / p.sourceVFov
	uvYOffset := (1 - uvYScale) / 2

	for y := 0; y <= p.horizontalSlices; y++ {
		v := float32(y) / float32(p.horizontalSlices)
		lat := math32.Pi*v*vScale + math32.Pi*vOffset
		sinLat, cosLat := math32.Sincos(lat)

		for x := 0; x <= p.verticalSlices; x++ {
			u := float32(x) / float32(p.verticalSlices)
			lon := 2*math32.Pi*u*hScale + 2*math32.Pi*hOffset
			sinLon, cosLon := math32.Sincos(lon)

			pos := mgl32.Vec3{
				sinLat * cosLon * p.radius,
				cosLat * p.radius,
				sinLat * sinLon * p.radius,
			}
			positions = append(positions, pos)

			// Interior view: the outward unit vector, negated.
			normals = append(normals, pos.Normalize().Mul(-1))

			uvs = append(uvs, mgl32.Vec2{
				u*uvXScale + uvXOffset,
				(1-v)*uvYScale + uvYOffset,
			})
		}
	}

	// Two triangles per grid cell, wound so the faces point inward,
	// consistent with the inverted normals.
	rowStride := uint32(p.verticalSlices + 1)
	for y := 0; y < p.horizontalSlices; y++ {
		for x := 0; x < p.verticalSlices; x++ {
			current := uint32(x) + uint32(y)*rowStride
			next := current + rowStride
			indices = append(indices,
				current, next, current+1,
				current+1, next, next+1,
			)
		}
	}

	return &models.GeneratedMesh{
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Indices:   indices,
		Placement: models.Placement{
			Scale:        mgl32.Vec3{1, 1, 1},
			RotationAxis: mgl32.Vec3{0, 1, 0},
			// Align the sphere's UV seam with the camera's forward
			// direction.
			RotationAngle: -math32.Pi / 2,
			Translation:   mgl32.Vec3{},
		},
	}, nil
}

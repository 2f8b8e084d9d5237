package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/immersivekit/meshgen/pkg/models"
)

// videoPlane generates a unit-width plane on the XZ plane with depth
// matching the video's aspect ratio, then scales it so that at distance
// zDistance its horizontal extent subtends exactly fovDegrees (pinhole
// camera relation). The placement rotates the plane upright to face the
// viewer and pushes it back along -Z.
func videoPlane(frameW, frameH, fovDegrees, zDistance float32) (*models.GeneratedMesh, error) {
	if frameW <= 0 || frameH <= 0 {
		return nil, fmt.Errorf("%w: frame size %vx%v", ErrDegenerateMesh, frameW, frameH)
	}
	// tan(fov/2) is meaningless at or beyond 180 degrees; a rectilinear
	// frame cannot cover a half-space.
	if fovDegrees <= 0 || fovDegrees >= 180 {
		return nil, fmt.Errorf("%w: rectilinear fov %v", ErrDegenerateMesh, fovDegrees)
	}
	if zDistance <= 0 {
		return nil, fmt.Errorf("%w: view distance %v", ErrDegenerateMesh, zDistance)
	}

	const width = 1.0
	depth := frameH / frameW

	halfW := float32(width) / 2
	halfD := depth / 2

	positions := []mgl32.Vec3{
		{-halfW, 0, -halfD},
		{halfW, 0, -halfD},
		{-halfW, 0, halfD},
		{halfW, 0, halfD},
	}

	up := mgl32.Vec3{0, 1, 0}
	normals := []mgl32.Vec3{up, up, up, up}

	// -Z edge becomes the top of the frame once the plane is rotated
	// upright.
	uvs := []mgl32.Vec2{
		{0, 0},
		{1, 0},
		{0, 1},
		{1, 1},
	}

	indices := []uint32{
		0, 2, 1,
		1, 2, 3,
	}

	scale := 2 * zDistance * math32.Tan(mgl32.DegToRad(fovDegrees)/2)

	return &models.GeneratedMesh{
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Indices:   indices,
		Placement: models.Placement{
			// Height stays at the plane's native unit depth; only the
			// horizontal extent is FOV-matched.
			Scale:         mgl32.Vec3{scale, 1, scale},
			RotationAxis:  mgl32.Vec3{1, 0, 0},
			RotationAngle: math32.Pi / 2,
			Translation:   mgl32.Vec3{0, 0, -zDistance},
		},
	}, nil
}

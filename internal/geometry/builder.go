// Package geometry generates the renderable surface for a video
// descriptor: a clipped interior-view UV sphere for equirectangular
// projections, or a flat plane sized so the video subtends its intended
// field of view for rectilinear ones. Generation is a pure function of the
// resolved descriptor.
package geometry

import (
	"errors"
	"fmt"

	"github.com/immersivekit/meshgen/pkg/models"
)

var (
	// ErrUnsupportedProjection is returned for projection kinds that are
	// recognized in metadata but have no mesh support (fisheye).
	ErrUnsupportedProjection = errors.New("unsupported projection")

	// ErrDegenerateMesh is returned when the requested vertex/index layout
	// cannot be allocated, e.g. non-positive slice counts or an
	// out-of-range field of view.
	ErrDegenerateMesh = errors.New("degenerate mesh parameters")
)

// Builder generates meshes for resolved video descriptors. The zero value
// is not usable; construct with NewBuilder.
type Builder struct {
	// SphereRadius places the sphere surface effectively at infinity
	// relative to viewer movement.
	SphereRadius float32

	// VerticalSlices is the longitude division count of the sphere grid.
	VerticalSlices int

	// ViewDistance is the distance at which the rectilinear plane is
	// placed in front of the viewer.
	ViewDistance float32
}

// Default generation constants.
const (
	DefaultSphereRadius   = 10000.0
	DefaultVerticalSlices = 60
	DefaultViewDistance   = 50.0
)

// NewBuilder returns a Builder with the default generation constants.
func NewBuilder() *Builder {
	return &Builder{
		SphereRadius:   DefaultSphereRadius,
		VerticalSlices: DefaultVerticalSlices,
		ViewDistance:   DefaultViewDistance,
	}
}

// Build generates the mesh and placement for the descriptor. Unknown and
// rectilinear projections produce a flat plane; equirectangular kinds
// produce a clipped sphere; fisheye yields ErrUnsupportedProjection and no
// mesh. The only other failure mode is a degenerate layout, which is
// surfaced rather than silently recovered.
func (b *Builder) Build(d models.ResolvedDescriptor) (*models.GeneratedMesh, error) {
	fov := float32(d.HorizontalFOVDegrees)

	switch {
	case d.Projection == models.ProjectionFisheye:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProjection, d.Projection)

	case d.Projection.Spherical():
		slices := int(fov / sphereSliceDegrees)
		if slices < 1 {
			slices = 1
		}
		return videoSphere(sphereParams{
			radius:           b.SphereRadius,
			sourceHFov:       360,
			sourceVFov:       180,
			clipHFov:         fov,
			clipVFov:         180,
			verticalSlices:   b.VerticalSlices,
			horizontalSlices: slices,
		})

	default:
		return videoPlane(
			float32(d.FrameWidth), float32(d.FrameHeight),
			fov, b.ViewDistance,
		)
	}
}

// sphereSliceDegrees controls latitude tessellation density: one
// horizontal slice per 3 degrees of clipped field of view.
const sphereSliceDegrees = 3.0

package models

import "fmt"

// ProjectionKind identifies how a 2D video frame maps onto a viewing surface.
type ProjectionKind string

// ProjectionKind values, matching the literal tokens carried in container
// format-description extensions.
const (
	ProjectionRectilinear         ProjectionKind = "Rectilinear"
	ProjectionEquirectangular     ProjectionKind = "Equirectangular"
	ProjectionHalfEquirectangular ProjectionKind = "HalfEquirectangular"
	ProjectionFisheye             ProjectionKind = "Fisheye"
	ProjectionUnknown             ProjectionKind = "Unknown"
)

// ParseProjectionKind maps a metadata string to a ProjectionKind.
// The match is case-sensitive; unrecognized tokens yield ProjectionUnknown,
// which downstream code treats the same as Rectilinear.
func ParseProjectionKind(s string) ProjectionKind {
	switch ProjectionKind(s) {
	case ProjectionRectilinear, ProjectionEquirectangular,
		ProjectionHalfEquirectangular, ProjectionFisheye:
		return ProjectionKind(s)
	default:
		return ProjectionUnknown
	}
}

// String returns the metadata literal for the kind.
func (k ProjectionKind) String() string {
	return string(k)
}

// Spherical reports whether the kind maps onto a sphere surface.
func (k ProjectionKind) Spherical() bool {
	return k == ProjectionEquirectangular || k == ProjectionHalfEquirectangular
}

// Supported reports whether a mesh can be generated for the kind.
// Fisheye is recognized in metadata but has no mesh support.
func (k ProjectionKind) Supported() bool {
	return k != ProjectionFisheye
}

// DefaultHorizontalFOVDegrees is substituted when the container carries no
// horizontal field-of-view metadata. It applies to both the spherical and
// the flat-plane branches of mesh generation.
const DefaultHorizontalFOVDegrees = 65.0

// VideoDescriptor aggregates the track properties that drive mesh
// generation. It is constructed once per selected asset and never mutated;
// selecting a new asset replaces the descriptor wholesale.
//
// Projection and HorizontalFOVDegrees are nil when the container metadata
// lacks the corresponding fields. Callers needing fully-populated values
// should go through Resolve.
type VideoDescriptor struct {
	// Frame size in pixels, per eye when stereo. Zero when unavailable.
	FrameWidth  float64 `json:"frame_width" db:"frame_width"`
	FrameHeight float64 `json:"frame_height" db:"frame_height"`

	// IsStereo is set when the source stream carries multiple views.
	IsStereo bool `json:"is_stereo" db:"is_stereo"`

	// Projection is the classified projection kind, nil until extraction
	// succeeds.
	Projection *ProjectionKind `json:"projection,omitempty" db:"projection"`

	// HorizontalFOVDegrees is the horizontal field of view the frame is
	// intended to cover. When present it is positive and at most 360.
	HorizontalFOVDegrees *float64 `json:"horizontal_fov_degrees,omitempty" db:"horizontal_fov"`
}

// ResolvedDescriptor is a VideoDescriptor with every default substituted:
// missing projection becomes Rectilinear (Unknown is folded into
// Rectilinear as well) and a missing field of view becomes
// DefaultHorizontalFOVDegrees. Geometry code only ever consumes this form,
// so it stays total and free of optional handling.
type ResolvedDescriptor struct {
	FrameWidth           float64        `json:"frame_width"`
	FrameHeight          float64        `json:"frame_height"`
	IsStereo             bool           `json:"is_stereo"`
	Projection           ProjectionKind `json:"projection"`
	HorizontalFOVDegrees float64        `json:"horizontal_fov_degrees"`
}

// Resolve produces the fully-defaulted form of the descriptor. This is the
// single place where default substitution happens.
func (d VideoDescriptor) Resolve() ResolvedDescriptor {
	projection := ProjectionRectilinear
	if d.Projection != nil && *d.Projection != ProjectionUnknown {
		projection = *d.Projection
	}

	fov := float64(DefaultHorizontalFOVDegrees)
	if d.HorizontalFOVDegrees != nil {
		fov = *d.HorizontalFOVDegrees
	}

	return ResolvedDescriptor{
		FrameWidth:           d.FrameWidth,
		FrameHeight:          d.FrameHeight,
		IsStereo:             d.IsStereo,
		Projection:           projection,
		HorizontalFOVDegrees: fov,
	}
}

// Summary returns a short human-readable description of the descriptor,
// e.g. "4096x4096 stereo HalfEquirectangular (180.0°)".
func (d VideoDescriptor) Summary() string {
	mode := "mono"
	if d.IsStereo {
		mode = "stereo"
	}

	projection := "unclassified"
	if d.Projection != nil {
		projection = d.Projection.String()
	}

	if d.HorizontalFOVDegrees != nil {
		return fmt.Sprintf("%.0fx%.0f %s %s (%.1f°)",
			d.FrameWidth, d.FrameHeight, mode, projection, *d.HorizontalFOVDegrees)
	}
	return fmt.Sprintf("%.0fx%.0f %s %s",
		d.FrameWidth, d.FrameHeight, mode, projection)
}

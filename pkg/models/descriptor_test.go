package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProjectionKindRoundTrip(t *testing.T) {
	literals := []string{
		"Rectilinear",
		"Equirectangular",
		"HalfEquirectangular",
		"Fisheye",
	}

	for _, lit := range literals {
		t.Run(lit, func(t *testing.T) {
			kind := ParseProjectionKind(lit)
			assert.Equal(t, lit, kind.String())
		})
	}
}

func TestParseProjectionKindUnrecognized(t *testing.T) {
	tests := []string{"", "Cubemap", "rectilinear", "EQUIRECTANGULAR", "Unknown"}

	for _, s := range tests {
		assert.Equal(t, ProjectionUnknown, ParseProjectionKind(s), "input %q", s)
	}
}

func TestProjectionKindPredicates(t *testing.T) {
	assert.True(t, ProjectionEquirectangular.Spherical())
	assert.True(t, ProjectionHalfEquirectangular.Spherical())
	assert.False(t, ProjectionRectilinear.Spherical())
	assert.False(t, ProjectionFisheye.Spherical())

	assert.False(t, ProjectionFisheye.Supported())
	assert.True(t, ProjectionRectilinear.Supported())
	assert.True(t, ProjectionUnknown.Supported())
}

func TestResolveDefaults(t *testing.T) {
	d := VideoDescriptor{FrameWidth: 1920, FrameHeight: 1080}

	r := d.Resolve()
	assert.Equal(t, ProjectionRectilinear, r.Projection)
	assert.Equal(t, DefaultHorizontalFOVDegrees, r.HorizontalFOVDegrees)
	assert.Equal(t, 1920.0, r.FrameWidth)
	assert.False(t, r.IsStereo)
}

func TestResolveUnknownFoldsIntoRectilinear(t *testing.T) {
	unknown := ProjectionUnknown
	d := VideoDescriptor{Projection: &unknown}

	assert.Equal(t, ProjectionRectilinear, d.Resolve().Projection)
}

func TestResolvePassesThroughValues(t *testing.T) {
	kind := ProjectionHalfEquirectangular
	fov := 180.0
	d := VideoDescriptor{
		FrameWidth:           4096,
		FrameHeight:          4096,
		IsStereo:             true,
		Projection:           &kind,
		HorizontalFOVDegrees: &fov,
	}

	r := d.Resolve()
	assert.Equal(t, ProjectionHalfEquirectangular, r.Projection)
	assert.Equal(t, 180.0, r.HorizontalFOVDegrees)
	assert.True(t, r.IsStereo)
}

func TestDescriptorSummary(t *testing.T) {
	kind := ProjectionHalfEquirectangular
	fov := 180.0

	tests := []struct {
		name string
		d    VideoDescriptor
		want string
	}{
		{
			name: "full metadata",
			d: VideoDescriptor{
				FrameWidth: 4096, FrameHeight: 4096,
				IsStereo: true, Projection: &kind, HorizontalFOVDegrees: &fov,
			},
			want: "4096x4096 stereo HalfEquirectangular (180.0°)",
		},
		{
			name: "no metadata",
			d:    VideoDescriptor{FrameWidth: 1920, FrameHeight: 1080},
			want: "1920x1080 mono unclassified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Summary())
		})
	}
}

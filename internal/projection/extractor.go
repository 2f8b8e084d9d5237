// Package projection interprets container format-description extensions
// for a video track: it classifies the projection kind and decodes the
// horizontal field of view. Extraction is a pure, synchronous best-effort
// read; missing fields are absent values, not errors.
package projection

import (
	"strconv"

	"github.com/immersivekit/meshgen/pkg/models"
)

// Extension map keys. These string tokens are undocumented but stable
// across containers that carry projection metadata.
const (
	ExtensionProjectionKind = "ProjectionKind"
	ExtensionHorizontalFOV  = "HorizontalFieldOfView"
)

// fovFixedPointScale converts the wire representation of the horizontal
// field of view (unsigned 32-bit fixed point) to degrees.
const fovFixedPointScale = 1000.0

// Extract reads the projection kind and horizontal field of view from a
// decoded format-description extension map. Either result is nil when the
// corresponding key is absent; a present-but-unparseable projection token
// falls back to Rectilinear.
func Extract(ext map[string]interface{}) (*models.ProjectionKind, *float64) {
	return ExtractKind(ext), ExtractHorizontalFOV(ext)
}

// ExtractKind classifies the projection kind entry of the extension map.
// It returns nil when the key is absent, so the caller can distinguish
// "no metadata" from an explicit classification.
func ExtractKind(ext map[string]interface{}) *models.ProjectionKind {
	s, ok := stringEntry(ext, ExtensionProjectionKind)
	if !ok {
		return nil
	}

	kind := models.ParseProjectionKind(s)
	if kind == models.ProjectionUnknown {
		kind = models.ProjectionRectilinear
	}
	return &kind
}

// ExtractHorizontalFOV decodes the horizontal field-of-view entry, stored
// on the wire as an unsigned fixed-point integer scaled by 1000. Returns
// nil when the key is absent or not numeric.
func ExtractHorizontalFOV(ext map[string]interface{}) *float64 {
	raw, ok := uintEntry(ext, ExtensionHorizontalFOV)
	if !ok {
		return nil
	}

	degrees := float64(raw) / fovFixedPointScale
	return &degrees
}

// stringEntry is the typed lookup for string-valued extension entries.
func stringEntry(ext map[string]interface{}, key string) (string, bool) {
	v, ok := ext[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// uintEntry is the typed lookup for unsigned integer extension entries.
// Decoded extension maps arrive through JSON, so numeric values may be
// float64 or decimal strings as well as native integer types.
func uintEntry(ext map[string]interface{}, key string) (uint32, bool) {
	v, ok := ext[key]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case uint32:
		return n, true
	case uint64:
		return uint32(n), true
	case uint:
		return uint32(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint32(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint32(n), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint32(n), true
	case string:
		parsed, err := strconv.ParseUint(n, 10, 32)
		if err != nil {
			return 0, false
		}
		return uint32(parsed), true
	default:
		return 0, false
	}
}

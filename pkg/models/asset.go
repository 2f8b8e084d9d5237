package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Asset represents a registered video asset in the system.
type Asset struct {
	ID        string    `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	SourceURL string    `json:"source_url" db:"source_url"`

	// Descriptor fields probed from the container. Projection and
	// HorizontalFOV stay nil when the format description lacks them.
	FrameWidth    float64         `json:"frame_width" db:"frame_width"`
	FrameHeight   float64         `json:"frame_height" db:"frame_height"`
	IsStereo      bool            `json:"is_stereo" db:"is_stereo"`
	Projection    *ProjectionKind `json:"projection,omitempty" db:"projection"`
	HorizontalFOV *float64        `json:"horizontal_fov,omitempty" db:"horizontal_fov"`

	// Extensions is the raw format-description extension map as probed,
	// kept for diagnostics.
	Extensions Metadata  `json:"extensions" db:"extensions"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Descriptor returns the video descriptor derived from the asset record.
func (a *Asset) Descriptor() VideoDescriptor {
	return VideoDescriptor{
		FrameWidth:           a.FrameWidth,
		FrameHeight:          a.FrameHeight,
		IsStereo:             a.IsStereo,
		Projection:           a.Projection,
		HorizontalFOVDegrees: a.HorizontalFOV,
	}
}

// Metadata holds the string-keyed extension entries from the container
// format description.
type Metadata map[string]interface{}

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// AssetStatus constants
const (
	AssetStatusPending = "pending"
	AssetStatusProbed  = "probed"
	AssetStatusFailed  = "failed"
)

// Build represents one mesh generation run for an asset. Each build
// replaces any prior result for the asset; a stale in-flight build is
// superseded, never forcibly cancelled.
type Build struct {
	ID          string     `json:"id" db:"id"`
	AssetID     string     `json:"asset_id" db:"asset_id"`
	Status      string     `json:"status" db:"status"`
	ErrorMsg    string     `json:"error_msg,omitempty" db:"error_msg"`
	Projection  string     `json:"projection,omitempty" db:"projection"`
	VertexCount int        `json:"vertex_count" db:"vertex_count"`
	Triangles   int        `json:"triangles" db:"triangles"`
	ArtifactKey string     `json:"artifact_key,omitempty" db:"artifact_key"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// BuildStatus constants
const (
	BuildStatusPending    = "pending"
	BuildStatusQueued     = "queued"
	BuildStatusProcessing = "processing"
	BuildStatusCompleted  = "completed"
	BuildStatusFailed     = "failed"
)

// Package prober loads the track properties of a video asset through
// ffprobe: natural frame size, stereo capability, and the string-keyed
// format-description extension entries that carry projection metadata.
// This is the engine's single externally-asynchronous boundary; everything
// downstream of it is pure computation.
package prober

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/immersivekit/meshgen/internal/config"
	"github.com/immersivekit/meshgen/internal/projection"
	"github.com/immersivekit/meshgen/pkg/models"
)

var (
	// ErrMissingTrack is returned when the asset has no decodable video
	// track. Fatal to the build; no mesh can be produced.
	ErrMissingTrack = errors.New("no decodable video track")

	// ErrMissingProperties is returned when the video track lacks a usable
	// natural size or format description. Fatal to the build.
	ErrMissingProperties = errors.New("track properties unavailable")
)

// Prober extracts video descriptors from media files
type Prober struct {
	ffprobePath string
	timeout     time.Duration
}

// New creates a new prober
func New(cfg config.ProberConfig) *Prober {
	return &Prober{
		ffprobePath: cfg.FFprobePath,
		timeout:     cfg.Timeout,
	}
}

// probeOutput mirrors the ffprobe JSON document
type probeOutput struct {
	Streams []streamInfo `json:"streams"`
	Format  formatInfo   `json:"format"`
}

type streamInfo struct {
	CodecType    string                   `json:"codec_type"`
	CodecName    string                   `json:"codec_name"`
	Width        int                      `json:"width"`
	Height       int                      `json:"height"`
	Tags         map[string]string        `json:"tags"`
	SideDataList []map[string]interface{} `json:"side_data_list"`
}

type formatInfo struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// Probe runs ffprobe against the input and derives the video descriptor
// plus the raw extension map it was built from. Missing projection or
// field-of-view metadata is not an error; the returned descriptor simply
// carries nil for those fields.
func (p *Prober) Probe(ctx context.Context, inputPath string) (models.VideoDescriptor, models.Metadata, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return models.VideoDescriptor{}, nil,
			fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes())
}

// parseProbeOutput derives the descriptor from a raw ffprobe JSON document.
func parseProbeOutput(data []byte) (models.VideoDescriptor, models.Metadata, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return models.VideoDescriptor{}, nil,
			fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var video *streamInfo
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			video = &out.Streams[i]
			break
		}
	}
	if video == nil {
		return models.VideoDescriptor{}, nil, ErrMissingTrack
	}

	if video.Width <= 0 || video.Height <= 0 {
		return models.VideoDescriptor{}, nil,
			fmt.Errorf("%w: frame size %dx%d", ErrMissingProperties, video.Width, video.Height)
	}

	ext := extensionMap(video, out.Format)

	kind, fov := projection.Extract(ext)

	descriptor := models.VideoDescriptor{
		FrameWidth:           float64(video.Width),
		FrameHeight:          float64(video.Height),
		IsStereo:             isStereo(video),
		Projection:           kind,
		HorizontalFOVDegrees: fov,
	}

	return descriptor, ext, nil
}

// extensionMap flattens stream and container tags into the string-keyed
// extension map consumed by the projection extractor. Stream tags win on
// key collision.
func extensionMap(video *streamInfo, format formatInfo) models.Metadata {
	ext := make(models.Metadata, len(video.Tags)+len(format.Tags))
	for k, v := range format.Tags {
		ext[k] = v
	}
	for k, v := range video.Tags {
		ext[k] = v
	}
	return ext
}

// isStereo reports whether the stream carries multiple views.
func isStereo(video *streamInfo) bool {
	if mode, ok := video.Tags["stereo_mode"]; ok && mode != "" && mode != "mono" {
		return true
	}

	for _, sd := range video.SideDataList {
		t, ok := sd["side_data_type"].(string)
		if !ok {
			continue
		}
		if strings.Contains(t, "Stereo 3D") || strings.Contains(t, "View ID") {
			return true
		}
	}

	return false
}

// Package pipeline runs the mesh build pipeline for one asset at a time:
// load the descriptor, resolve defaults, generate the mesh, export the
// artifact, and persist the result. The pipeline is a single linear task
// with no internal concurrency; a build superseded by a newer one for the
// same asset has its result discarded, not cancelled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/immersivekit/meshgen/internal/exporter"
	"github.com/immersivekit/meshgen/internal/geometry"
	"github.com/immersivekit/meshgen/internal/logging"
	"github.com/immersivekit/meshgen/internal/metrics"
	"github.com/immersivekit/meshgen/internal/prober"
	"github.com/immersivekit/meshgen/internal/queue"
	"github.com/immersivekit/meshgen/internal/tracing"
	"github.com/immersivekit/meshgen/pkg/models"
)

// Repository is the persistence surface the pipeline needs.
type Repository interface {
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	UpdateAsset(ctx context.Context, asset *models.Asset) error
	GetBuild(ctx context.Context, id string) (*models.Build, error)
	UpdateBuild(ctx context.Context, build *models.Build) error
	GetLatestBuild(ctx context.Context, assetID string) (*models.Build, error)
}

// ArtifactStore uploads exported mesh artifacts.
type ArtifactStore interface {
	UploadArtifact(ctx context.Context, objectName string, data []byte) error
}

// MeshCache caches generated meshes per asset.
type MeshCache interface {
	SetMesh(ctx context.Context, assetID string, mesh *models.GeneratedMesh, ttl time.Duration) error
	SetBuild(ctx context.Context, build *models.Build, ttl time.Duration) error
}

// Prober loads track properties when the asset record has none yet.
type Prober interface {
	Probe(ctx context.Context, inputPath string) (models.VideoDescriptor, models.Metadata, error)
}

// Service executes build jobs.
type Service struct {
	repo     Repository
	store    ArtifactStore
	cache    MeshCache
	prober   Prober
	builder  *geometry.Builder
	log      *logging.Logger
	cacheTTL time.Duration
}

// NewService creates a pipeline service.
func NewService(repo Repository, store ArtifactStore, cache MeshCache, prober Prober,
	builder *geometry.Builder, log *logging.Logger, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		store:    store,
		cache:    cache,
		prober:   prober,
		builder:  builder,
		log:      log,
		cacheTTL: cacheTTL,
	}
}

// ProcessBuild runs one build job end to end. Engine-level failures
// (unsupported projection, degenerate parameters, missing track
// properties) are recorded on the build and not returned, so the queue
// does not retry them: there is no retry policy, the user must reselect
// an asset. A returned error means infrastructure trouble and the job may
// be redelivered.
func (s *Service) ProcessBuild(ctx context.Context, job queue.BuildJob) error {
	span, ctx := tracing.StartSpan(ctx, "pipeline.ProcessBuild")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "build_id", job.BuildID)
	tracing.SetTag(span, "asset_id", job.AssetID)

	log := s.log.WithAssetID(job.AssetID).WithBuildID(job.BuildID)

	build, err := s.repo.GetBuild(ctx, job.BuildID)
	if err != nil {
		tracing.LogError(span, err)
		return fmt.Errorf("failed to load build: %w", err)
	}

	asset, err := s.repo.GetAsset(ctx, job.AssetID)
	if err != nil {
		tracing.LogError(span, err)
		return fmt.Errorf("failed to load asset: %w", err)
	}

	now := time.Now()
	build.Status = models.BuildStatusProcessing
	build.StartedAt = &now
	if err := s.repo.UpdateBuild(ctx, build); err != nil {
		return fmt.Errorf("failed to mark build processing: %w", err)
	}

	descriptor, err := s.descriptor(ctx, asset)
	if err != nil {
		log.ErrorWithErr("Probe failed", err)
		if IsFatal(err) {
			return s.fail(ctx, build, err)
		}
		return err
	}

	resolved := descriptor.Resolve()
	build.Projection = resolved.Projection.String()

	start := time.Now()
	mesh, err := s.builder.Build(resolved)
	elapsed := time.Since(start)

	if err != nil {
		log.LogMeshBuild(build.ID, build.Projection, 0, 0, elapsed, err)
		metrics.RecordBuild(build.Projection, models.BuildStatusFailed, elapsed.Seconds(), 0, 0)
		tracing.LogError(span, err)
		return s.fail(ctx, build, err)
	}

	log.LogMeshBuild(build.ID, build.Projection, mesh.VertexCount(), mesh.TriangleCount(), elapsed, nil)
	metrics.RecordBuild(build.Projection, models.BuildStatusCompleted, elapsed.Seconds(),
		mesh.VertexCount(), mesh.TriangleCount())

	data, err := exporter.OBJBytes(artifactName(asset), mesh)
	if err != nil {
		tracing.LogError(span, err)
		return s.fail(ctx, build, err)
	}

	key := fmt.Sprintf("meshes/%s/%s.obj", asset.ID, build.ID)
	if err := s.store.UploadArtifact(ctx, key, data); err != nil {
		tracing.LogError(span, err)
		return fmt.Errorf("failed to upload artifact: %w", err)
	}
	metrics.RecordArtifactUpload(int64(len(data)))

	build.Status = models.BuildStatusCompleted
	build.ArtifactKey = key
	build.VertexCount = mesh.VertexCount()
	build.Triangles = mesh.TriangleCount()
	done := time.Now()
	build.CompletedAt = &done
	if err := s.repo.UpdateBuild(ctx, build); err != nil {
		return fmt.Errorf("failed to mark build completed: %w", err)
	}

	if s.stale(ctx, build) {
		// A newer selection started while this build was in flight; its
		// result wins, ours is discarded.
		log.Warn("Build superseded by a newer one, skipping cache write")
		return nil
	}

	if err := s.cache.SetMesh(ctx, asset.ID, mesh, s.cacheTTL); err != nil {
		log.ErrorWithErr("Failed to cache mesh", err)
	}
	if err := s.cache.SetBuild(ctx, build, s.cacheTTL); err != nil {
		log.ErrorWithErr("Failed to cache build", err)
	}

	return nil
}

// descriptor returns the asset's video descriptor, probing the source when
// the stored record was never probed.
func (s *Service) descriptor(ctx context.Context, asset *models.Asset) (models.VideoDescriptor, error) {
	if asset.Status == models.AssetStatusProbed && asset.FrameWidth > 0 {
		return asset.Descriptor(), nil
	}

	span, ctx := tracing.StartSpan(ctx, "pipeline.Probe")
	defer tracing.FinishSpan(span)

	start := time.Now()
	descriptor, ext, err := s.prober.Probe(ctx, asset.SourceURL)
	metrics.RecordProbe(probeStatus(err), time.Since(start).Seconds())
	if err != nil {
		tracing.LogError(span, err)
		return models.VideoDescriptor{}, err
	}

	asset.FrameWidth = descriptor.FrameWidth
	asset.FrameHeight = descriptor.FrameHeight
	asset.IsStereo = descriptor.IsStereo
	asset.Projection = descriptor.Projection
	asset.HorizontalFOV = descriptor.HorizontalFOVDegrees
	asset.Extensions = ext
	asset.Status = models.AssetStatusProbed
	if err := s.repo.UpdateAsset(ctx, asset); err != nil {
		return models.VideoDescriptor{}, fmt.Errorf("failed to persist descriptor: %w", err)
	}

	return descriptor, nil
}

// fail records a fatal build failure. The error is consumed here: engine
// failures are terminal and must not trigger queue redelivery.
func (s *Service) fail(ctx context.Context, build *models.Build, cause error) error {
	build.Status = models.BuildStatusFailed
	build.ErrorMsg = cause.Error()
	done := time.Now()
	build.CompletedAt = &done

	if err := s.repo.UpdateBuild(ctx, build); err != nil {
		return fmt.Errorf("failed to mark build failed: %w", err)
	}
	if err := s.cache.SetBuild(ctx, build, s.cacheTTL); err != nil {
		s.log.WithBuildID(build.ID).ErrorWithErr("Failed to cache build", err)
	}
	return nil
}

// stale reports whether a newer build exists for the same asset.
func (s *Service) stale(ctx context.Context, build *models.Build) bool {
	latest, err := s.repo.GetLatestBuild(ctx, build.AssetID)
	if err != nil {
		return false
	}
	return latest.ID != build.ID && latest.CreatedAt.After(build.CreatedAt)
}

func artifactName(asset *models.Asset) string {
	if asset.Filename != "" {
		return asset.Filename
	}
	return asset.ID
}

func probeStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "completed"
}

// IsFatal reports whether a build error is terminal rather than
// transient. Terminal failures are recorded on the build and never
// redelivered; there is no retry policy, the user must reselect.
func IsFatal(err error) bool {
	return errors.Is(err, geometry.ErrUnsupportedProjection) ||
		errors.Is(err, geometry.ErrDegenerateMesh) ||
		errors.Is(err, prober.ErrMissingTrack) ||
		errors.Is(err, prober.ErrMissingProperties)
}

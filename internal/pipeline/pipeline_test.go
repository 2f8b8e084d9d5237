package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immersivekit/meshgen/internal/geometry"
	"github.com/immersivekit/meshgen/internal/logging"
	"github.com/immersivekit/meshgen/internal/prober"
	"github.com/immersivekit/meshgen/internal/queue"
	"github.com/immersivekit/meshgen/pkg/models"
)

type fakeRepo struct {
	assets map[string]*models.Asset
	builds map[string]*models.Build
	latest map[string]*models.Build
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		assets: make(map[string]*models.Asset),
		builds: make(map[string]*models.Build),
		latest: make(map[string]*models.Build),
	}
}

func (r *fakeRepo) GetAsset(_ context.Context, id string) (*models.Asset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return a, nil
}

func (r *fakeRepo) UpdateAsset(_ context.Context, asset *models.Asset) error {
	r.assets[asset.ID] = asset
	return nil
}

func (r *fakeRepo) GetBuild(_ context.Context, id string) (*models.Build, error) {
	b, ok := r.builds[id]
	if !ok {
		return nil, errors.New("build not found")
	}
	return b, nil
}

func (r *fakeRepo) UpdateBuild(_ context.Context, build *models.Build) error {
	r.builds[build.ID] = build
	return nil
}

func (r *fakeRepo) GetLatestBuild(_ context.Context, assetID string) (*models.Build, error) {
	b, ok := r.latest[assetID]
	if !ok {
		return nil, errors.New("no builds")
	}
	return b, nil
}

type fakeStore struct {
	objects map[string][]byte
}

func (s *fakeStore) UploadArtifact(_ context.Context, objectName string, data []byte) error {
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[objectName] = data
	return nil
}

type fakeCache struct {
	meshes map[string]*models.GeneratedMesh
	builds map[string]*models.Build
}

func (c *fakeCache) SetMesh(_ context.Context, assetID string, mesh *models.GeneratedMesh, _ time.Duration) error {
	if c.meshes == nil {
		c.meshes = make(map[string]*models.GeneratedMesh)
	}
	c.meshes[assetID] = mesh
	return nil
}

func (c *fakeCache) SetBuild(_ context.Context, build *models.Build, _ time.Duration) error {
	if c.builds == nil {
		c.builds = make(map[string]*models.Build)
	}
	c.builds[build.ID] = build
	return nil
}

type fakeProber struct {
	descriptor models.VideoDescriptor
	err        error
}

func (p *fakeProber) Probe(_ context.Context, _ string) (models.VideoDescriptor, models.Metadata, error) {
	if p.err != nil {
		return models.VideoDescriptor{}, nil, p.err
	}
	return p.descriptor, models.Metadata{}, nil
}

func newTestService(t *testing.T, repo *fakeRepo, store *fakeStore, cache *fakeCache, pb *fakeProber) *Service {
	t.Helper()
	log, err := logging.NewDefaultLogger()
	require.NoError(t, err)
	return NewService(repo, store, cache, pb, geometry.NewBuilder(), log, time.Hour)
}

func probedAsset(id string, projection models.ProjectionKind, fov float64) *models.Asset {
	return &models.Asset{
		ID:            id,
		Filename:      id + ".mp4",
		SourceURL:     "/videos/" + id + ".mp4",
		FrameWidth:    4096,
		FrameHeight:   2048,
		Projection:    &projection,
		HorizontalFOV: &fov,
		Status:        models.AssetStatusProbed,
		CreatedAt:     time.Now(),
	}
}

func pendingBuild(id, assetID string) *models.Build {
	return &models.Build{
		ID:        id,
		AssetID:   assetID,
		Status:    models.BuildStatusQueued,
		CreatedAt: time.Now(),
	}
}

func TestProcessBuildCompletes(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{}
	cache := &fakeCache{}

	asset := probedAsset("a1", models.ProjectionEquirectangular, 360)
	build := pendingBuild("b1", "a1")
	repo.assets[asset.ID] = asset
	repo.builds[build.ID] = build
	repo.latest[asset.ID] = build

	svc := newTestService(t, repo, store, cache, &fakeProber{})
	err := svc.ProcessBuild(context.Background(), queue.BuildJob{BuildID: "b1", AssetID: "a1"})
	require.NoError(t, err)

	got := repo.builds["b1"]
	assert.Equal(t, models.BuildStatusCompleted, got.Status)
	assert.Equal(t, "Equirectangular", got.Projection)
	assert.Equal(t, "meshes/a1/b1.obj", got.ArtifactKey)
	assert.NotZero(t, got.VertexCount)
	assert.NotZero(t, got.Triangles)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)

	assert.NotEmpty(t, store.objects["meshes/a1/b1.obj"])
	require.Contains(t, cache.meshes, "a1")
	assert.Equal(t, got.VertexCount, cache.meshes["a1"].VertexCount())
}

func TestProcessBuildUnsupportedProjectionIsTerminal(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}

	asset := probedAsset("a1", models.ProjectionFisheye, 180)
	build := pendingBuild("b1", "a1")
	repo.assets[asset.ID] = asset
	repo.builds[build.ID] = build
	repo.latest[asset.ID] = build

	svc := newTestService(t, repo, &fakeStore{}, cache, &fakeProber{})
	err := svc.ProcessBuild(context.Background(), queue.BuildJob{BuildID: "b1", AssetID: "a1"})

	// Terminal: the failure is recorded, the job must not be redelivered.
	require.NoError(t, err)
	got := repo.builds["b1"]
	assert.Equal(t, models.BuildStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMsg, "unsupported projection")
	assert.Empty(t, cache.meshes)
}

func TestProcessBuildDegenerateParametersIsTerminal(t *testing.T) {
	repo := newFakeRepo()

	fov := 400.0
	asset := probedAsset("a1", models.ProjectionEquirectangular, fov)
	build := pendingBuild("b1", "a1")
	repo.assets[asset.ID] = asset
	repo.builds[build.ID] = build

	svc := newTestService(t, repo, &fakeStore{}, &fakeCache{}, &fakeProber{})
	err := svc.ProcessBuild(context.Background(), queue.BuildJob{BuildID: "b1", AssetID: "a1"})

	require.NoError(t, err)
	assert.Equal(t, models.BuildStatusFailed, repo.builds["b1"].Status)
}

func TestProcessBuildSupersededSkipsCache(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}

	asset := probedAsset("a1", models.ProjectionRectilinear, 90)
	build := pendingBuild("b1", "a1")
	newer := pendingBuild("b2", "a1")
	newer.CreatedAt = build.CreatedAt.Add(time.Second)
	repo.assets[asset.ID] = asset
	repo.builds[build.ID] = build
	repo.builds[newer.ID] = newer
	repo.latest[asset.ID] = newer

	svc := newTestService(t, repo, &fakeStore{}, cache, &fakeProber{})
	err := svc.ProcessBuild(context.Background(), queue.BuildJob{BuildID: "b1", AssetID: "a1"})
	require.NoError(t, err)

	// The stale build still completes, but its mesh never replaces the
	// newer selection's result.
	assert.Equal(t, models.BuildStatusCompleted, repo.builds["b1"].Status)
	assert.Empty(t, cache.meshes)
}

func TestProcessBuildProbesUnprobedAsset(t *testing.T) {
	repo := newFakeRepo()

	projection := models.ProjectionHalfEquirectangular
	fov := 180.0
	asset := &models.Asset{
		ID:        "a1",
		SourceURL: "/videos/a1.mp4",
		Status:    models.AssetStatusPending,
		CreatedAt: time.Now(),
	}
	build := pendingBuild("b1", "a1")
	repo.assets[asset.ID] = asset
	repo.builds[build.ID] = build
	repo.latest[asset.ID] = build

	pb := &fakeProber{descriptor: models.VideoDescriptor{
		FrameWidth:           4096,
		FrameHeight:          4096,
		IsStereo:             true,
		Projection:           &projection,
		HorizontalFOVDegrees: &fov,
	}}

	svc := newTestService(t, repo, &fakeStore{}, &fakeCache{}, pb)
	err := svc.ProcessBuild(context.Background(), queue.BuildJob{BuildID: "b1", AssetID: "a1"})
	require.NoError(t, err)

	assert.Equal(t, models.AssetStatusProbed, repo.assets["a1"].Status)
	assert.Equal(t, 4096.0, repo.assets["a1"].FrameWidth)
	assert.Equal(t, models.BuildStatusCompleted, repo.builds["b1"].Status)
	assert.Equal(t, "HalfEquirectangular", repo.builds["b1"].Projection)
}

func TestProcessBuildMissingTrackIsTerminal(t *testing.T) {
	repo := newFakeRepo()

	asset := &models.Asset{ID: "a1", SourceURL: "/videos/a1.mp4", Status: models.AssetStatusPending}
	build := pendingBuild("b1", "a1")
	repo.assets[asset.ID] = asset
	repo.builds[build.ID] = build

	pb := &fakeProber{err: prober.ErrMissingTrack}
	svc := newTestService(t, repo, &fakeStore{}, &fakeCache{}, pb)
	err := svc.ProcessBuild(context.Background(), queue.BuildJob{BuildID: "b1", AssetID: "a1"})

	require.NoError(t, err)
	assert.Equal(t, models.BuildStatusFailed, repo.builds["b1"].Status)
}

func TestProcessBuildTransientProbeErrorIsRetryable(t *testing.T) {
	repo := newFakeRepo()

	asset := &models.Asset{ID: "a1", SourceURL: "/videos/a1.mp4", Status: models.AssetStatusPending}
	build := pendingBuild("b1", "a1")
	repo.assets[asset.ID] = asset
	repo.builds[build.ID] = build

	pb := &fakeProber{err: errors.New("ffprobe: no such file or directory")}
	svc := newTestService(t, repo, &fakeStore{}, &fakeCache{}, pb)
	err := svc.ProcessBuild(context.Background(), queue.BuildJob{BuildID: "b1", AssetID: "a1"})

	require.Error(t, err)
	assert.NotEqual(t, models.BuildStatusFailed, repo.builds["b1"].Status)
}

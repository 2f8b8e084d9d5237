package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/immersivekit/meshgen/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	// Create a mini Redis server for testing
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestCache_DescriptorOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	kind := models.ProjectionHalfEquirectangular
	fov := 180.0
	d := models.VideoDescriptor{
		FrameWidth:           4096,
		FrameHeight:          4096,
		IsStereo:             true,
		Projection:           &kind,
		HorizontalFOVDegrees: &fov,
	}

	if err := cache.SetDescriptor(ctx, "asset-1", d, time.Minute); err != nil {
		t.Fatalf("SetDescriptor failed: %v", err)
	}

	got, err := cache.GetDescriptor(ctx, "asset-1")
	if err != nil {
		t.Fatalf("GetDescriptor failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected cached descriptor, got miss")
	}
	if got.Projection == nil || *got.Projection != kind {
		t.Errorf("Projection mismatch: %v", got.Projection)
	}
	if got.HorizontalFOVDegrees == nil || *got.HorizontalFOVDegrees != 180.0 {
		t.Errorf("FOV mismatch: %v", got.HorizontalFOVDegrees)
	}
	if !got.IsStereo {
		t.Error("Expected stereo flag to survive the cache")
	}

	// Miss for unknown asset
	miss, err := cache.GetDescriptor(ctx, "asset-unknown")
	if err != nil {
		t.Fatalf("GetDescriptor miss errored: %v", err)
	}
	if miss != nil {
		t.Error("Expected cache miss, got value")
	}

	if err := cache.DeleteDescriptor(ctx, "asset-1"); err != nil {
		t.Fatalf("DeleteDescriptor failed: %v", err)
	}
	gone, err := cache.GetDescriptor(ctx, "asset-1")
	if err != nil || gone != nil {
		t.Errorf("Expected miss after delete, got %v / %v", gone, err)
	}
}

func TestCache_MeshOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	mesh := &models.GeneratedMesh{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		Normals:   []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		UVs:       []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
		Indices:   []uint32{0, 2, 1},
		Placement: models.Placement{
			Scale:         mgl32.Vec3{1, 1, 1},
			RotationAxis:  mgl32.Vec3{0, 1, 0},
			RotationAngle: -1.5707964,
		},
	}

	if err := cache.SetMesh(ctx, "asset-1", mesh, time.Minute); err != nil {
		t.Fatalf("SetMesh failed: %v", err)
	}

	got, err := cache.GetMesh(ctx, "asset-1")
	if err != nil {
		t.Fatalf("GetMesh failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected cached mesh, got miss")
	}
	if got.VertexCount() != 3 || got.TriangleCount() != 1 {
		t.Errorf("Mesh shape mismatch: %d verts, %d tris", got.VertexCount(), got.TriangleCount())
	}
	if got.Placement.RotationAxis != mesh.Placement.RotationAxis {
		t.Errorf("Placement mismatch: %v", got.Placement)
	}

	// A newer build for the same asset overwrites the previous result.
	mesh.Indices = []uint32{0, 1, 2}
	if err := cache.SetMesh(ctx, "asset-1", mesh, time.Minute); err != nil {
		t.Fatalf("SetMesh overwrite failed: %v", err)
	}
	got, err = cache.GetMesh(ctx, "asset-1")
	if err != nil || got == nil {
		t.Fatalf("GetMesh after overwrite failed: %v", err)
	}
	if got.Indices[1] != 1 {
		t.Error("Expected the newer mesh to replace the older one")
	}
}

func TestCache_BuildOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	build := &models.Build{
		ID:          "build-1",
		AssetID:     "asset-1",
		Status:      models.BuildStatusProcessing,
		Projection:  "Equirectangular",
		VertexCount: 7381,
		Triangles:   14400,
	}

	if err := cache.SetBuild(ctx, build, time.Minute); err != nil {
		t.Fatalf("SetBuild failed: %v", err)
	}

	got, err := cache.GetBuild(ctx, "build-1")
	if err != nil {
		t.Fatalf("GetBuild failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected cached build, got miss")
	}
	if got.Status != models.BuildStatusProcessing {
		t.Errorf("Status mismatch: %s", got.Status)
	}
	if got.Triangles != 14400 {
		t.Errorf("Triangle count mismatch: %d", got.Triangles)
	}
}

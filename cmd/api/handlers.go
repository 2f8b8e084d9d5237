package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/immersivekit/meshgen/internal/metrics"
	"github.com/immersivekit/meshgen/internal/queue"
	"github.com/immersivekit/meshgen/pkg/models"
)

// healthCheck reports service health based on database and cache
// reachability.
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.repo.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	if err := api.cache.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// registerAsset registers a video source and probes its track properties.
// An unrecognized projection or a missing field never fails registration;
// the descriptor simply keeps nil for what the container did not declare.
func (api *API) registerAsset(c *gin.Context) {
	var req struct {
		SourceURL string `json:"source_url" binding:"required"`
		Filename  string `json:"filename"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset := &models.Asset{
		ID:        uuid.New().String(),
		Filename:  req.Filename,
		SourceURL: req.SourceURL,
		Status:    models.AssetStatusPending,
	}

	start := time.Now()
	descriptor, ext, err := api.prober.Probe(c.Request.Context(), req.SourceURL)
	metrics.RecordProbe(probeStatus(err), time.Since(start).Seconds())
	api.log.LogProbe(asset.ID, descriptor.Summary(), time.Since(start), err)

	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("Failed to probe source: %v", err)})
		return
	}

	asset.FrameWidth = descriptor.FrameWidth
	asset.FrameHeight = descriptor.FrameHeight
	asset.IsStereo = descriptor.IsStereo
	asset.Projection = descriptor.Projection
	asset.HorizontalFOV = descriptor.HorizontalFOVDegrees
	asset.Extensions = ext
	asset.Status = models.AssetStatusProbed

	if err := api.repo.CreateAsset(c.Request.Context(), asset); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create asset: %v", err)})
		return
	}

	if err := api.cache.SetDescriptor(c.Request.Context(), asset.ID, descriptor, api.cacheTTL); err != nil {
		api.log.WithAssetID(asset.ID).ErrorWithErr("Failed to cache descriptor", err)
	}

	c.JSON(http.StatusCreated, asset)
}

func (api *API) getAsset(c *gin.Context) {
	assetID := c.Param("id")

	asset, err := api.repo.GetAsset(c.Request.Context(), assetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (api *API) listAssets(c *gin.Context) {
	limit := 20
	offset := 0

	assets, err := api.repo.ListAssets(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assets": assets,
		"limit":  limit,
		"offset": offset,
	})
}

func (api *API) deleteAsset(c *gin.Context) {
	assetID := c.Param("id")

	if _, err := api.repo.GetAsset(c.Request.Context(), assetID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		return
	}

	// Remove exported artifacts first; a storage failure is logged and
	// does not block record deletion.
	objects, err := api.storage.List(c.Request.Context(), fmt.Sprintf("meshes/%s/", assetID))
	if err != nil {
		api.log.WithAssetID(assetID).ErrorWithErr("Failed to list artifacts", err)
	}
	for _, object := range objects {
		if err := api.storage.Delete(c.Request.Context(), object); err != nil {
			api.log.WithAssetID(assetID).ErrorWithErr("Failed to delete artifact", err)
		}
	}

	if err := api.cache.DeleteDescriptor(c.Request.Context(), assetID); err != nil {
		api.log.WithAssetID(assetID).ErrorWithErr("Failed to evict descriptor", err)
	}
	if err := api.cache.DeleteMesh(c.Request.Context(), assetID); err != nil {
		api.log.WithAssetID(assetID).ErrorWithErr("Failed to evict mesh", err)
	}

	if err := api.repo.DeleteAsset(c.Request.Context(), assetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to delete asset: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted successfully", "asset_id": assetID})
}

// getDescriptor returns the probed descriptor and its resolved form with
// defaults applied.
func (api *API) getDescriptor(c *gin.Context) {
	assetID := c.Param("id")

	descriptor, err := api.cache.GetDescriptor(c.Request.Context(), assetID)
	metrics.RecordCacheAccess("descriptor", err == nil && descriptor != nil)
	if err != nil {
		api.log.WithAssetID(assetID).ErrorWithErr("Descriptor cache read failed", err)
	}

	if descriptor == nil {
		asset, err := api.repo.GetAsset(c.Request.Context(), assetID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		d := asset.Descriptor()
		descriptor = &d

		if err := api.cache.SetDescriptor(c.Request.Context(), assetID, d, api.cacheTTL); err != nil {
			api.log.WithAssetID(assetID).ErrorWithErr("Failed to cache descriptor", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"descriptor": descriptor,
		"resolved":   descriptor.Resolve(),
		"summary":    descriptor.Summary(),
	})
}

// getMesh returns the most recent generated mesh for an asset. The mesh is
// served from cache; a miss means no completed build result is live and
// the caller should check build status instead.
func (api *API) getMesh(c *gin.Context) {
	assetID := c.Param("id")

	mesh, err := api.cache.GetMesh(c.Request.Context(), assetID)
	metrics.RecordCacheAccess("mesh", err == nil && mesh != nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if mesh == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No generated mesh for asset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"asset_id":  assetID,
		"vertices":  mesh.VertexCount(),
		"triangles": mesh.TriangleCount(),
		"mesh":      mesh,
	})
}

// createBuild queues a mesh generation run. Each new build supersedes any
// earlier one for the asset once it completes.
func (api *API) createBuild(c *gin.Context) {
	assetID := c.Param("id")

	if _, err := api.repo.GetAsset(c.Request.Context(), assetID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		return
	}

	build := &models.Build{
		ID:      uuid.New().String(),
		AssetID: assetID,
		Status:  models.BuildStatusQueued,
	}

	if err := api.repo.CreateBuild(c.Request.Context(), build); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create build: %v", err)})
		return
	}

	job := queue.BuildJob{BuildID: build.ID, AssetID: assetID}
	if err := api.queue.PublishBuild(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to queue build: %v", err)})
		return
	}

	c.JSON(http.StatusCreated, build)
}

func (api *API) getBuild(c *gin.Context) {
	buildID := c.Param("id")

	build, err := api.cache.GetBuild(c.Request.Context(), buildID)
	metrics.RecordCacheAccess("build", err == nil && build != nil)
	if build == nil {
		build, err = api.repo.GetBuild(c.Request.Context(), buildID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Build not found"})
			return
		}
	}

	c.JSON(http.StatusOK, build)
}

func (api *API) getAssetBuilds(c *gin.Context) {
	assetID := c.Param("id")

	builds, err := api.repo.GetAssetBuilds(c.Request.Context(), assetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"builds": builds})
}

// getArtifactURL returns a presigned download URL for a completed build's
// exported mesh.
func (api *API) getArtifactURL(c *gin.Context) {
	buildID := c.Param("id")

	build, err := api.repo.GetBuild(c.Request.Context(), buildID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Build not found"})
		return
	}

	if build.Status != models.BuildStatusCompleted || build.ArtifactKey == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "Build has no artifact", "status": build.Status})
		return
	}

	url, err := api.storage.GetURL(c.Request.Context(), build.ArtifactKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to sign URL: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"build_id":     build.ID,
		"artifact_key": build.ArtifactKey,
		"url":          url,
	})
}

func probeStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "completed"
}

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/immersivekit/meshgen/pkg/models"
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks database connectivity
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

// Assets

// CreateAsset creates a new asset record
func (r *Repository) CreateAsset(ctx context.Context, asset *models.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}

	query := `
		INSERT INTO assets (id, filename, source_url, frame_width, frame_height,
		                    is_stereo, projection, horizontal_fov, extensions, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		asset.ID, asset.Filename, asset.SourceURL, asset.FrameWidth, asset.FrameHeight,
		asset.IsStereo, asset.Projection, asset.HorizontalFOV, asset.Extensions, asset.Status,
	).Scan(&asset.CreatedAt, &asset.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// GetAsset retrieves an asset by ID
func (r *Repository) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset

	query := `
		SELECT id, filename, source_url, frame_width, frame_height, is_stereo,
		       projection, horizontal_fov, extensions, status, created_at, updated_at
		FROM assets
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&asset.ID, &asset.Filename, &asset.SourceURL, &asset.FrameWidth, &asset.FrameHeight,
		&asset.IsStereo, &asset.Projection, &asset.HorizontalFOV, &asset.Extensions,
		&asset.Status, &asset.CreatedAt, &asset.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("asset not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &asset, nil
}

// UpdateAsset updates an asset record
func (r *Repository) UpdateAsset(ctx context.Context, asset *models.Asset) error {
	query := `
		UPDATE assets
		SET filename = $2, source_url = $3, frame_width = $4, frame_height = $5,
		    is_stereo = $6, projection = $7, horizontal_fov = $8, extensions = $9,
		    status = $10, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		asset.ID, asset.Filename, asset.SourceURL, asset.FrameWidth, asset.FrameHeight,
		asset.IsStereo, asset.Projection, asset.HorizontalFOV, asset.Extensions, asset.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}

	return nil
}

// ListAssets retrieves all assets with pagination
func (r *Repository) ListAssets(ctx context.Context, limit, offset int) ([]*models.Asset, error) {
	query := `
		SELECT id, filename, source_url, frame_width, frame_height, is_stereo,
		       projection, horizontal_fov, extensions, status, created_at, updated_at
		FROM assets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		var asset models.Asset
		err := rows.Scan(
			&asset.ID, &asset.Filename, &asset.SourceURL, &asset.FrameWidth, &asset.FrameHeight,
			&asset.IsStereo, &asset.Projection, &asset.HorizontalFOV, &asset.Extensions,
			&asset.Status, &asset.CreatedAt, &asset.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, &asset)
	}

	return assets, nil
}

// DeleteAsset deletes an asset record
func (r *Repository) DeleteAsset(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// Builds

// CreateBuild creates a new build record
func (r *Repository) CreateBuild(ctx context.Context, build *models.Build) error {
	if build.ID == "" {
		build.ID = uuid.New().String()
	}

	query := `
		INSERT INTO builds (id, asset_id, status, error_msg, projection,
		                    vertex_count, triangles, artifact_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		build.ID, build.AssetID, build.Status, build.ErrorMsg, build.Projection,
		build.VertexCount, build.Triangles, build.ArtifactKey,
	).Scan(&build.CreatedAt, &build.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create build: %w", err)
	}

	return nil
}

// GetBuild retrieves a build by ID
func (r *Repository) GetBuild(ctx context.Context, id string) (*models.Build, error) {
	var build models.Build

	query := `
		SELECT id, asset_id, status, error_msg, projection, vertex_count, triangles,
		       artifact_key, started_at, completed_at, created_at, updated_at
		FROM builds
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&build.ID, &build.AssetID, &build.Status, &build.ErrorMsg, &build.Projection,
		&build.VertexCount, &build.Triangles, &build.ArtifactKey,
		&build.StartedAt, &build.CompletedAt, &build.CreatedAt, &build.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("build not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	return &build, nil
}

// UpdateBuild updates a build record
func (r *Repository) UpdateBuild(ctx context.Context, build *models.Build) error {
	query := `
		UPDATE builds
		SET status = $2, error_msg = $3, projection = $4, vertex_count = $5,
		    triangles = $6, artifact_key = $7, started_at = $8, completed_at = $9,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		build.ID, build.Status, build.ErrorMsg, build.Projection, build.VertexCount,
		build.Triangles, build.ArtifactKey, build.StartedAt, build.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update build: %w", err)
	}

	return nil
}

// GetAssetBuilds retrieves all builds for an asset, newest first
func (r *Repository) GetAssetBuilds(ctx context.Context, assetID string) ([]*models.Build, error) {
	query := `
		SELECT id, asset_id, status, error_msg, projection, vertex_count, triangles,
		       artifact_key, started_at, completed_at, created_at, updated_at
		FROM builds
		WHERE asset_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []*models.Build
	for rows.Next() {
		var build models.Build
		err := rows.Scan(
			&build.ID, &build.AssetID, &build.Status, &build.ErrorMsg, &build.Projection,
			&build.VertexCount, &build.Triangles, &build.ArtifactKey,
			&build.StartedAt, &build.CompletedAt, &build.CreatedAt, &build.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, &build)
	}

	return builds, nil
}

// GetLatestBuild retrieves the most recent build for an asset. A newer
// build supersedes older ones, so consumers should only ever read this
// one.
func (r *Repository) GetLatestBuild(ctx context.Context, assetID string) (*models.Build, error) {
	var build models.Build

	query := `
		SELECT id, asset_id, status, error_msg, projection, vertex_count, triangles,
		       artifact_key, started_at, completed_at, created_at, updated_at
		FROM builds
		WHERE asset_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.Pool.QueryRow(ctx, query, assetID).Scan(
		&build.ID, &build.AssetID, &build.Status, &build.ErrorMsg, &build.Projection,
		&build.VertexCount, &build.Triangles, &build.ArtifactKey,
		&build.StartedAt, &build.CompletedAt, &build.CreatedAt, &build.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("build not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	return &build, nil
}

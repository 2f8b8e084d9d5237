package models

import "github.com/go-gl/mathgl/mgl32"

// Placement positions a generated mesh relative to the viewer: a
// (possibly non-uniform) scale, a rotation expressed as axis plus angle,
// and a translation, applied in that order.
type Placement struct {
	Scale         mgl32.Vec3 `json:"scale"`
	RotationAxis  mgl32.Vec3 `json:"rotation_axis"`
	RotationAngle float32    `json:"rotation_angle"` // radians
	Translation   mgl32.Vec3 `json:"translation"`
}

// Rotation returns the placement rotation as a quaternion.
func (p Placement) Rotation() mgl32.Quat {
	return mgl32.QuatRotate(p.RotationAngle, p.RotationAxis)
}

// GeneratedMesh is a renderable surface produced for one video descriptor:
// index-aligned position, normal and UV buffers, a triangle index list,
// and the placement that positions the surface for the viewer. The
// rendering collaborator owns the buffers once the mesh is handed off.
type GeneratedMesh struct {
	Positions []mgl32.Vec3 `json:"positions"`
	Normals   []mgl32.Vec3 `json:"normals"`
	UVs       []mgl32.Vec2 `json:"uvs"`
	Indices   []uint32     `json:"indices"`
	Placement Placement    `json:"placement"`
}

// VertexCount returns the number of vertices in the mesh.
func (m *GeneratedMesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles in the index list.
func (m *GeneratedMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// pkg/core/vector.go
package core

// Vec3f is a 3D vector using floating point components, as stored in game memory.
type Vec3f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Vec3i is a 3D vector of quantized integer components.
type Vec3i struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// Equal reports exact component-wise equality.
func (v Vec3f) Equal(o Vec3f) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// Equal reports exact component-wise equality.
func (v Vec3i) Equal(o Vec3i) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// Package quant converts game units into the fixed-point integers used by GST packets.
package quant

import "github.com/galaxygst/galaxygst/pkg/core"

// Fixed shifts per semantic field. The track weight shift is format specific
// and lives on the format profile.
const (
	ShiftPosition = -2
	ShiftRotation = 7
	ShiftScale    = 3
	ShiftVelocity = 0
	ShiftBckFrame = 2
	ShiftBckRate  = 3
)

// WeightSaturated is what a track weight of exactly 1.0 encodes to.
const WeightSaturated = -128

// ShiftRatio returns the power-of-two scale factor for shift.
func ShiftRatio(shift int) float64 {
	if shift >= 0 {
		return float64(int64(256)<<shift) * (1.0 / 256)
	}
	return float64(int64(256)>>-shift) * (1.0 / 256)
}

// Quantize scales value by the shift ratio and truncates toward zero.
func Quantize(value float32, shift int) int32 {
	return int32(float64(value) * ShiftRatio(shift))
}

// Dequantize is the inverse scale of Quantize, without recovering the truncated part.
func Dequantize(q int32, shift int) float32 {
	return float32(float64(q) / ShiftRatio(shift))
}

// Clamp limits value to [lo, hi].
func Clamp(lo, hi, value float32) float32 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Rotation quantizes an angle in degrees after clamping it to [-180, 180].
func Rotation(deg float32) int32 {
	return Quantize(Clamp(-180, 180, deg), ShiftRotation)
}

// Weight quantizes a track blend weight. 1.0 saturates to WeightSaturated.
func Weight(w float32, shift int) int32 {
	if w == 1.0 {
		return WeightSaturated
	}
	return Quantize(w, shift)
}

// Vec quantizes every component of v with the same shift.
func Vec(v core.Vec3f, shift int) core.Vec3i {
	return core.Vec3i{
		X: Quantize(v.X, shift),
		Y: Quantize(v.Y, shift),
		Z: Quantize(v.Z, shift),
	}
}

// RotationVec quantizes each axis of a rotation vector.
func RotationVec(v core.Vec3f) core.Vec3i {
	return core.Vec3i{X: Rotation(v.X), Y: Rotation(v.Y), Z: Rotation(v.Z)}
}

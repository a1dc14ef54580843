package quant

import (
	"math"
	"testing"

	"github.com/galaxygst/galaxygst/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestShiftRatio(t *testing.T) {
	tests := []struct {
		shift int
		want  float64
	}{
		{-2, 0.25},
		{-1, 0.5},
		{0, 1},
		{2, 4},
		{3, 8},
		{7, 128},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShiftRatio(tt.shift), "shift %d", tt.shift)
	}
}

func TestQuantize_TruncatesTowardZero(t *testing.T) {
	assert.Equal(t, int32(2), Quantize(11.9, ShiftPosition))
	assert.Equal(t, int32(-2), Quantize(-11.9, ShiftPosition))
	assert.Equal(t, int32(0), Quantize(3.99, ShiftPosition))
	assert.Equal(t, int32(12), Quantize(1.5, ShiftScale))
	assert.Equal(t, int32(-7), Quantize(-1.99, 2))
}

func TestQuantize_RoundTripBound(t *testing.T) {
	values := []float32{0, 0.1, -0.1, 1, 3.14159, -42.75, 1000.5, -17.001, 179.9}
	shifts := []int{-2, 0, 2, 3, 7}
	for _, s := range shifts {
		step := 1 / ShiftRatio(s)
		for _, v := range values {
			q := Quantize(v, s)
			assert.Equal(t, q, Quantize(v, s), "deterministic")
			back := float64(Dequantize(q, s))
			assert.Less(t, math.Abs(back-float64(v)), step+1e-6, "v=%v shift=%d", v, s)
		}
	}
}

func TestRotation_Clamps(t *testing.T) {
	assert.Equal(t, int32(180*128), Rotation(720))
	assert.Equal(t, int32(-180*128), Rotation(-500))
	assert.Equal(t, int32(90*128), Rotation(90))
}

func TestWeight_Saturates(t *testing.T) {
	for _, shift := range []int{3, 7} {
		assert.Equal(t, int32(-128), Weight(1.0, shift), "shift %d", shift)
	}
	assert.Equal(t, int32(4), Weight(0.5, 3))
	assert.Equal(t, int32(64), Weight(0.5, 7))
	assert.Equal(t, int32(0), Weight(0, 7))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(-1), Clamp(-1, 1, -5))
	assert.Equal(t, float32(1), Clamp(-1, 1, 5))
	assert.Equal(t, float32(0.5), Clamp(-1, 1, 0.5))
}

func TestVec(t *testing.T) {
	got := Vec(core.Vec3f{X: 100, Y: -8, Z: 2}, ShiftPosition)
	assert.Equal(t, core.Vec3i{X: 25, Y: -2, Z: 0}, got)
	assert.Equal(t, core.Vec3i{X: 128, Y: 0, Z: -128}, RotationVec(core.Vec3f{X: 1, Y: 0, Z: -1}))
}

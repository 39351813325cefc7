package event

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value int32
		min   int32
		max   int32
		want  float64
	}{
		{"正の最大値", 32767, -32768, 32767, 1.0},
		{"負の最小値", -32768, -32768, 32767, -1.0},
		{"中立", 0, -32768, 32767, 0},
		{"正の半分", 64, -128, 128, 0.5},
		{"負の半分", -64, -128, 128, -0.5},
		{"非対称な範囲の正側", 1, -2, 4, 0.25},
		{"非対称な範囲の負側", -1, -2, 4, -0.5},
		{"範囲超過は1に切り詰め", 300, -100, 100, 1.0},
		{"範囲超過は-1に切り詰め", -300, -100, 100, -1.0},
		{"最大値ゼロ", 5, 0, 0, 0},
		{"最小値ゼロ", -5, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.value, tt.min, tt.max)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Normalize(%d, %d, %d) = %v, want %v", tt.value, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

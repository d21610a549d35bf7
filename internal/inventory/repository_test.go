package inventory

import "testing"

func TestClampQuantity(t *testing.T) {
	tests := []struct {
		name    string
		current int32
		delta   int32
		want    int32
	}{
		{"positive delta adds", 10, 5, 15},
		{"negative delta within stock", 10, -4, 6},
		{"exact drain lands on zero", 10, -10, 0},
		{"overdraw clamps at zero", 3, -10, 0},
		{"zero stays zero", 0, -1, 0},
		{"delta from empty stock", 0, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampQuantity(tt.current, tt.delta); got != tt.want {
				t.Errorf("clampQuantity(%d, %d) = %d, want %d",
					tt.current, tt.delta, got, tt.want)
			}
		})
	}
}

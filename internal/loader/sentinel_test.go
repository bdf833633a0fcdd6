package loader

import "testing"

func TestSentinelVisible(t *testing.T) {
	def := DefaultSentinel()
	tall := Sentinel{Margin: 0, Threshold: 0.5, Height: 4}

	tests := []struct {
		name            string
		s               Sentinel
		top, height, at int
		want            bool
	}{
		{"inside viewport", def, 0, 20, 10, true},
		{"just below viewport within margin", def, 0, 20, 24, true},
		{"beyond margin", def, 0, 20, 25, false},
		{"above viewport within margin", def, 10, 20, 5, true},
		{"above viewport beyond margin", def, 10, 20, 4, false},
		{"empty viewport", def, 0, 0, 0, false},
		{"half of tall sentinel visible", tall, 0, 10, 8, true},
		{"quarter of tall sentinel visible", tall, 0, 10, 9, false},
		{"zero height defaults to one row", Sentinel{Threshold: 1}, 0, 5, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Visible(tt.top, tt.height, tt.at); got != tt.want {
				t.Fatalf("Visible(top=%d, height=%d, at=%d) = %v, want %v", tt.top, tt.height, tt.at, got, tt.want)
			}
		})
	}
}

package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDist(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Point
		want float64
	}{
		{"same point", orb.Point{0.5, 0.5}, orb.Point{0.5, 0.5}, 0},
		{"horizontal", orb.Point{0.2, 0.2}, orb.Point{0.5, 0.2}, 0.3},
		{"vertical", orb.Point{0.5, 0.2}, orb.Point{0.5, 0.5}, 0.3},
		{"diagonal 3-4-5", orb.Point{0, 0}, orb.Point{0.3, 0.4}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dist(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Dist = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointToSegmentDist(t *testing.T) {
	tests := []struct {
		name      string
		p, a, b   orb.Point
		wantDist  float64
		wantRatio float64
	}{
		{
			name: "point on segment",
			p:    orb.Point{0.5, 0.2},
			a:    orb.Point{0.2, 0.2}, b: orb.Point{0.8, 0.2},
			wantDist: 0, wantRatio: 0.5,
		},
		{
			name: "perpendicular above midpoint",
			p:    orb.Point{0.5, 0.1},
			a:    orb.Point{0.2, 0.2}, b: orb.Point{0.8, 0.2},
			wantDist: 0.1, wantRatio: 0.5,
		},
		{
			name: "beyond segment end clamps to endpoint",
			p:    orb.Point{0.9, 0.2},
			a:    orb.Point{0.2, 0.2}, b: orb.Point{0.8, 0.2},
			wantDist: 0.1, wantRatio: 1,
		},
		{
			name: "before segment start clamps to start",
			p:    orb.Point{0.1, 0.2},
			a:    orb.Point{0.2, 0.2}, b: orb.Point{0.8, 0.2},
			wantDist: 0.1, wantRatio: 0,
		},
		{
			name: "degenerate segment",
			p:    orb.Point{0.4, 0.2},
			a:    orb.Point{0.2, 0.2}, b: orb.Point{0.2, 0.2},
			wantDist: 0.2, wantRatio: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, ratio := PointToSegmentDist(tt.p, tt.a, tt.b)
			if math.Abs(dist-tt.wantDist) > 1e-12 {
				t.Errorf("dist = %v, want %v", dist, tt.wantDist)
			}
			if math.Abs(ratio-tt.wantRatio) > 1e-12 {
				t.Errorf("ratio = %v, want %v", ratio, tt.wantRatio)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Point
		want float64
	}{
		{"up", orb.Point{0.5, 0.5}, orb.Point{0.5, 0.2}, 0},
		{"right", orb.Point{0.2, 0.5}, orb.Point{0.8, 0.5}, 90},
		{"down", orb.Point{0.5, 0.2}, orb.Point{0.5, 0.8}, 180},
		{"left", orb.Point{0.8, 0.5}, orb.Point{0.2, 0.5}, 270},
		{"up-right diagonal", orb.Point{0.2, 0.5}, orb.Point{0.5, 0.2}, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Bearing = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTurnAngle(t *testing.T) {
	tests := []struct {
		name            string
		facing, bearing float64
		want            float64
	}{
		{"no turn", 90, 90, 0},
		{"right angle clockwise", 90, 180, 90},
		{"right angle counter-clockwise", 90, 0, -90},
		{"wraps across north going right", 350, 10, 20},
		{"wraps across north going left", 10, 350, -20},
		{"u-turn maps to +180", 0, 180, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TurnAngle(tt.facing, tt.bearing)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TurnAngle(%v, %v) = %v, want %v", tt.facing, tt.bearing, got, tt.want)
			}
		})
	}
}

// Package directions turns a composed route polyline into numbered
// natural-language walking instructions.
package directions

import (
	"fmt"
	"math"

	"campusnav/pkg/floorplan"
	"campusnav/pkg/geo"
	"campusnav/pkg/routing"
)

// DefaultWalkingSpeed is the assumed walking speed in feet per second.
const DefaultWalkingSpeed = 4.0

// straightThreshold is the turn angle below which a segment reads as
// "continue straight" rather than a turn.
const straightThreshold = 30.0

// Generator produces instruction strings for routes. It is pure: the
// same route, calibration, and speed always yield identical output.
type Generator struct {
	cal   floorplan.Calibration
	speed float64
}

// New creates a generator. A non-positive speed falls back to
// DefaultWalkingSpeed.
func New(cal floorplan.Calibration, speedFtPerSec float64) *Generator {
	if speedFtPerSec <= 0 {
		speedFtPerSec = DefaultWalkingSpeed
	}
	return &Generator{cal: cal, speed: speedFtPerSec}
}

// Directions walks the polyline and emits one step per segment plus a
// trailing summary. Turns are relative to the walker: a running facing
// bearing starts at the first segment's bearing and is updated after
// every segment, so turns compound along a corridor walk instead of
// comparing against the initial heading. Positive turn angles are right
// turns, negative are left (east-then-south in image space is a right
// turn). Routes with fewer than two points yield nothing.
func (g *Generator) Directions(route []routing.RoutePoint) []string {
	if len(route) < 2 {
		return nil
	}

	steps := make([]string, 0, len(route))
	facing := geo.Bearing(route[0].At, route[1].At)
	totalFeet := 0.0

	for i := 0; i < len(route)-1; i++ {
		from := route[i]
		to := route[i+1]
		feet := g.cal.FeetBetween(from.At, to.At)
		totalFeet += feet
		last := i == len(route)-2

		// A zero-length segment has no direction; it only happens when
		// the destination sits on its anchor waypoint.
		if from.At == to.At {
			steps = append(steps, fmt.Sprintf("Arrive at %s", to.Name))
			continue
		}

		bearing := geo.Bearing(from.At, to.At)
		turn := geo.TurnAngle(facing, bearing)
		facing = bearing

		var step string
		switch {
		case i == 0:
			step = fmt.Sprintf("From %s, walk %.0f feet", from.Name, feet)
		case math.Abs(turn) < straightThreshold:
			step = fmt.Sprintf("Continue straight for %.0f feet", feet)
		case turn > 0:
			step = fmt.Sprintf("Turn right and walk %.0f feet", feet)
		default:
			step = fmt.Sprintf("Turn left and walk %.0f feet", feet)
		}
		if last {
			step += fmt.Sprintf(" to %s", to.Name)
		}
		steps = append(steps, step)
	}

	seconds := int(math.Ceil(totalFeet / g.speed))
	steps = append(steps, fmt.Sprintf("Total distance: %.0f feet, about %d seconds of walking", totalFeet, seconds))
	return steps
}

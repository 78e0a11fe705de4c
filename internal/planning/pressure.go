package planning

import "math"

// PressureConfig controls how page pressure responds to page counts.
// Overflow ramps pressure up quickly; a one-page result eases it slowly.
type PressureConfig struct {
	Initial  float64
	Floor    float64
	Ceiling  float64
	RampUp   float64
	CoolDown float64
}

// DefaultPressureConfig returns the standard pressure dynamics
func DefaultPressureConfig() PressureConfig {
	return PressureConfig{
		Initial:  0.4,
		Floor:    0.4,
		Ceiling:  0.95,
		RampUp:   0.20,
		CoolDown: 0.05,
	}
}

// Update returns the pressure after observing pageCount
func (c PressureConfig) Update(pressure float64, pageCount int) float64 {
	if pageCount > 1 {
		return round4(math.Min(c.Ceiling, pressure+c.RampUp))
	}
	return round4(math.Max(c.Floor, pressure-c.CoolDown))
}

// round4 trims float noise so that 0.4+0.2 lands exactly on 0.6
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

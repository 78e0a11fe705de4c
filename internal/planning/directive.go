package planning

// Directive is the single point where the pressure tier and the escalation
// level meet. It is handed to the compressor, the rewriter and the renderer.
type Directive struct {
	Pressure     float64    `json:"pressure"`
	Tier         Tier       `json:"tier"`
	Level        Level      `json:"level"`
	Limits       TierLimits `json:"limits"`
	Layout       Layout     `json:"layout"`
	Instructions string     `json:"instructions"`
	// Feedback carries reviewer suggestions into the next attempt
	Feedback []string `json:"feedback,omitempty"`
}

// NewDirective builds a directive for the given pressure and level
func NewDirective(pressure float64, level Level, table TierTable) Directive {
	tier := table.TierFor(pressure)
	limits := table.LimitsFor(tier)
	return Directive{
		Pressure:     pressure,
		Tier:         tier,
		Level:        level,
		Limits:       limits,
		Layout:       table.LayoutFor(tier),
		Instructions: limits.Instructions,
	}
}

// WithFeedback returns a copy carrying reviewer suggestions
func (d Directive) WithFeedback(feedback []string) Directive {
	d.Feedback = append([]string(nil), feedback...)
	return d
}

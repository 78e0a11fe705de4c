package control

// Policy holds the pass thresholds and loop limits
type Policy struct {
	MaxIterations      int
	PassScore          int
	TwoPagePassScore   int
	TwoPageMinPressure float64
	// StagnationWindow is how many trailing scores are compared by the stuck-loop guard
	StagnationWindow int
}

// DefaultPolicy returns the standard thresholds
func DefaultPolicy() Policy {
	return Policy{
		MaxIterations:      5,
		PassScore:          90,
		TwoPagePassScore:   92,
		TwoPageMinPressure: 0.85,
		StagnationWindow:   3,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxIterations <= 0 {
		p.MaxIterations = d.MaxIterations
	}
	if p.PassScore <= 0 {
		p.PassScore = d.PassScore
	}
	if p.TwoPagePassScore <= 0 {
		p.TwoPagePassScore = d.TwoPagePassScore
	}
	if p.TwoPageMinPressure <= 0 {
		p.TwoPageMinPressure = d.TwoPageMinPressure
	}
	if p.StagnationWindow <= 0 {
		p.StagnationWindow = d.StagnationWindow
	}
	return p
}

// PagePenalty is the score adjustment for a page count:
// 1 page 0, 2 pages -6, n>=3 pages -15-(n-3)*5
func PagePenalty(pages int) int {
	switch {
	case pages <= 1:
		return 0
	case pages == 2:
		return -6
	default:
		return -15 - (pages-3)*5
	}
}

// Passes applies the pass policy. Two pages pass only under high pressure,
// a high score and an explicit reviewer justification; three or more never do.
func (p Policy) Passes(pages, adjustedScore int, pressure float64, twoPagesJustified bool) bool {
	switch {
	case pages <= 1:
		return adjustedScore >= p.PassScore
	case pages == 2:
		return pressure >= p.TwoPageMinPressure && adjustedScore >= p.TwoPagePassScore && twoPagesJustified
	default:
		return false
	}
}

// Stagnated reports whether the last window scores never rose above the
// first of them
func (p Policy) Stagnated(scores []int) bool {
	w := p.StagnationWindow
	if w <= 0 || len(scores) < w {
		return false
	}
	tail := scores[len(scores)-w:]
	for _, s := range tail {
		if s > tail[0] {
			return false
		}
	}
	return true
}

// ShouldContinue decides whether the loop runs another iteration
func (p Policy) ShouldContinue(s State) bool {
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = p.MaxIterations
	}
	switch {
	case s.Error != "" || s.Status == StatusError:
		return false
	case s.Iteration >= maxIter:
		return false
	case s.Passed():
		return false
	case p.Stagnated(s.ScoreHistory):
		return false
	}
	return s.Status == StatusNeedsRegeneration || s.Status == StatusNeedsImprovement
}

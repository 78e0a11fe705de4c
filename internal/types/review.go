package types

// Score dimension caps
const (
	MaxRoleAlignment     = 30
	MaxClarityImpact     = 25
	MaxATSOptimization   = 20
	MaxFormattingDensity = 15
	MaxGrammarSafety     = 10
)

// Scores holds the five review dimensions. Their maxima sum to 100.
type Scores struct {
	RoleAlignment     int `json:"role_alignment"`
	ClarityImpact     int `json:"clarity_impact"`
	ATSOptimization   int `json:"ats_optimization"`
	FormattingDensity int `json:"formatting_density"`
	GrammarSafety     int `json:"grammar_safety"`
}

// Total sums the dimensions
func (s Scores) Total() int {
	return s.RoleAlignment + s.ClarityImpact + s.ATSOptimization + s.FormattingDensity + s.GrammarSafety
}

// Clamp bounds every dimension to its range
func (s Scores) Clamp() Scores {
	return Scores{
		RoleAlignment:     clampInt(s.RoleAlignment, 0, MaxRoleAlignment),
		ClarityImpact:     clampInt(s.ClarityImpact, 0, MaxClarityImpact),
		ATSOptimization:   clampInt(s.ATSOptimization, 0, MaxATSOptimization),
		FormattingDensity: clampInt(s.FormattingDensity, 0, MaxFormattingDensity),
		GrammarSafety:     clampInt(s.GrammarSafety, 0, MaxGrammarSafety),
	}
}

// Review is what a quality reviewer returns for one rendered document
type Review struct {
	Scores            Scores   `json:"scores"`
	Issues            []string `json:"issues,omitempty"`
	Suggestions       []string `json:"suggestions,omitempty"`
	NeedsImprovement  bool     `json:"needs_improvement"`
	TwoPagesJustified bool     `json:"two_pages_justified"`
	// Source names the reviewer that produced this result ("llm" or "rules")
	Source string `json:"source,omitempty"`
}

// Evaluation is the outcome of one evaluating step
type Evaluation struct {
	Scores        Scores `json:"scores"`
	RawScore      int    `json:"raw_score"`
	PagePenalty   int    `json:"page_penalty"`
	AdjustedScore int    `json:"adjusted_score"`
	Passed        bool   `json:"passed"`
	PageCount     int    `json:"page_count"`
	RolledBack    bool   `json:"rolled_back"`

	NeedsImprovement  bool     `json:"needs_improvement"`
	TwoPagesJustified bool     `json:"two_pages_justified"`
	Issues            []string `json:"issues,omitempty"`
	Suggestions       []string `json:"suggestions,omitempty"`
	ReviewSource      string   `json:"review_source,omitempty"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

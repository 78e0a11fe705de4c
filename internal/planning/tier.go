// Package planning decides how hard to compress a resume. Page pressure maps
// to a compression Tier and the escalation Level maps to a structural Plan.
// The two signals stay separate until a Directive combines them.
package planning

import (
	"fmt"
	"strings"
)

// Tier is the compression bucket derived from page pressure
type Tier int

// Tier constants, least to most aggressive
const (
	TierLight Tier = iota
	TierMedium
	TierAggressive
	TierMaximum
)

var tierNames = [...]string{"light", "medium", "aggressive", "maximum"}

func (t Tier) String() string {
	if t < TierLight || t > TierMaximum {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// MarshalText encodes the tier by name
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier parses a tier name case-insensitively
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if strings.EqualFold(s, name) {
			return Tier(i), nil
		}
	}
	return TierLight, fmt.Errorf("unknown compression tier %q", s)
}

// NoLimit marks an uncapped count in TierLimits
const NoLimit = -1

// OptionalSection names a section that may be dropped under pressure
type OptionalSection string

// Optional sections
const (
	OptionalAchievements    OptionalSection = "achievements"
	OptionalCertifications  OptionalSection = "certifications"
	OptionalExtracurricular OptionalSection = "extracurricular"
)

// TierLimits are the caps applied in tier-driven compression
type TierLimits struct {
	MaxExperienceBullets int `json:"max_experience_bullets"`
	MaxProjectBullets    int `json:"max_project_bullets"`
	MaxExperiences       int `json:"max_experiences"`
	MaxProjects          int `json:"max_projects"`

	// OptionalRemovable allows RemoveSections and StripEducation to take effect
	OptionalRemovable bool              `json:"optional_removable"`
	RemoveSections    []OptionalSection `json:"remove_sections,omitempty"`
	StripEducation    bool              `json:"strip_education"`
	MaxCoursework     int               `json:"max_coursework"`
	Instructions      string            `json:"instructions"`
}

// Thresholds are the lower pressure bounds of each tier above light
type Thresholds struct {
	Medium     float64
	Aggressive float64
	Maximum    float64
}

// TierTable is the immutable tier configuration
type TierTable struct {
	Thresholds Thresholds
	Limits     map[Tier]TierLimits
	Layouts    map[Tier]Layout
}

// DefaultTierTable returns the standard thresholds, caps and layouts
func DefaultTierTable() TierTable {
	return TierTable{
		Thresholds: Thresholds{Medium: 0.45, Aggressive: 0.6, Maximum: 0.8},
		Limits: map[Tier]TierLimits{
			TierLight: {
				MaxExperienceBullets: 5,
				MaxProjectBullets:    4,
				MaxExperiences:       NoLimit,
				MaxProjects:          NoLimit,
				MaxCoursework:        NoLimit,
				Instructions:         "Light compression: refine wording, remove redundancy, keep the full meaning of every bullet.",
			},
			TierMedium: {
				MaxExperienceBullets: 3,
				MaxProjectBullets:    3,
				MaxExperiences:       4,
				MaxProjects:          4,
				MaxCoursework:        NoLimit,
				Instructions:         "Medium compression: one line per bullet, 15-20 words, convert sentences to phrases.",
			},
			TierAggressive: {
				MaxExperienceBullets: 2,
				MaxProjectBullets:    2,
				MaxExperiences:       3,
				MaxProjects:          3,
				OptionalRemovable:    true,
				RemoveSections:       []OptionalSection{OptionalAchievements},
				MaxCoursework:        NoLimit,
				Instructions:         "Aggressive compression: 12-16 words per bullet, every bullet keeps its metric.",
			},
			TierMaximum: {
				MaxExperienceBullets: 2,
				MaxProjectBullets:    2,
				MaxExperiences:       3,
				MaxProjects:          3,
				OptionalRemovable:    true,
				RemoveSections: []OptionalSection{
					OptionalAchievements, OptionalCertifications, OptionalExtracurricular,
				},
				StripEducation: true,
				MaxCoursework:  3,
				Instructions:   "Maximum compression: 10-14 words per bullet, strictly one line, keep every number and technology name.",
			},
		},
		Layouts: DefaultLayouts(),
	}
}

// TierFor maps pressure to a tier: <medium light, <aggressive medium, <maximum aggressive, else maximum
func (t TierTable) TierFor(pressure float64) Tier {
	switch {
	case pressure < t.Thresholds.Medium:
		return TierLight
	case pressure < t.Thresholds.Aggressive:
		return TierMedium
	case pressure < t.Thresholds.Maximum:
		return TierAggressive
	default:
		return TierMaximum
	}
}

// LimitsFor returns the caps for a tier
func (t TierTable) LimitsFor(tier Tier) TierLimits {
	if l, ok := t.Limits[tier]; ok {
		return l
	}
	return t.Limits[TierMaximum]
}

// LayoutFor returns the layout for a tier
func (t TierTable) LayoutFor(tier Tier) Layout {
	if l, ok := t.Layouts[tier]; ok {
		return l
	}
	return t.Layouts[TierMaximum]
}

// CompressionTier maps pressure to a tier using the default thresholds
func CompressionTier(pressure float64) Tier {
	return DefaultTierTable().TierFor(pressure)
}

// Cap returns min(n, limit), treating a negative limit as uncapped
func Cap(n, limit int) int {
	if limit < 0 || n <= limit {
		return n
	}
	return limit
}

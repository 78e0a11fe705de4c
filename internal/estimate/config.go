// Package estimate predicts how many rendered lines a resume will occupy
// without rendering it.
package estimate

// Section identifies a resume section in line estimates
type Section string

// Section constants in render order
const (
	SectionHeader          Section = "header"
	SectionEducation       Section = "education"
	SectionExperience      Section = "experience"
	SectionProjects        Section = "projects"
	SectionSkills          Section = "skills"
	SectionExtracurricular Section = "extracurricular"
	SectionCertifications  Section = "certifications"
	SectionAchievements    Section = "achievements"
	// SectionOptional is the combined budget for certifications and achievements
	SectionOptional Section = "optional"
)

// Sections lists the estimated sections in render order
var Sections = []Section{
	SectionHeader,
	SectionEducation,
	SectionExperience,
	SectionProjects,
	SectionSkills,
	SectionExtracurricular,
	SectionCertifications,
	SectionAchievements,
}

// Config holds the estimation constants
type Config struct {
	CharsPerLine     int
	TargetTotalLines int
	HeaderLines      int
	// Budgets are soft per-section targets used to find sections worth compressing
	Budgets map[Section]int
}

// DefaultConfig returns the default one-page letter-size budget
func DefaultConfig() Config {
	return Config{
		CharsPerLine:     90,
		TargetTotalLines: 48,
		HeaderLines:      4,
		Budgets: map[Section]int{
			SectionHeader:          4,
			SectionEducation:       5,
			SectionExperience:      13,
			SectionProjects:        13,
			SectionSkills:          5,
			SectionExtracurricular: 3,
			SectionOptional:        4,
		},
	}
}

// withDefaults fills zero values so a partially specified config still estimates sanely
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CharsPerLine <= 0 {
		c.CharsPerLine = d.CharsPerLine
	}
	if c.TargetTotalLines <= 0 {
		c.TargetTotalLines = d.TargetTotalLines
	}
	if c.HeaderLines <= 0 {
		c.HeaderLines = d.HeaderLines
	}
	if c.Budgets == nil {
		c.Budgets = d.Budgets
	}
	return c
}

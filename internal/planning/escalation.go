package planning

import "fmt"

// Level is the structural escalation level. It only rises within a run.
type Level int

// Escalation levels; each includes every action of the levels below it
const (
	LevelRewrite Level = iota
	LevelReduceBullets
	LevelReduceItems
	LevelTrimSections

	MaxLevel = LevelTrimSections
)

var levelNames = [...]string{"rewrite", "reduce_bullets", "reduce_items", "trim_sections"}

func (l Level) String() string {
	if l < LevelRewrite || l > MaxLevel {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Escalate returns the next level, capped at MaxLevel
func (l Level) Escalate() Level {
	if l >= MaxLevel {
		return MaxLevel
	}
	return l + 1
}

// SectionLimit caps item count and bullets per item for one section
type SectionLimit struct {
	MaxItems   int `json:"max_items"`
	MaxBullets int `json:"max_bullets"`
}

// LevelLimits holds the per-section caps of one escalation level
type LevelLimits struct {
	Experience SectionLimit `json:"experience"`
	Projects   SectionLimit `json:"projects"`
	Education  SectionLimit `json:"education"`
}

// EscalationTable maps each level to its caps
type EscalationTable map[Level]LevelLimits

// DefaultEscalationTable returns the standard per-level caps
func DefaultEscalationTable() EscalationTable {
	return EscalationTable{
		LevelRewrite: {
			Experience: SectionLimit{MaxItems: 4, MaxBullets: 4},
			Projects:   SectionLimit{MaxItems: 4, MaxBullets: 3},
			Education:  SectionLimit{MaxItems: 2, MaxBullets: 3},
		},
		LevelReduceBullets: {
			Experience: SectionLimit{MaxItems: 3, MaxBullets: 3},
			Projects:   SectionLimit{MaxItems: 3, MaxBullets: 2},
			Education:  SectionLimit{MaxItems: 2, MaxBullets: 2},
		},
		LevelReduceItems: {
			Experience: SectionLimit{MaxItems: 2, MaxBullets: 2},
			Projects:   SectionLimit{MaxItems: 3, MaxBullets: 2},
			Education:  SectionLimit{MaxItems: 2, MaxBullets: 1},
		},
		LevelTrimSections: {
			Experience: SectionLimit{MaxItems: 2, MaxBullets: 2},
			Projects:   SectionLimit{MaxItems: 2, MaxBullets: 2},
			Education:  SectionLimit{MaxItems: 1, MaxBullets: 0},
		},
	}
}

// For returns the caps of a level, falling back to the highest configured level
func (t EscalationTable) For(l Level) LevelLimits {
	if limits, ok := t[l]; ok {
		return limits
	}
	return t[MaxLevel]
}

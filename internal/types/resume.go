// Package types provides type definitions for structured data used throughout the resume-compressor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// PersonalInfo is the contact block rendered at the top of the resume
type PersonalInfo struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Education represents a degree entry
type Education struct {
	Institution  string   `json:"institution"`
	Degree       string   `json:"degree"`
	FieldOfStudy string   `json:"field_of_study,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	GPA          string   `json:"gpa,omitempty"`
	Coursework   []string `json:"coursework,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

// Experience represents a single role at a company
type Experience struct {
	Company      string   `json:"company"`
	Title        string   `json:"title"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	IsCurrent    bool     `json:"is_current,omitempty"`
	Bullets      []string `json:"bullets"`
	Technologies []string `json:"technologies,omitempty"`
}

// Project represents a personal or academic project
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Bullets      []string `json:"bullets"`
	Technologies []string `json:"technologies,omitempty"`
}

// Certification represents a professional certification
type Certification struct {
	Name         string `json:"name"`
	Issuer       string `json:"issuer,omitempty"`
	Date         string `json:"date,omitempty"`
	URL          string `json:"url,omitempty"`
	CredentialID string `json:"credential_id,omitempty"`
}

// Achievement represents an award or honor
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Extracurricular represents a club, volunteer or leadership activity
type Extracurricular struct {
	Organization string   `json:"organization"`
	Role         string   `json:"role,omitempty"`
	Description  string   `json:"description,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Bullets      []string `json:"bullets,omitempty"`
}

// Skills groups skill names by category
type Skills struct {
	Languages  []string `json:"languages,omitempty"`
	Frameworks []string `json:"frameworks,omitempty"`
	Tools      []string `json:"tools,omitempty"`
	Databases  []string `json:"databases,omitempty"`
	Cloud      []string `json:"cloud,omitempty"`
	SoftSkills []string `json:"soft_skills,omitempty"`
	Other      []string `json:"other,omitempty"`
}

// SkillCategory is a labelled, non-empty group of skills in render order
type SkillCategory struct {
	Label string
	Items []string
}

// Categories returns the non-empty skill groups in the order they are rendered.
func (s Skills) Categories() []SkillCategory {
	all := []SkillCategory{
		{Label: "Languages", Items: s.Languages},
		{Label: "Frameworks", Items: s.Frameworks},
		{Label: "Tools", Items: s.Tools},
		{Label: "Databases", Items: s.Databases},
		{Label: "Cloud", Items: s.Cloud},
		{Label: "Soft Skills", Items: s.SoftSkills},
		{Label: "Other", Items: s.Other},
	}
	out := make([]SkillCategory, 0, len(all))
	for _, c := range all {
		if len(c.Items) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// All returns every skill across categories
func (s Skills) All() []string {
	var out []string
	for _, c := range s.Categories() {
		out = append(out, c.Items...)
	}
	return out
}

// ResumeData is the structured resume tree. Entry order is significant and
// is preserved by every transformation.
type ResumeData struct {
	Personal        PersonalInfo      `json:"personal"`
	Education       []Education       `json:"education,omitempty"`
	Experience      []Experience      `json:"experience,omitempty"`
	Projects        []Project         `json:"projects,omitempty"`
	Skills          Skills            `json:"skills"`
	Certifications  []Certification   `json:"certifications,omitempty"`
	Achievements    []Achievement     `json:"achievements,omitempty"`
	Extracurricular []Extracurricular `json:"extracurricular,omitempty"`
}

// IsEmpty reports whether there is nothing to compress or render
func (r *ResumeData) IsEmpty() bool {
	if r == nil {
		return true
	}
	return strings.TrimSpace(r.Personal.Name) == "" &&
		len(r.Education) == 0 &&
		len(r.Experience) == 0 &&
		len(r.Projects) == 0 &&
		len(r.Skills.Categories()) == 0 &&
		len(r.Certifications) == 0 &&
		len(r.Achievements) == 0 &&
		len(r.Extracurricular) == 0
}

// AllBullets returns experience and project bullets in document order
func (r *ResumeData) AllBullets() []string {
	var out []string
	for _, e := range r.Experience {
		out = append(out, e.Bullets...)
	}
	for _, p := range r.Projects {
		out = append(out, p.Bullets...)
	}
	return out
}

// Clone returns a deep copy so a derived resume never aliases the slices of
// its source. Nil slices stay nil.
func (r ResumeData) Clone() ResumeData {
	out := r

	if r.Education != nil {
		out.Education = make([]Education, len(r.Education))
		for i, e := range r.Education {
			e.Coursework = cloneStrings(e.Coursework)
			e.Achievements = cloneStrings(e.Achievements)
			out.Education[i] = e
		}
	}

	if r.Experience != nil {
		out.Experience = make([]Experience, len(r.Experience))
		for i, e := range r.Experience {
			e.Bullets = cloneStrings(e.Bullets)
			e.Technologies = cloneStrings(e.Technologies)
			out.Experience[i] = e
		}
	}

	if r.Projects != nil {
		out.Projects = make([]Project, len(r.Projects))
		for i, p := range r.Projects {
			p.Bullets = cloneStrings(p.Bullets)
			p.Technologies = cloneStrings(p.Technologies)
			out.Projects[i] = p
		}
	}

	if r.Extracurricular != nil {
		out.Extracurricular = make([]Extracurricular, len(r.Extracurricular))
		for i, x := range r.Extracurricular {
			x.Bullets = cloneStrings(x.Bullets)
			out.Extracurricular[i] = x
		}
	}

	if r.Certifications != nil {
		out.Certifications = make([]Certification, len(r.Certifications))
		copy(out.Certifications, r.Certifications)
	}
	if r.Achievements != nil {
		out.Achievements = make([]Achievement, len(r.Achievements))
		copy(out.Achievements, r.Achievements)
	}

	out.Skills = Skills{
		Languages:  cloneStrings(r.Skills.Languages),
		Frameworks: cloneStrings(r.Skills.Frameworks),
		Tools:      cloneStrings(r.Skills.Tools),
		Databases:  cloneStrings(r.Skills.Databases),
		Cloud:      cloneStrings(r.Skills.Cloud),
		SoftSkills: cloneStrings(r.Skills.SoftSkills),
		Other:      cloneStrings(r.Skills.Other),
	}

	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

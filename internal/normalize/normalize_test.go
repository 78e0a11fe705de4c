package normalize

import (
	"errors"
	"testing"

	"github.com/jonathan/resume-compressor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StrictInputPassesThrough(t *testing.T) {
	raw := []byte(`{
		"personal": {"name": "Jane Doe", "email": "jane@example.com", "phone": "555-123-4567"},
		"experience": [{
			"company": "Acme", "title": "Engineer", "start_date": "Jan 2022", "end_date": "present",
			"bullets": ["Built API serving 10K requests/day"], "technologies": ["Go", "Redis"]
		}],
		"skills": {"languages": ["Go", "Python"]}
	}`)

	res, err := Normalize(raw)
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, "Jane Doe", res.Data.Personal.Name)
	assert.Equal(t, "(555) 123-4567", res.Data.Personal.Phone)
	require.Len(t, res.Data.Experience, 1)
	e := res.Data.Experience[0]
	assert.Equal(t, "Present", e.EndDate)
	assert.True(t, e.IsCurrent)
	assert.Equal(t, []string{"Built API serving 10K requests/day"}, e.Bullets)
	assert.Equal(t, []string{"Go", "Python"}, res.Data.Skills.Languages)
}

func TestNormalize_LooseShapes(t *testing.T) {
	raw := []byte(`{
		"personal": {"name": "Jane"},
		"education": [{"institution": "MIT", "degree": "BS", "gpa": 3.9, "coursework": "Algorithms, Operating Systems, "}],
		"experience": [{
			"company": "Acme", "position": "Engineer", "is_current": "yes",
			"bullets": "• Built an API\n\n- Led a team of 4\n",
			"technologies": "Go, Redis"
		}],
		"projects": {"name": "Solo", "bullets": ["* Shipped v1", "   "]},
		"skills": "Go, Python, go",
		"certifications": ["AWS Solutions Architect", {"title": "CKA", "issuer": "CNCF"}, {"issuer": "Nobody"}],
		"achievements": ["Hackathon winner", {"name": "Dean's list"}, {}],
		"extracurricular": ["ACM", {"title": "Robotics Club", "role": "Lead"}, {"role": "Volunteer"}]
	}`)

	res, err := Normalize(raw)
	require.NoError(t, err)
	d := res.Data

	require.Len(t, d.Education, 1)
	assert.Equal(t, "3.9", d.Education[0].GPA)
	assert.Equal(t, []string{"Algorithms", "Operating Systems"}, d.Education[0].Coursework)

	require.Len(t, d.Experience, 1)
	assert.Equal(t, "Engineer", d.Experience[0].Title)
	assert.True(t, d.Experience[0].IsCurrent)
	assert.Equal(t, "Present", d.Experience[0].EndDate)
	assert.Equal(t, []string{"Built an API", "Led a team of 4"}, d.Experience[0].Bullets)
	assert.Equal(t, []string{"Go", "Redis"}, d.Experience[0].Technologies)

	require.Len(t, d.Projects, 1)
	assert.Equal(t, []string{"Shipped v1"}, d.Projects[0].Bullets)

	assert.Equal(t, []string{"Go", "Python"}, d.Skills.Other)

	assert.Equal(t, []types.Certification{
		{Name: "AWS Solutions Architect"},
		{Name: "CKA", Issuer: "CNCF"},
		{Name: "Certification", Issuer: "Nobody"},
	}, d.Certifications)
	assert.Equal(t, []types.Achievement{
		{Title: "Hackathon winner"},
		{Title: "Dean's list"},
		{Title: "Achievement"},
	}, d.Achievements)
	require.Len(t, d.Extracurricular, 3)
	assert.Equal(t, "ACM", d.Extracurricular[0].Organization)
	assert.Equal(t, "Robotics Club", d.Extracurricular[1].Organization)
	assert.Equal(t, "Activity", d.Extracurricular[2].Organization)

	assert.Empty(t, res.Warnings)
}

func TestNormalize_SkillCategoriesAsStrings(t *testing.T) {
	res, err := Normalize([]byte(`{"skills": {"languages": "Go, Rust", "cloud": ["AWS", "aws", "GCP"], "other": 7}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "Rust"}, res.Data.Skills.Languages)
	assert.Equal(t, []string{"AWS", "GCP"}, res.Data.Skills.Cloud)
	assert.Nil(t, res.Data.Skills.Other)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "skills.other", res.Warnings[0].Field)
}

func TestNormalize_WarnsOnUnusableFields(t *testing.T) {
	res, err := Normalize([]byte(`{
		"personal": "Jane",
		"experience": [42, {"company": "Acme", "title": ["x"], "is_current": "maybe"}]
	}`))
	require.NoError(t, err)

	fields := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		fields = append(fields, w.Field)
	}
	assert.ElementsMatch(t, []string{
		"personal",
		"experience[0]",
		"experience[1].title",
		"experience[1].is_current",
	}, fields)
	require.Len(t, res.Data.Experience, 1)
	assert.Equal(t, "Acme", res.Data.Experience[0].Company)
	assert.False(t, res.Data.Experience[0].IsCurrent)
}

func TestNormalize_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`not json`, `[1, 2]`, `"resume"`} {
		_, err := Normalize([]byte(raw))
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), raw)
	}
}

func TestNormalize_EmptyObject(t *testing.T) {
	res, err := Normalize([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, res.Data.IsEmpty())
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", FormatPhone("5551234567"))
	assert.Equal(t, "+1 (555) 123-4567", FormatPhone("1-555-123-4567"))
	assert.Equal(t, "+44 20 7946 0958", FormatPhone("+44 20 7946 0958"))
	assert.Equal(t, "", FormatPhone(""))
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "Present", NormalizeDate(" Current "))
	assert.Equal(t, "Present", NormalizeDate("ongoing"))
	assert.Equal(t, "May 2021", NormalizeDate("May 2021"))
}

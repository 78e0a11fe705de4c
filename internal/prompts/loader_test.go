package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	prompt, err := get(CompressionFile, KeyRewriteBullets)
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Bullets}}")
	assert.Contains(t, prompt, `{"bullets"`)

	_, err = get("nonexistent.json", KeyRewriteBullets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")

	_, err = get(CompressionFile, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nonexistent-key" not found`)
}

func TestList(t *testing.T) {
	keys, err := list(CompressionFile)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyReviewResume, KeyRewriteBullets}, keys)
}

func TestPlaceholderNames(t *testing.T) {
	fields, err := placeholderNames(CompressionFile, KeyRewriteBullets)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bullets", "Feedback", "Instructions", "Role", "Tier"}, fields)

	fields, err = placeholderNames(CompressionFile, KeyReviewResume)
	require.NoError(t, err)
	assert.Equal(t, []string{"PageCount", "Pressure", "Role", "Source"}, fields)

	// callers get a copy
	fields[0] = "changed"
	again, err := placeholderNames(CompressionFile, KeyReviewResume)
	require.NoError(t, err)
	assert.Equal(t, "PageCount", again[0])
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		data map[string]string
		want string
	}{
		{"replaces", "Tailor for {{.Role}} at {{.Tier}} tier", map[string]string{"Role": "SRE", "Tier": "MEDIUM"}, "Tailor for SRE at MEDIUM tier"},
		{"repeated placeholder", "{{.Role}} / {{.Role}}", map[string]string{"Role": "SRE"}, "SRE / SRE"},
		{"missing value stays", "Role: {{.Role}}", map[string]string{}, "Role: {{.Role}}"},
		{"value is not re-expanded", "{{.Source}}", map[string]string{"Source": "{{.Role}}", "Role": "x"}, "{{.Role}}"},
		{"json braces untouched", `{"score": {{.Score}}}`, map[string]string{"Score": "90"}, `{"score": 90}`},
		{"go template syntax is not a placeholder", "{{ .Role }} {{.role_name}}", map[string]string{"Role": "x"}, "{{ .Role }} {{.role_name}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format(tt.text, tt.data))
		})
	}
}

func TestRender(t *testing.T) {
	out, err := Render(CompressionFile, KeyReviewResume, map[string]string{
		"Role": "Platform Engineer", "PageCount": "2", "Pressure": "0.65", "Source": `\section{Experience}`,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Platform Engineer")
	assert.Contains(t, out, `\section{Experience}`)
	assert.NotContains(t, out, "{{.")

	_, err = Render(CompressionFile, KeyReviewResume, map[string]string{"Role": "SRE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PageCount, Pressure, Source")

	_, err = Render(CompressionFile, "missing", nil)
	assert.Error(t, err)
}

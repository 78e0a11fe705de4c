package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"bullets": ["Shipped v2"]}`, `{"bullets": ["Shipped v2"]}`},
		{"json fence", "```json\n{\"score\": 82}\n```", `{"score": 82}`},
		{"bare fence", "```\n{\"score\": 82}\n```", `{"score": 82}`},
		{"fence with prose after", "```json\n{\"bullets\": [\"a\"]}\n```\nLet me know if you need more.", `{"bullets": ["a"]}`},
		{"fence holding an array", "```json\n[\"a\", \"b\"]\n```", `["a", "b"]`},
		{"preamble", "Here is the review:\n{\"score\": 71, \"feedback\": \"tighten\"}", `{"score": 71, "feedback": "tighten"}`},
		{"preamble and epilogue", "Sure! {\"score\": 90} Anything else?", `{"score": 90}`},
		{"array after preamble", "Rewritten bullets:\n[\"Cut p99 by 40%\"]", `["Cut p99 by 40%"]`},
		{"nested objects", `ok {"review": {"score": 60, "issues": [{"section": "skills"}]}} done`, `{"review": {"score": 60, "issues": [{"section": "skills"}]}}`},
		{"braces inside strings", `{"bullets": ["Built {templating} engine", "Parsed ] tokens"]} trailing`, `{"bullets": ["Built {templating} engine", "Parsed ] tokens"]}`},
		{"escaped quotes", `{"feedback": "say \"led\" not \"helped\" {x}"}`, `{"feedback": "say \"led\" not \"helped\" {x}"}`},
		{"no json", "  I cannot review an empty resume.  ", "I cannot review an empty resume."},
		{"unterminated object", `Result: {"score": 5`, `Result: {"score": 5`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.in))
		})
	}
}

func TestCleanJSONBlock_OutputDecodes(t *testing.T) {
	responses := []string{
		"```json\n{\"bullets\": [\"Owned the billing migration\", \"Reduced cost 30%\"]}\n```",
		"Based on the target role, here is my assessment:\n\n{\"score\": 78, \"feedback\": \"Trim the skills list\"}",
		`{"name": "Ada", "experience": [{"company": "Analytical Engines", "bullets": ["Wrote {the} first program"]}]} Hope this helps`,
	}
	for _, r := range responses {
		var v map[string]any
		assert.NoError(t, json.Unmarshal([]byte(CleanJSONBlock(r)), &v), r)
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractJSONObject(`{"a": {"b": 1}} tail`))
	assert.Equal(t, `[[1], [2]]`, extractJSONArray(`[[1], [2]], [3]`))
	assert.Empty(t, extractJSONObject(`x {"a": 1}`))
	assert.Empty(t, extractJSONArray(`[1, 2`))
	assert.Empty(t, extractBalanced("", '{', '}'))
}

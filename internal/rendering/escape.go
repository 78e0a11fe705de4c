package rendering

import "strings"

// literal spellings that would otherwise escape into something unreadable
var textReplacements = []struct {
	from, to string
}{
	{"C++", `C\texttt{++}`},
}

// specialChars maps bytes that are commands in LaTeX, or that the default
// OT1 font encoding prints as other glyphs, to their text-mode spelling
var specialChars = [256]string{
	'\\': `\textbackslash{}`,
	'{':  `\{`,
	'}':  `\}`,
	'$':  `\$`,
	'&':  `\&`,
	'%':  `\%`,
	'#':  `\#`,
	'^':  `\textasciicircum{}`,
	'_':  `\_`,
	'~':  `\textasciitilde{}`,
	'<':  `\textless{}`,
	'>':  `\textgreater{}`,
	'|':  `\textbar{}`,
}

// EscapeLaTeX makes résumé text safe to place in a LaTeX document body.
// Multi-byte UTF-8 sequences pass through untouched.
func EscapeLaTeX(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) + len(text)/2)

	for i := 0; i < len(text); {
		if to, n, ok := replacementAt(text, i); ok {
			result.WriteString(to)
			i += n
			continue
		}
		if esc := specialChars[text[i]]; esc != "" {
			result.WriteString(esc)
		} else {
			result.WriteByte(text[i])
		}
		i++
	}

	return result.String()
}

func replacementAt(text string, i int) (string, int, bool) {
	for _, r := range textReplacements {
		if strings.HasPrefix(text[i:], r.from) {
			return r.to, len(r.from), true
		}
	}
	return "", 0, false
}

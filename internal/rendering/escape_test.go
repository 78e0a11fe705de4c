package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLaTeX(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Led a team of five engineers", "Led a team of five engineers"},
		{"unicode passes through", "Zürich résumé, α β γ", "Zürich résumé, α β γ"},
		{"money and percent", "Cut $1M of spend, 99.9% uptime", `Cut \$1M of spend, 99.9\% uptime`},
		{"company with ampersand", "Procter & Gamble", `Procter \& Gamble`},
		{"issue number", "fixed #123", `fixed \#123`},
		{"identifier", "max_retries", `max\_retries`},
		{"braces", "{json}", `\{json\}`},
		{"windows path", `C:\Users`, `C:\textbackslash{}Users`},
		{"exponent", "O(n^2)", `O(n\textasciicircum{}2)`},
		{"approximately", "~40 services", `\textasciitilde{}40 services`},
		{"comparison", "p99 <200ms, >10k rps", `p99 \textless{}200ms, \textgreater{}10k rps`},
		{"pipe", "Go | Rust", `Go \textbar{} Rust`},
		{"languages", "C++ and C# services", `C\texttt{++} and C\# services`},
		{"replacement needs whole word prefix", "C+", "C+"},
		{"every special", `${}~&%#^_\`, `\$\{\}\textasciitilde{}\&\%\#\textasciicircum{}\_\textbackslash{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeLaTeX(tt.in))
		})
	}
}

func TestEscapeLaTeX_NoBareSpecialsRemain(t *testing.T) {
	out := EscapeLaTeX("50% of #1 & $2 in a_b")
	for _, c := range []string{" %", " #", " &", " $", "a_b"} {
		assert.NotContains(t, out, c)
	}
}

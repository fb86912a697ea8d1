package shell

import (
	"strings"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
)

// splitFields splits a command line on whitespace. Single or double quotes
// group words, and "" yields an empty field. A backslash escapes the next
// character inside double quotes and outside quotes.
func splitFields(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inField bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inField = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inField = true
		case r == ' ' || r == '\t':
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteRune(r)
			inField = true
		}
	}
	if quote != 0 {
		return nil, domain.Validationf("parse", "", "unterminated %c quote", quote)
	}
	if escaped {
		return nil, domain.Validationf("parse", "", "trailing backslash")
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

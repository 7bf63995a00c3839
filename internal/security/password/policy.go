package password

import (
	"fmt"
	"strings"
	"unicode"
)

// Policy define los requisitos mínimos de un password nuevo.
type Policy struct {
	MinLength    int
	RequireDigit bool
	RequireUpper bool
}

// Check devuelve nil si s cumple, o un error con las razones separadas por coma.
func (p Policy) Check(s string) error {
	var reasons []string
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, fmt.Sprintf("min_length=%d", p.MinLength))
	}
	var hasDigit, hasUpper bool
	for _, r := range s {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	if p.RequireDigit && !hasDigit {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireUpper && !hasUpper {
		reasons = append(reasons, "missing_upper")
	}
	if len(reasons) > 0 {
		return fmt.Errorf("password policy: %s", strings.Join(reasons, ","))
	}
	return nil
}

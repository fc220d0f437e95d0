package validation

import (
	"time"

	"github.com/dlclark/regexp2"
)

// PatternName selects an entry of the fixed pattern dictionary.
type PatternName string

const (
	PatternPersonName PatternName = "name"
	PatternEmail      PatternName = "email"
	PatternPassword   PatternName = "password"
	PatternUUIDv4     PatternName = "uuidV4"
	PatternURL        PatternName = "url"
)

var patterns = map[PatternName]string{
	PatternPersonName: `^([a-zA-ZÀ-ÿ]+\s)*[a-zA-ZÀ-ÿ]+$`,
	PatternEmail:      `^[\w.+-]+@[\w-]+(\.[\w-]+)+$`,
	PatternPassword:   `^(?=.*[a-z])(?=.*[A-Z])(?=.*\d)(?=.*[@$!%*?&])[A-Za-z\d@$!%*?&]{6,}$`,
	PatternUUIDv4:     `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`,
	PatternURL:        `^https?:\/\/[\w.-]+(:\d+)?(\/[^\s]*)?$`,
}

var compiledPatterns = func() map[PatternName]*regexp2.Regexp {
	out := make(map[PatternName]*regexp2.Regexp, len(patterns))
	for name, src := range patterns {
		out[name] = compilePattern(regexp2.MustCompile(src, regexp2.ECMAScript))
	}
	return out
}()

// matchTimeout bounds backtracking on user-supplied input.
const matchTimeout = 100 * time.Millisecond

func compilePattern(re *regexp2.Regexp) *regexp2.Regexp {
	re.MatchTimeout = matchTimeout
	return re
}

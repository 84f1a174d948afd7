package common

import (
	"fmt"
	"regexp"
	"strings"
)

// CompileInsensitive compiles a pattern with case-insensitive matching.
// Invalid sources are reported as ErrInvalidPattern.
func CompileInsensitive(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

package logging

import (
	"fmt"
	"regexp"
	"strings"
)

// RedactPattern defines a custom redaction rule: any Pattern match in
// a logged string is replaced with Replacement.
type RedactPattern struct {
	Name        string
	Pattern     string
	Replacement string
}

// Redactor redacts sensitive values from log fields before they reach
// the underlying handler.
type Redactor struct {
	patterns map[string]*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternEmail       = "email"
	PatternIPv4        = "ipv4"
	PatternBearerToken = "bearer_token"
)

// NewRedactor builds a Redactor with the built-in patterns plus any
// valid custom ones. An invalid custom pattern is skipped.
func NewRedactor(custom []RedactPattern) *Redactor {
	r := &Redactor{patterns: make(map[string]*redactPattern)}
	r.addDefaultPatterns()

	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns[p.Name] = &redactPattern{regex: regex, replacement: p.Replacement}
	}
	return r
}

func (r *Redactor) addDefaultPatterns() {
	defaults := map[string]redactPattern{
		PatternAPIKey: {
			regex:       regexp.MustCompile(`(sk-[a-zA-Z0-9]+|api[-_]?key[-_:]\s*[a-zA-Z0-9]+)`),
			replacement: "sk-***",
		},
		PatternEmail: {
			regex:       regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
			replacement: "$1_redacted",
		},
		PatternIPv4: {
			regex:       regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			replacement: "*.*.*.*",
		},
		PatternBearerToken: {
			regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
			replacement: "Bearer ***",
		},
	}
	for name, p := range defaults {
		pp := p
		r.patterns[name] = &pp
	}
}

// RedactString redacts every configured pattern match in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	redacted := value
	for _, p := range r.patterns {
		redacted = p.regex.ReplaceAllString(redacted, p.replacement)
	}
	return redacted
}

// RedactArgs redacts a slog-style key1, value1, key2, value2, ...
// argument list: values under a sensitive-looking key are masked (a
// string longer than four characters keeps its first four followed by
// "***"; anything else becomes "***"), everything else still passes
// through pattern matching.
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		key, ok := redacted[i-1].(string)
		if ok && isSensitiveKey(key) {
			redacted[i] = redactValue(redacted[i])
			continue
		}
		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}

	return redacted
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{
		"password", "passwd", "pwd",
		"secret", "token", "api_key", "apikey",
		"authorization", "private_key",
	} {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

func redactValue(value any) any {
	switch v := value.(type) {
	case string:
		if v == "" {
			return ""
		}
		if len(v) <= 4 {
			return "***"
		}
		return v[:4] + "***"
	case fmt.Stringer:
		return "***"
	default:
		return "***"
	}
}

// RedactAPIKey redacts an API key, keeping only a short prefix for
// correlation in logs.
func RedactAPIKey(key string) string {
	if len(key) <= 4 {
		return "***"
	}
	return key[:4] + "***"
}

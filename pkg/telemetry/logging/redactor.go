package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor scrubs credentials from log output.
type Redactor struct {
	patterns []*redactPattern
	secrets  []string
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBotToken    = "bot_token"
	PatternBearerToken = "bearer_token"
)

// secretMask replaces literal secrets.
const secretMask = "***"

var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	// OpenAI-style keys, DeepSeek uses the same prefix.
	{PatternAPIKey, `sk-[A-Za-z0-9_-]{4,}`, "sk-***"},
	// Telegram bot tokens: numeric bot id, colon, 30+ char secret.
	{PatternBotToken, `\d{5,}:[A-Za-z0-9_-]{30,}`, "***:***"},
	{PatternBearerToken, `Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"},
}

// NewRedactor creates a Redactor with the built-in patterns plus literal
// secrets. Empty secrets are ignored.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}

	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			r.secrets = append(r.secrets, s)
		}
	}

	return r
}

// RedactString removes secrets and credential-shaped substrings from value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, s := range r.secrets {
		redacted = strings.ReplaceAll(redacted, s, secretMask)
	}
	for _, p := range r.patterns {
		redacted = p.regex.ReplaceAllString(redacted, p.replacement)
	}
	return redacted
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Values under
// sensitive keys are masked entirely; other strings and errors are scrubbed.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, secretMask)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

// isSensitiveKey checks if a key name indicates credential data. Counts
// such as "prompt_tokens" are not sensitive.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	for _, sensitive := range []string{"token", "api_key", "apikey", "secret", "password", "authorization"} {
		if lowerKey == sensitive || strings.HasSuffix(lowerKey, "_"+sensitive) {
			return true
		}
	}
	return false
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return secretMask
	}
	return apiKey[:4] + secretMask
}

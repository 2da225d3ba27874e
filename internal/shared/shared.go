// package shared defines shared helpers
package shared

import (
	"encoding/json"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NopLogger returns a [log.Logger] that discards everything. Used as the default for library types.
func NopLogger() *log.Logger {
	return log.New(io.Discard)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// SetLogLevelString parses a level name ("debug", "info", ...) and applies it, keeping the current level on bad input.
func SetLogLevelString(l *log.Logger, level string) {
	if level == "" {
		return
	}
	if ll, err := log.ParseLevel(level); err == nil {
		l.SetLevel(ll)
	}
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// MarshalJSON marshals v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

var qualifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[\(\[]\s*(feat\.?|ft\.?|featuring|with)\s[^\)\]]*[\)\]]\s*$`),
	regexp.MustCompile(`(?i)\s+(feat\.?|ft\.?|featuring)\s.*$`),
	regexp.MustCompile(`(?i)\s*[\(\[][^\)\]]*\b(remix|live|mix|edit|version)\b[^\)\]]*[\)\]]\s*$`),
	regexp.MustCompile(`(?i)\s+-\s+[^-]*\b(remix|live|mix|edit|version)\b[^-]*$`),
}

// StripQualifiers removes trailing "feat.", remix and live qualifiers from a title or artist.
func StripQualifiers(s string) string {
	s = strings.TrimSpace(s)
	for {
		next := s
		for _, re := range qualifierPatterns {
			next = strings.TrimSpace(re.ReplaceAllString(next, ""))
		}
		// a title that is nothing but a qualifier keeps its text
		if next == "" || next == s {
			return s
		}
		s = next
	}
}

// foldAccents strips combining marks so "Dörfels" and "Dorfels" compare equal.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeFuzzy lowercases, folds accents, strips trailing qualifiers and drops every non-alphanumeric rune.
func NormalizeFuzzy(s string) string {
	s = foldAccents(StripQualifiers(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTrackKey builds the fuzzy (title, artist) key used to spot the same song across imports.
//
// Returns "" when either half normalizes to nothing.
func NormalizeTrackKey(title, artist string) string {
	t := NormalizeFuzzy(title)
	a := NormalizeFuzzy(artist)
	if t == "" || a == "" {
		return ""
	}
	return t + "|" + a
}

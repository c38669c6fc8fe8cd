// Package shield masks substrings that must survive translation verbatim
// (placeholders, printf verbs, inline markup, URLs, numbers) behind short
// opaque tokens such as {X0}, and restores them afterwards.
package shield

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrCollision means no token prefix is free in the text being shielded.
	ErrCollision = errors.New("shield collision")
	// ErrTokenMismatch means the translated text lost, duplicated, reordered
	// or invented tokens.
	ErrTokenMismatch = errors.New("token mismatch")
	// ErrUnknownClass is returned by New for an unrecognized class name.
	ErrUnknownClass = errors.New("unknown shield class")
)

// Pattern class names
const (
	ClassPlaceholder = "placeholder"
	ClassPrintf      = "printf"
	ClassMarkup      = "markup"
	ClassURL         = "url"
	ClassNumber      = "number"
)

var classPatterns = map[string]string{
	ClassPlaceholder: `\{\{[^{}]+\}\}|\{[^{}\s]+\}`,
	ClassPrintf:      `%(?:\d+\$)?(?:\([A-Za-z_][A-Za-z0-9_]*\))?[-+#0]*\d*(?:\.\d+)?[sdifFgGeExXoqvcbtTpu%]`,
	ClassMarkup:      `</?[A-Za-z][A-Za-z0-9]*(?:\s[^<>]*)?/?>`,
	ClassURL:         `(?:https?|ftp)://[^\s<>"']+[^\s<>"'.,;:!?)]`,
	ClassNumber:      `\d+(?:[.,]\d+)*`,
}

// DefaultClasses is the default class order. Earlier classes win when two
// matches start at the same position.
var DefaultClasses = []string{ClassPlaceholder, ClassPrintf, ClassMarkup, ClassURL, ClassNumber}

// tokenPrefixes are tried in order until one does not occur in the text.
var tokenPrefixes = []string{"X", "Y", "Z", "Q", "K"}

// Substitution records one masked span
type Substitution struct {
	Token    string
	Original string
	Class    string
}

// Shielded is a masked string together with what is needed to restore it
type Shielded struct {
	Masked        string
	Prefix        string
	Substitutions []Substitution
}

// Shield holds a compiled set of pattern classes
type Shield struct {
	classes   []string
	re        *regexp.Regexp
	signature string
}

// New compiles the given classes in order. With no classes nothing is
// masked.
func New(classes ...string) (*Shield, error) {
	s := &Shield{classes: append([]string(nil), classes...)}

	var parts []string
	for _, class := range classes {
		pattern, ok := classPatterns[class]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
		}
		parts = append(parts, "("+pattern+")")
	}
	if len(parts) > 0 {
		s.re = regexp.MustCompile(strings.Join(parts, "|"))
	}

	sum := sha256.Sum256([]byte(strings.Join(classes, ",")))
	s.signature = hex.EncodeToString(sum[:])[:16]

	return s, nil
}

// Signature is a stable hash of the ordered class list. It is part of every
// cache key so that entries produced under other rules are not reused.
func (s *Shield) Signature() string {
	return s.signature
}

type match struct {
	start, end int
	class      string
}

func (s *Shield) matches(text string) []match {
	if s.re == nil {
		return nil
	}
	var out []match
	for _, loc := range s.re.FindAllStringSubmatchIndex(text, -1) {
		m := match{start: loc[0], end: loc[1]}
		for i, class := range s.classes {
			if loc[2*(i+1)] >= 0 {
				m.class = class
				break
			}
		}
		out = append(out, m)
	}
	return out
}

// Strip returns text with every protected span removed. Used to decide
// whether anything translatable is left.
func (s *Shield) Strip(text string) string {
	if s.re == nil {
		return text
	}
	return s.re.ReplaceAllString(text, " ")
}

// Shield replaces every protected span with a token. It fails with
// ErrCollision when every token prefix already appears in the unprotected
// parts of the text.
func (s *Shield) Shield(text string) (Shielded, error) {
	found := s.matches(text)
	if len(found) == 0 {
		return Shielded{Masked: text}, nil
	}

	// The literal parts are what the backend sees besides our tokens
	var literal strings.Builder
	prev := 0
	for _, m := range found {
		literal.WriteString(text[prev:m.start])
		literal.WriteByte(0)
		prev = m.end
	}
	literal.WriteString(text[prev:])

	prefix := ""
	for _, p := range tokenPrefixes {
		if !tokenPattern(p).MatchString(literal.String()) {
			prefix = p
			break
		}
	}
	if prefix == "" {
		return Shielded{}, fmt.Errorf("%w: every token prefix occurs in %q", ErrCollision, text)
	}

	out := Shielded{Prefix: prefix}
	var masked strings.Builder
	prev = 0
	for i, m := range found {
		token := "{" + prefix + strconv.Itoa(i) + "}"
		masked.WriteString(text[prev:m.start])
		masked.WriteString(token)
		out.Substitutions = append(out.Substitutions, Substitution{
			Token:    token,
			Original: text[m.start:m.end],
			Class:    m.class,
		})
		prev = m.end
	}
	masked.WriteString(text[prev:])
	out.Masked = masked.String()

	return out, nil
}

// Unshield restores the original substrings in translated. Every token must
// appear exactly once and in its original relative order.
func Unshield(sh Shielded, translated string) (string, error) {
	if sh.Prefix == "" {
		return translated, nil
	}

	locs := tokenPattern(sh.Prefix).FindAllStringSubmatchIndex(translated, -1)
	if len(locs) != len(sh.Substitutions) {
		return "", fmt.Errorf("%w: expected %d tokens, found %d in %q",
			ErrTokenMismatch, len(sh.Substitutions), len(locs), translated)
	}

	var out strings.Builder
	prev := 0
	for i, loc := range locs {
		idx, err := strconv.Atoi(translated[loc[2]:loc[3]])
		if err != nil || idx != i {
			return "", fmt.Errorf("%w: token %s at position %d, expected %s",
				ErrTokenMismatch, translated[loc[0]:loc[1]], i, sh.Substitutions[i].Token)
		}
		out.WriteString(translated[prev:loc[0]])
		out.WriteString(sh.Substitutions[i].Original)
		prev = loc[1]
	}
	out.WriteString(translated[prev:])

	return out.String(), nil
}

func tokenPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`\{` + regexp.QuoteMeta(prefix) + `(\d+)\}`)
}

// Package similarity compares declared identity fields with the values an
// external provider confirmed.
package similarity

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/atinyakov/GophIdentity/internal/models"
)

// DefaultThreshold is the minimum score at which a text field counts as matched.
const DefaultThreshold = 0.85

// Status is the outcome of comparing one field.
type Status string

const (
	// StatusMatch means the declared value agrees with the confirmed one.
	StatusMatch Status = "match"
	// StatusMismatch means both values exist but disagree.
	StatusMismatch Status = "mismatch"
	// StatusUnknown means the provider confirmed no value for the field.
	StatusUnknown Status = "unknown"
)

// Result is the comparison of one declared field.
type Result struct {
	Field    string  `json:"field"`
	Declared string  `json:"declared"`
	Score    float64 `json:"score"`
	Matched  bool    `json:"matched"`
	Status   Status  `json:"status"`
}

// Calculator scores declared fields against reference values.
type Calculator struct {
	threshold float64
}

// New returns a Calculator. A threshold outside (0, 1] falls back to DefaultThreshold.
func New(threshold float64) *Calculator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Calculator{threshold: threshold}
}

// Threshold returns the text match threshold in use.
func (c *Calculator) Threshold() float64 {
	return c.threshold
}

// Calculate compares every declared field with the reference value of the
// same field name. Results keep the order and count of declared.
func (c *Calculator) Calculate(
	declared []models.DeclaredField,
	dictionary *models.FieldDictionary,
	reference map[string]string,
) []Result {
	results := make([]Result, 0, len(declared))
	for _, df := range declared {
		field, known := dictionary.ByID(df.FieldID)
		name := field.Name
		if !known {
			name = strconv.FormatInt(df.FieldID, 10)
		}

		res := Result{Field: name, Declared: df.DeclaredValue, Status: StatusUnknown}
		confirmed, ok := reference[name]
		if !known || !ok {
			results = append(results, res)
			continue
		}

		switch field.Kind {
		case models.FieldKindText:
			res.Score = TextScore(df.DeclaredValue, confirmed)
			res.Matched = res.Score >= c.threshold
		default:
			res.Score = ExactScore(df.DeclaredValue, confirmed)
			res.Matched = res.Score == 1
		}
		if res.Matched {
			res.Status = StatusMatch
		} else {
			res.Status = StatusMismatch
		}
		results = append(results, res)
	}
	return results
}

// ExactScore returns 1 when the values are equal after case folding and
// whitespace removal, 0 otherwise.
func ExactScore(a, b string) float64 {
	if stripSpaces(fold(a)) == stripSpaces(fold(b)) {
		return 1
	}
	return 0
}

// TextScore returns 1 - levenshtein(a, b) / max(len(a), len(b)) over the
// normalized forms of a and b.
func TextScore(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	longest := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(d)/float64(longest)
}

// fold builds a new Caser per call; Casers are stateful.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// normalizeText removes diacritics and punctuation, folds case and collapses
// runs of whitespace.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return ' '
		}
		return r
	}, fold(plain))
	return strings.Join(strings.Fields(plain), " ")
}

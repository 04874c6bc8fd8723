// Package gpa computes a credit-weighted grade-point average from raw course
// input. Compute is pure and safe for concurrent use.
package gpa

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinGPA = 0.0
	MaxGPA = 4.0
)

// CourseEntry is one row of user input. GPAText and CreditsText are untrusted
// until Compute has validated them.
type CourseEntry struct {
	ID          string `json:"id" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	GPAText     string `json:"gpa" yaml:"gpa"`
	CreditsText string `json:"credits" yaml:"credits"`
}

// Result is a successful calculation. GPA is rounded to two decimals, Raw and
// the totals are not.
type Result struct {
	GPA           float64
	Text          string
	Raw           float64
	QualityPoints float64
	CreditHours   float64
}

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Compute validates entries in order, stopping at the first invalid one, and
// returns the weighted average of the grade points. On failure the returned
// error is a *ValidationError and the Result is zero.
func Compute(entries []CourseEntry) (Result, error) {
	var qualityPoints, creditHours float64

	for i, entry := range entries {
		gpa, ok := parseDecimal(entry.GPAText)
		if !ok || gpa < MinGPA || gpa > MaxGPA {
			return Result{}, entryError(KindInvalidGPA, i, entry, entry.GPAText)
		}
		credits, ok := parseDecimal(entry.CreditsText)
		if !ok || credits <= 0 {
			return Result{}, entryError(KindInvalidCredits, i, entry, entry.CreditsText)
		}

		qualityPoints += gpa * credits
		creditHours += credits
		if math.IsInf(qualityPoints, 0) || math.IsInf(creditHours, 0) {
			return Result{}, entryError(KindInvalidCredits, i, entry, entry.CreditsText)
		}
	}

	if creditHours == 0 {
		return Result{}, &ValidationError{Kind: KindZeroCredits, Index: -1}
	}

	raw := qualityPoints / creditHours
	rounded := Round2(raw)
	return Result{
		GPA:           rounded,
		Text:          FormatGPA(raw),
		Raw:           raw,
		QualityPoints: qualityPoints,
		CreditHours:   creditHours,
	}, nil
}

func entryError(kind Kind, index int, entry CourseEntry, input string) *ValidationError {
	return &ValidationError{
		Kind:       kind,
		Index:      index,
		CourseID:   entry.ID,
		CourseName: entry.Name,
		Input:      input,
	}
}

// parseDecimal accepts a plain decimal literal with optional surrounding
// whitespace. NaN, infinities, hex floats and overflowing values are rejected.
func parseDecimal(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if !decimalPattern.MatchString(text) {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

package workout

import (
	"math"
	"strconv"
	"strings"

	"github.com/claude/gainz/internal/models"
)

const maxNameLength = 200

// ValidateName trims an exercise name and rejects blank or oversized names.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(name) > maxNameLength {
		return "", &ValidationError{Field: "name", Message: "too long"}
	}
	return name, nil
}

// ParseSetDraft converts the raw reps and weight text of an add-set form.
// Reps must be a whole number and weight a finite decimal, both non-negative.
func ParseSetDraft(d models.SetDraft) (reps int32, weight float64, err error) {
	repsStr := strings.TrimSpace(d.Reps)
	weightStr := strings.TrimSpace(d.Weight)

	if repsStr == "" {
		return 0, 0, &ValidationError{Field: "reps", Message: "required"}
	}
	if weightStr == "" {
		return 0, 0, &ValidationError{Field: "weight", Message: "required"}
	}

	r, err := strconv.ParseInt(repsStr, 10, 32)
	if err != nil {
		return 0, 0, &ValidationError{Field: "reps", Message: "must be a whole number"}
	}
	if r < 0 {
		return 0, 0, &ValidationError{Field: "reps", Message: "must not be negative"}
	}

	w, err := strconv.ParseFloat(weightStr, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, 0, &ValidationError{Field: "weight", Message: "must be a number"}
	}
	if w < 0 {
		return 0, 0, &ValidationError{Field: "weight", Message: "must not be negative"}
	}

	return int32(r), w, nil
}

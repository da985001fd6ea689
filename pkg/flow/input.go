package flow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/flowbotio/flowbot/pkg/models"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

	// Lenient phone shape: digits, spaces, plus, parentheses, hyphens and
	// dots; significance is counted separately on digits.
	phonePattern = regexp.MustCompile(`^[0-9+()\-\s.]+$`)
)

const phoneMinDigits = 10

// ValidateText checks a candidate free-text answer against the armed spec in
// fixed order: length bounds first, then the type-specific pattern. A nil
// return means the candidate is accepted.
func ValidateText(spec *models.InputSpec, text string) *InputValidationError {
	length := len([]rune(text))

	if spec.MinLength > 0 && length < spec.MinLength {
		return &InputValidationError{
			Reason:  "length",
			Message: fmt.Sprintf("answer is %d characters, minimum is %d", length, spec.MinLength),
		}
	}

	if spec.MaxLength > 0 && length > spec.MaxLength {
		return &InputValidationError{
			Reason:  "length",
			Message: fmt.Sprintf("answer is %d characters, maximum is %d", length, spec.MaxLength),
		}
	}

	switch spec.InputType {
	case models.InputTypeNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err != nil {
			return &InputValidationError{Reason: "number", Message: "answer is not a number"}
		}
	case models.InputTypeEmail:
		if !emailPattern.MatchString(strings.TrimSpace(text)) {
			return &InputValidationError{Reason: "email", Message: "answer is not an email address"}
		}
	case models.InputTypePhone:
		trimmed := strings.TrimSpace(text)
		if !phonePattern.MatchString(trimmed) || countDigits(trimmed) < phoneMinDigits {
			return &InputValidationError{Reason: "phone", Message: "answer is not a phone number"}
		}
	}

	return nil
}

func countDigits(text string) int {
	count := 0

	for _, r := range text {
		if r >= '0' && r <= '9' {
			count++
		}
	}

	return count
}

// TextValue converts an accepted free-text answer into its stored form:
// number inputs store the parsed float, everything else stores the string.
func TextValue(spec *models.InputSpec, text string) any {
	if spec.InputType == models.InputTypeNumber {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return parsed
		}
	}

	return text
}

// SelectedValue preserves both the raw stored value and the display text of
// one chosen response option.
type SelectedValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SelectedValues maps the accumulated selection indexes to their values, in
// selection order.
func SelectedValues(spec *models.InputSpec, indexes []int) []SelectedValue {
	values := make([]SelectedValue, 0, len(indexes))

	for _, idx := range indexes {
		if idx < 0 || idx >= len(spec.Options) {
			continue
		}

		opt := spec.Options[idx]
		values = append(values, SelectedValue{Value: opt.StoredValue(), Label: opt.Text})
	}

	return values
}

// MatchOptionText finds the response option whose display text equals the
// given message text. Matching is by stable option index so duplicate labels
// resolve to the first occurrence deterministically.
func MatchOptionText(spec *models.InputSpec, text string) (int, bool) {
	trimmed := strings.TrimSpace(text)

	for i, opt := range spec.Options {
		if opt.Text == trimmed {
			return i, true
		}
	}

	return 0, false
}

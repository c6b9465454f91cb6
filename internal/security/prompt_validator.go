// Package security guards the query pipeline: input validation before
// anything reaches the model, and audit logging of what was asked.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

const MaxQueryLength = 2000

// injectionPatterns covers the common prompt-injection phrasings. The
// system prompt is the real defense; this only rejects the blatant
// attempts before they cost a model call.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
	regexp.MustCompile(`(?i)change\s+context\s*:`),
	regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+a\s+different`),
	regexp.MustCompile(`(?i)reveal\s+your\s+system\s+prompt`),
}

// PromptValidator validates user queries before the agent runs.
type PromptValidator struct{}

func NewPromptValidator() *PromptValidator {
	return &PromptValidator{}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// Validate checks a query for emptiness, length, and injection attempts.
func (v *PromptValidator) Validate(query string) ValidationResult {
	if strings.TrimSpace(query) == "" {
		return ValidationResult{Valid: false, Message: "query cannot be empty"}
	}

	if len(query) > MaxQueryLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("query too long: %d chars (max %d)", len(query), MaxQueryLength),
		}
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(query) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("suspicious pattern detected: %s", pattern.String()),
			}
		}
	}

	return ValidationResult{Valid: true}
}

package gemini

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/notcelab/notce-backend/internal/model"
)

// fencePattern captures content inside ```json ... ``` or bare ``` ... ```.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// CleanJSONText strips a markdown code fence from model output, if present,
// so the remainder parses as JSON.
func CleanJSONText(text string) string {
	if text == "" {
		return ""
	}
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ValidateQuestion checks the structural invariants of a generated question:
// non-empty stem, at least two uniquely labeled options, and a correct label
// that refers to one of them.
func ValidateQuestion(q *model.GeneratedQuestion) error {
	if q == nil {
		return fmt.Errorf("nil question")
	}
	if strings.TrimSpace(q.Stem) == "" {
		return fmt.Errorf("empty stem")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("need at least 2 options, got %d", len(q.Options))
	}

	seen := make(map[string]bool, len(q.Options))
	correctFound := false
	for i, opt := range q.Options {
		label := strings.ToUpper(strings.TrimSpace(opt.Label))
		if label == "" {
			return fmt.Errorf("option %d has empty label", i)
		}
		if strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("option %s has empty text", label)
		}
		if seen[label] {
			return fmt.Errorf("duplicate option label %s", label)
		}
		seen[label] = true
		if label == strings.ToUpper(q.CorrectLabel) {
			correctFound = true
		}
	}
	if !correctFound {
		return fmt.Errorf("correct label %q not among options", q.CorrectLabel)
	}
	if strings.TrimSpace(q.CorrectRationale) == "" {
		return fmt.Errorf("empty correct rationale")
	}
	return nil
}

// ValidateCase checks a generated case study: non-empty vignette, at least
// one question, and per-question distractor integrity. Unknown domain tags
// are coerced to OT_EXP rather than rejected since the payload is otherwise
// usable.
func ValidateCase(c *model.GeneratedCase) error {
	if c == nil {
		return fmt.Errorf("nil case")
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("empty title")
	}
	if strings.TrimSpace(c.Vignette) == "" {
		return fmt.Errorf("empty vignette")
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("case has no questions")
	}

	for i := range c.Questions {
		q := &c.Questions[i]
		if strings.TrimSpace(q.Stem) == "" {
			return fmt.Errorf("question %d has empty stem", i+1)
		}
		if !q.Domain.Valid() {
			q.Domain = model.DomainOTExpertise
		}
		if len(q.Distractors) < 2 {
			return fmt.Errorf("question %d needs at least 2 options, got %d", i+1, len(q.Distractors))
		}

		seen := make(map[string]bool, len(q.Distractors))
		correctFound := false
		for j, d := range q.Distractors {
			label := strings.ToUpper(strings.TrimSpace(d.Label))
			if label == "" {
				return fmt.Errorf("question %d option %d has empty label", i+1, j)
			}
			if strings.TrimSpace(d.Text) == "" {
				return fmt.Errorf("question %d option %s has empty text", i+1, label)
			}
			if seen[label] {
				return fmt.Errorf("question %d has duplicate label %s", i+1, label)
			}
			seen[label] = true
			if label == strings.ToUpper(q.CorrectLabel) {
				correctFound = true
			}
		}
		if !correctFound {
			return fmt.Errorf("question %d correct label %q not among options", i+1, q.CorrectLabel)
		}
	}
	return nil
}

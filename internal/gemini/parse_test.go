package gemini

import (
	"testing"

	"github.com/notcelab/notce-backend/internal/model"
)

func TestCleanJSONText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with prose around", "Here you go:\n```json\n{\"a\":1}\n```\nDone.", `{"a":1}`},
		{"multiline body", "```json\n{\n  \"a\": 1\n}\n```", "{\n  \"a\": 1\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSONText(tt.in); got != tt.want {
				t.Errorf("CleanJSONText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func validQuestion() *model.GeneratedQuestion {
	return &model.GeneratedQuestion{
		Stem: "An OT is planning discharge for a client after hip replacement. What is the priority?",
		Options: []model.Option{
			{Label: "A", Text: "Home safety assessment"},
			{Label: "B", Text: "Strengthening program"},
			{Label: "C", Text: "Referral to outpatient"},
			{Label: "D", Text: "Equipment ordering"},
		},
		CorrectLabel:     "A",
		CorrectRationale: "Safety in the discharge environment is the first concern.",
		IncorrectRationales: map[string]string{
			"B": "Strengthening follows safety planning.",
			"C": "Referral comes later.",
			"D": "Equipment depends on the assessment.",
		},
		Topic: "discharge planning",
	}
}

func TestValidateQuestion(t *testing.T) {
	if err := ValidateQuestion(validQuestion()); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*model.GeneratedQuestion)
	}{
		{"nil stem", func(q *model.GeneratedQuestion) { q.Stem = "  " }},
		{"too few options", func(q *model.GeneratedQuestion) { q.Options = q.Options[:1] }},
		{"duplicate labels", func(q *model.GeneratedQuestion) { q.Options[1].Label = "A" }},
		{"empty option text", func(q *model.GeneratedQuestion) { q.Options[2].Text = "" }},
		{"correct label missing", func(q *model.GeneratedQuestion) { q.CorrectLabel = "E" }},
		{"empty rationale", func(q *model.GeneratedQuestion) { q.CorrectRationale = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(q)
			if err := ValidateQuestion(q); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	t.Run("lowercase correct label accepted", func(t *testing.T) {
		q := validQuestion()
		q.CorrectLabel = "a"
		if err := ValidateQuestion(q); err != nil {
			t.Errorf("lowercase label rejected: %v", err)
		}
	})

	t.Run("nil question", func(t *testing.T) {
		if err := ValidateQuestion(nil); err == nil {
			t.Error("expected error for nil question")
		}
	})
}

func validCase() *model.GeneratedCase {
	return &model.GeneratedCase{
		Title:    "Acute Care After Stroke",
		Vignette: "A 67-year-old client presents three days post left CVA with right-side weakness.",
		Setting:  "Acute Care",
		Questions: []model.GeneratedCaseQ{
			{
				Stem:             "What should the OT assess first?",
				Domain:           model.DomainOTExpertise,
				CorrectLabel:     "B",
				CorrectRationale: "Swallowing safety precedes feeding retraining.",
				Distractors: []model.Distractor{
					{Label: "A", Text: "Fine motor skills", IncorrectRationale: "Not the acute priority."},
					{Label: "B", Text: "Swallowing screen results"},
					{Label: "C", Text: "Home layout", IncorrectRationale: "Relevant at discharge."},
				},
			},
		},
	}
}

func TestValidateCase(t *testing.T) {
	if err := ValidateCase(validCase()); err != nil {
		t.Fatalf("valid case rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*model.GeneratedCase)
	}{
		{"empty title", func(c *model.GeneratedCase) { c.Title = "" }},
		{"empty vignette", func(c *model.GeneratedCase) { c.Vignette = " " }},
		{"no questions", func(c *model.GeneratedCase) { c.Questions = nil }},
		{"question empty stem", func(c *model.GeneratedCase) { c.Questions[0].Stem = "" }},
		{"too few distractors", func(c *model.GeneratedCase) { c.Questions[0].Distractors = c.Questions[0].Distractors[:1] }},
		{"duplicate distractor labels", func(c *model.GeneratedCase) { c.Questions[0].Distractors[2].Label = "A" }},
		{"correct label missing", func(c *model.GeneratedCase) { c.Questions[0].CorrectLabel = "Z" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCase()
			tt.mutate(c)
			if err := ValidateCase(c); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	t.Run("unknown domain coerced", func(t *testing.T) {
		c := validCase()
		c.Questions[0].Domain = "SOMETHING_ELSE"
		if err := ValidateCase(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Questions[0].Domain != model.DomainOTExpertise {
			t.Errorf("domain = %s, want %s", c.Questions[0].Domain, model.DomainOTExpertise)
		}
	})
}

package model

// Option is one labeled answer choice.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// GeneratedQuestion is a standalone AI-generated practice question, held on
// the session while it is the current question. The correct label and the
// rationales never leave the server before the question is answered.
type GeneratedQuestion struct {
	Stem                string            `json:"stem"`
	Options             []Option          `json:"options"`
	CorrectLabel        string            `json:"correct_label"`
	CorrectRationale    string            `json:"correct_rationale"`
	IncorrectRationales map[string]string `json:"incorrect_rationales,omitempty"`
	Topic               string            `json:"topic,omitempty"`
}

// Sanitized returns the learner-facing view without the answer key.
func (q *GeneratedQuestion) Sanitized() *QuestionView {
	if q == nil {
		return nil
	}
	return &QuestionView{Stem: q.Stem, Options: q.Options}
}

// QuestionView is a question as sent to the learner: stem and options only.
type QuestionView struct {
	Stem    string   `json:"stem"`
	Options []Option `json:"options"`
}

// Feedback is the per-question judgment returned after a practice submit.
type Feedback struct {
	IsCorrect    bool   `json:"is_correct"`
	CorrectLabel string `json:"correct_label"`
	Message      string `json:"feedback_message"`
	Explanation  string `json:"explanation"`
}

// PivotScenario is a "what if" variant of the current question: one clinical
// variable changed, with an explanation of how the reasoning shifts.
type PivotScenario struct {
	PivotVariable      string `json:"pivot_variable"`
	NewScenarioSnippet string `json:"new_scenario_snippet"`
	ChangeExplanation  string `json:"change_explanation"`
}

// RationaleContext carries prior-performance signals into evolving-rationale
// generation.
type RationaleContext struct {
	PreviousCorrect    bool
	PreviousLabel      string
	AllPreviousCorrect bool
	HasPreviousAnswer  bool
}

// ExpertIndicator is a clinical cue the Question Source extracts from a
// vignette, quoted verbatim so its position can be located.
type ExpertIndicator struct {
	Text       string `json:"text"`
	Importance string `json:"importance"` // "critical" or "supporting"
}

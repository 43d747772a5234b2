package model

// PreviousAnswer is the learner's result on the preceding linked question.
type PreviousAnswer struct {
	IsCorrect     bool   `json:"is_correct"`
	SelectedLabel string `json:"selected_label"`
}

// RationaleRequest is the payload for an evolving rationale tip.
type RationaleRequest struct {
	QuestionID         string          `json:"question_id" binding:"required"`
	PreviousAnswer     *PreviousAnswer `json:"previous_answer"`
	AllPreviousCorrect bool            `json:"all_previous_correct"`
}

// EvidenceLinkRequest is the payload for perceptual-training analysis.
type EvidenceLinkRequest struct {
	QuestionID     string          `json:"question_id" binding:"required"`
	UserHighlights []HighlightSpan `json:"user_highlights"`
}

// AnswerReview is the graded result of a case question answer.
type AnswerReview struct {
	QuestionID         string    `json:"question_id"`
	IsCorrect          bool      `json:"is_correct"`
	CorrectLabel       string    `json:"correct_label"`
	CorrectRationale   string    `json:"correct_rationale"`
	IncorrectRationale string    `json:"incorrect_rationale,omitempty"`
	Domain             DomainTag `json:"domain"`
}

package model

import "time"

// UserAnswer is a graded answer to a persisted case question.
type UserAnswer struct {
	ID            int             `json:"id"`
	UserID        int             `json:"-"`
	QuestionID    string          `json:"question_id"`
	SelectedLabel string          `json:"selected_label"`
	Confidence    ConfidenceLevel `json:"confidence"`
	IsCorrect     bool            `json:"is_correct"`
	Domain        DomainTag       `json:"domain"`
	Topic         string          `json:"topic,omitempty"`
	AnsweredAt    time.Time       `json:"timestamp"`
}

// AnswerEvent is the queue payload archived asynchronously for analytics.
// Study-session submits produce these; the answer-log worker batch-inserts
// them into user_answers.
type AnswerEvent struct {
	UserID        int             `json:"user_id"`
	QuestionID    string          `json:"question_id"`
	SelectedLabel string          `json:"selected_label"`
	Confidence    ConfidenceLevel `json:"confidence"`
	IsCorrect     bool            `json:"is_correct"`
	Domain        DomainTag       `json:"domain"`
	Topic         string          `json:"topic,omitempty"`
	AnsweredAt    time.Time       `json:"answered_at"`
}

// RecordAnswerRequest is the payload for answering a case question.
type RecordAnswerRequest struct {
	QuestionID    string          `json:"question_id" binding:"required"`
	SelectedLabel string          `json:"selected_label" binding:"required,len=1,alpha"`
	Confidence    ConfidenceLevel `json:"confidence" binding:"omitempty,oneof=LOW MED HIGH"`
}

// DomainStat is one row of the domain-weighted performance read model.
type DomainStat struct {
	Domain    DomainTag `json:"domain"`
	Name      string    `json:"name"`
	Attempted int       `json:"attempted"`
	Correct   int       `json:"correct"`
	Accuracy  float64   `json:"accuracy"`
	Weight    float64   `json:"weight"`
}

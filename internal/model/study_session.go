package model

import (
	"time"

	"github.com/google/uuid"
)

// StudyMode distinguishes immediate-feedback practice from deferred-feedback
// exam simulation.
type StudyMode string

const (
	StudyModePractice StudyMode = "practice"
	StudyModeExam     StudyMode = "exam"
)

// Exam-mode defaults: two books of 100 questions inside a 4-hour budget.
const (
	ExamDefaultQuestions = 200
	ExamBookQuestions    = 100
	ExamBudgetMinutes    = 240
)

// PracticeLengths are the allowed practice session sizes.
var PracticeLengths = []int{10, 25, 50}

// ExamConfig describes the book layout of an exam-mode session.
type ExamConfig struct {
	Book       int `json:"book"`
	TotalBooks int `json:"total_books"`
}

// HistoryEntry records one answered question inside a session.
type HistoryEntry struct {
	QuestionNumber int    `json:"question_number"`
	Stem           string `json:"stem"`
	SelectedLabel  string `json:"selected_label"`
	CorrectLabel   string `json:"correct_label"`
	IsCorrect      bool   `json:"is_correct"`
	Timestamp      string `json:"timestamp"`
}

// HighlightSpan is a learner text selection inside the current question.
type HighlightSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// StudySession is one attempt at a sequence of AI-generated questions.
// Question payloads are ephemeral JSON documents on the row; only answer
// events are archived separately for analytics.
type StudySession struct {
	ID                  uuid.UUID          `json:"id"`
	UserID              int                `json:"-"`
	Domain              DomainTag          `json:"domain"`
	Difficulty          Difficulty         `json:"difficulty"`
	Mode                StudyMode          `json:"mode"`
	TotalQuestions      int                `json:"total_questions"`
	CurrentQuestion     int                `json:"current_question"`
	CorrectCount        int                `json:"correct_count"`
	Answered            bool               `json:"-"`
	TopicsCovered       []string           `json:"-"`
	CurrentQuestionData *GeneratedQuestion `json:"-"`
	NextQuestionData    *GeneratedQuestion `json:"-"`
	PivotData           *PivotScenario     `json:"-"`
	History             []HistoryEntry     `json:"-"`
	Highlights          []HighlightSpan    `json:"highlights,omitempty"`
	ExamConfig          *ExamConfig        `json:"exam_config,omitempty"`
	TimerStart          *time.Time         `json:"timer_start,omitempty"`
	IsActive            bool               `json:"is_active"`
	StartedAt           time.Time          `json:"started_at"`
	LastAccessed        time.Time          `json:"last_accessed"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
}

// Progress is the running score snapshot returned with submits and resumes.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Correct    int `json:"correct"`
	Percentage int `json:"percentage"`
}

// FinalScore is the terminal score object for a completed session.
type FinalScore struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// StartSessionRequest is the payload for starting a study session.
type StartSessionRequest struct {
	Domain         DomainTag  `json:"domain" binding:"required"`
	Difficulty     Difficulty `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
	TotalQuestions int        `json:"total_questions" binding:"omitempty,min=1,max=200"`
	Mode           StudyMode  `json:"mode" binding:"omitempty,oneof=practice exam"`
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	SelectedLabel string          `json:"selected_label" binding:"required,len=1,alpha"`
	Confidence    ConfidenceLevel `json:"confidence" binding:"omitempty,oneof=LOW MED HIGH"`
}

// SaveProgressRequest carries the highlight state for a best-effort save.
type SaveProgressRequest struct {
	Highlights []HighlightSpan `json:"highlights"`
}

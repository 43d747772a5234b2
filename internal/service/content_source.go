package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/notcelab/notce-backend/internal/model"
)

// QuestionSource produces AI-generated study content. The production
// implementation is internal/gemini; tests inject fakes.
type QuestionSource interface {
	PracticeQuestion(ctx context.Context, domain model.DomainTag, difficulty model.Difficulty, questionNumber, totalQuestions int, topicsCovered []string) (*model.GeneratedQuestion, error)
	CaseStudy(ctx context.Context, domain model.DomainTag, difficulty model.Difficulty) (*model.GeneratedCase, error)
	Pivot(ctx context.Context, stem, correctLabel, correctRationale string) (*model.PivotScenario, error)
	RationaleTip(ctx context.Context, stem, correctRationale string, rc model.RationaleContext) (string, error)
	EvidenceIndicators(ctx context.Context, vignette, stem, correctAnswer, correctRationale string, userHighlightTexts []string) ([]model.ExpertIndicator, string, error)
}

// SessionStore is the persistence surface the study controller needs.
// *repository.StudySessionRepository is the production implementation.
type SessionStore interface {
	Create(ctx context.Context, s *model.StudySession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.StudySession, error)
	GetActiveByUser(ctx context.Context, userID int) (*model.StudySession, error)
	Update(ctx context.Context, s *model.StudySession) error
	SaveHighlights(ctx context.Context, id uuid.UUID, highlights []model.HighlightSpan) error
	Abandon(ctx context.Context, userID int) error
}

// JobQueue hands work to the background workers. *repository.Queue is the
// production implementation.
type JobQueue interface {
	EnqueuePrefetch(ctx context.Context, sessionID string) error
	EnqueueAnswerEvent(ctx context.Context, e *model.AnswerEvent) error
	EnqueueCaseGeneration(ctx context.Context, domain model.DomainTag, difficulty model.Difficulty) error
	EnqueueProgressSave(ctx context.Context, sessionID string, highlights []model.HighlightSpan) error
}

// ReportMailer sends the optional completion report. A nil mailer or one
// with sending disabled is valid; completion never depends on it.
type ReportMailer interface {
	SendSessionReport(ctx context.Context, to, name string, s *model.StudySession, score model.FinalScore) error
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/rs/zerolog"
)

// Study session errors, mapped to response codes at the handler boundary.
var (
	ErrSessionNotFound      = errors.New("study session not found")
	ErrNotSessionOwner      = errors.New("session belongs to another user")
	ErrSessionCompleted     = errors.New("study session is already completed")
	ErrNoActiveQuestion     = errors.New("no active question on session")
	ErrAlreadyAnswered      = errors.New("current question already answered")
	ErrAnswerRequired       = errors.New("current question not answered yet")
	ErrPivotUnavailable     = errors.New("pivot unavailable for this question")
	ErrInvalidSessionLength = errors.New("invalid practice session length")
	ErrInvalidDomain        = errors.New("unknown competency domain")
	ErrGenerationFailed     = errors.New("question generation failed")
)

// userGetter is the slice of the user repository the controller needs for
// completion reports.
type userGetter interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
}

// StudyService is the server-authoritative controller for practice and exam
// sessions. All transitions happen here; handlers only translate HTTP.
type StudyService struct {
	store  SessionStore
	source QuestionSource
	queue  JobQueue
	mailer ReportMailer
	users  userGetter
	log    zerolog.Logger
}

// NewStudyService creates a new StudyService. mailer may be nil.
func NewStudyService(store SessionStore, source QuestionSource, queue JobQueue, mailer ReportMailer, users userGetter, log zerolog.Logger) *StudyService {
	return &StudyService{
		store:  store,
		source: source,
		queue:  queue,
		mailer: mailer,
		users:  users,
		log:    log.With().Str("component", "study_service").Logger(),
	}
}

// StartResult is the response payload for a freshly started session.
type StartResult struct {
	SessionID      uuid.UUID           `json:"session_id"`
	Domain         model.DomainTag     `json:"domain"`
	Difficulty     model.Difficulty    `json:"difficulty"`
	Mode           model.StudyMode     `json:"mode"`
	TotalQuestions int                 `json:"total_questions"`
	CurrentQuest   int                 `json:"current_question"`
	Question       *model.QuestionView `json:"question"`
	ExamConfig     *model.ExamConfig   `json:"exam_config,omitempty"`
	TimerSeconds   int                 `json:"timer_seconds,omitempty"`
}

// Start creates a session and generates its first question. Any previously
// active session for the user is abandoned so one session is active at a
// time. Nothing is persisted when generation fails.
func (s *StudyService) Start(ctx context.Context, userID int, req *model.StartSessionRequest) (*StartResult, error) {
	if !req.Domain.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, req.Domain)
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	mode := req.Mode
	if mode == "" {
		mode = model.StudyModePractice
	}

	total := req.TotalQuestions
	var examConfig *model.ExamConfig
	var timerStart *time.Time

	switch mode {
	case model.StudyModeExam:
		if total == 0 {
			total = model.ExamDefaultQuestions
		}
		books := 1
		if total == model.ExamDefaultQuestions {
			books = 2
		}
		examConfig = &model.ExamConfig{Book: 1, TotalBooks: books}
		now := time.Now()
		timerStart = &now
	default:
		if total == 0 {
			total = model.PracticeLengths[0]
		}
		if !validPracticeLength(total) {
			return nil, ErrInvalidSessionLength
		}
	}

	first, err := s.source.PracticeQuestion(ctx, req.Domain, difficulty, 1, total, nil)
	if err != nil {
		s.log.Error().Err(err).Str("domain", string(req.Domain)).Msg("First question generation failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if err := s.store.Abandon(ctx, userID); err != nil {
		return nil, fmt.Errorf("abandon stale sessions: %w", err)
	}

	session := &model.StudySession{
		ID:                  uuid.New(),
		UserID:              userID,
		Domain:              req.Domain,
		Difficulty:          difficulty,
		Mode:                mode,
		TotalQuestions:      total,
		CurrentQuestion:     1,
		CurrentQuestionData: first,
		ExamConfig:          examConfig,
		TimerStart:          timerStart,
		IsActive:            true,
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	res := &StartResult{
		SessionID:      session.ID,
		Domain:         session.Domain,
		Difficulty:     session.Difficulty,
		Mode:           session.Mode,
		TotalQuestions: session.TotalQuestions,
		CurrentQuest:   session.CurrentQuestion,
		Question:       first.Sanitized(),
		ExamConfig:     examConfig,
	}
	if mode == model.StudyModeExam {
		res.TimerSeconds = model.ExamBudgetMinutes * 60
	}
	return res, nil
}

func validPracticeLength(n int) bool {
	for _, l := range model.PracticeLengths {
		if n == l {
			return true
		}
	}
	return false
}

// SubmitResult is the response payload for an answer submission. Feedback is
// nil in exam mode.
type SubmitResult struct {
	Feedback   *model.Feedback `json:"feedback"`
	Progress   model.Progress  `json:"progress"`
	IsComplete bool            `json:"is_complete"`
}

// Submit grades the current question against its stored answer key. A
// question accepts exactly one submission.
func (s *StudyService) Submit(ctx context.Context, userID int, sessionID uuid.UUID, req *model.SubmitAnswerRequest) (*SubmitResult, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionCompleted
	}
	q := session.CurrentQuestionData
	if q == nil {
		return nil, ErrNoActiveQuestion
	}
	if session.Answered {
		return nil, ErrAlreadyAnswered
	}

	selected := strings.ToUpper(req.SelectedLabel)
	feedback := BuildFeedback(q, selected)

	if feedback.IsCorrect {
		session.CorrectCount++
	}
	if q.Topic != "" && !containsString(session.TopicsCovered, q.Topic) {
		session.TopicsCovered = append(session.TopicsCovered, q.Topic)
	}
	session.History = append(session.History, model.HistoryEntry{
		QuestionNumber: session.CurrentQuestion,
		Stem:           q.Stem,
		SelectedLabel:  selected,
		CorrectLabel:   q.CorrectLabel,
		IsCorrect:      feedback.IsCorrect,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
	session.Answered = true

	if err := s.store.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("persist submit: %w", err)
	}

	// Archive for analytics off the request path. Queue failures are logged,
	// never surfaced: the grade already stands.
	event := &model.AnswerEvent{
		UserID:        userID,
		QuestionID:    fmt.Sprintf("mock-%s-q%d", session.ID, session.CurrentQuestion),
		SelectedLabel: selected,
		Confidence:    req.Confidence,
		IsCorrect:     feedback.IsCorrect,
		Domain:        session.Domain,
		Topic:         q.Topic,
		AnsweredAt:    time.Now(),
	}
	if err := s.queue.EnqueueAnswerEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Answer event enqueue failed")
	}

	result := &SubmitResult{
		Progress:   progressOf(session),
		IsComplete: session.CurrentQuestion >= session.TotalQuestions,
	}
	if session.Mode != model.StudyModeExam {
		result.Feedback = feedback
	}
	return result, nil
}

// NextResult is the response payload for advancing a session.
type NextResult struct {
	IsComplete      bool                  `json:"is_complete"`
	FinalScore      *model.FinalScore     `json:"final_score,omitempty"`
	CurrentQuestion int                   `json:"current_question,omitempty"`
	TotalQuestions  int                   `json:"total_questions,omitempty"`
	Question        *model.QuestionView   `json:"question,omitempty"`
	Highlights      []model.HighlightSpan `json:"highlights,omitempty"`
}

// Next either completes a finished session or advances to the following
// question, consuming the prefetched payload when one is waiting. Advancing
// past an unanswered question is rejected.
func (s *StudyService) Next(ctx context.Context, userID int, sessionID uuid.UUID) (*NextResult, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionCompleted
	}
	if session.CurrentQuestionData != nil && !session.Answered {
		return nil, ErrAnswerRequired
	}

	if session.CurrentQuestion >= session.TotalQuestions {
		return s.complete(ctx, session)
	}

	session.CurrentQuestion++

	q := session.NextQuestionData
	if q != nil {
		session.NextQuestionData = nil
	} else {
		q, err = s.source.PracticeQuestion(ctx, session.Domain, session.Difficulty,
			session.CurrentQuestion, session.TotalQuestions, session.TopicsCovered)
		if err != nil {
			s.log.Error().Err(err).Str("session_id", session.ID.String()).Msg("Next question generation failed")
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	session.CurrentQuestionData = q
	session.Answered = false
	session.PivotData = nil

	if err := s.store.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("persist advance: %w", err)
	}

	return &NextResult{
		IsComplete:      false,
		CurrentQuestion: session.CurrentQuestion,
		TotalQuestions:  session.TotalQuestions,
		Question:        q.Sanitized(),
		Highlights:      session.Highlights,
	}, nil
}

func (s *StudyService) complete(ctx context.Context, session *model.StudySession) (*NextResult, error) {
	now := time.Now()
	session.IsActive = false
	session.CompletedAt = &now
	session.CurrentQuestionData = nil
	session.NextQuestionData = nil
	session.PivotData = nil

	if err := s.store.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("persist completion: %w", err)
	}

	score := model.FinalScore{
		Correct:    session.CorrectCount,
		Total:      session.TotalQuestions,
		Percentage: session.CorrectCount * 100 / session.TotalQuestions,
	}

	s.sendReport(session, score)

	return &NextResult{IsComplete: true, FinalScore: &score}, nil
}

// sendReport fires the completion email without blocking or failing the
// completion response.
func (s *StudyService) sendReport(session *model.StudySession, score model.FinalScore) {
	if s.mailer == nil || s.users == nil {
		return
	}
	snapshot := *session
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		user, err := s.users.GetByID(ctx, snapshot.UserID)
		if err != nil {
			s.log.Warn().Err(err).Int("user_id", snapshot.UserID).Msg("Report user lookup failed")
			return
		}
		if err := s.mailer.SendSessionReport(ctx, user.Email, user.Name, &snapshot, score); err != nil {
			s.log.Warn().Err(err).Str("session_id", snapshot.ID.String()).Msg("Session report email failed")
		}
	}()
}

// Pivot generates (or returns the held) what-if variant for the answered
// current question. Exam mode has no pivots.
func (s *StudyService) Pivot(ctx context.Context, userID int, sessionID uuid.UUID) (*model.PivotScenario, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionCompleted
	}
	if session.Mode == model.StudyModeExam {
		return nil, ErrPivotUnavailable
	}
	q := session.CurrentQuestionData
	if q == nil {
		return nil, ErrNoActiveQuestion
	}
	if !session.Answered {
		return nil, ErrPivotUnavailable
	}
	if session.PivotData != nil {
		return session.PivotData, nil
	}

	pivot, err := s.source.Pivot(ctx, q.Stem, q.CorrectLabel, q.CorrectRationale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	session.PivotData = pivot
	if err := s.store.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("persist pivot: %w", err)
	}
	return pivot, nil
}

// RequestPrefetch enqueues background generation of the next question.
// Returns false without enqueueing when the session is on its last question
// or the next payload is already waiting.
func (s *StudyService) RequestPrefetch(ctx context.Context, userID int, sessionID uuid.UUID) (bool, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return false, err
	}
	if !session.IsActive {
		return false, ErrSessionCompleted
	}
	if session.CurrentQuestion >= session.TotalQuestions || session.NextQuestionData != nil {
		return false, nil
	}
	if err := s.queue.EnqueuePrefetch(ctx, session.ID.String()); err != nil {
		return false, fmt.Errorf("enqueue prefetch: %w", err)
	}
	return true, nil
}

// SaveProgress persists the highlight state. Best-effort by contract: the
// caller treats failures as non-fatal.
func (s *StudyService) SaveProgress(ctx context.Context, userID int, sessionID uuid.UUID, highlights []model.HighlightSpan) error {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !session.IsActive {
		return ErrSessionCompleted
	}
	return s.store.SaveHighlights(ctx, sessionID, highlights)
}

// ActiveSessionView is the resume snapshot for the user's active session.
type ActiveSessionView struct {
	SessionID        uuid.UUID             `json:"session_id"`
	Domain           model.DomainTag       `json:"domain"`
	Difficulty       model.Difficulty      `json:"difficulty"`
	Mode             model.StudyMode       `json:"mode"`
	TotalQuestions   int                   `json:"total_questions"`
	CurrentQuestion  int                   `json:"current_question"`
	Question         *model.QuestionView   `json:"question"`
	Highlights       []model.HighlightSpan `json:"highlights"`
	Progress         model.Progress        `json:"progress"`
	ExamConfig       *model.ExamConfig     `json:"exam_config,omitempty"`
	RemainingSeconds *int                  `json:"remaining_seconds,omitempty"`
}

// GetActive returns the user's most recent active session, or nil when none
// exists.
func (s *StudyService) GetActive(ctx context.Context, userID int) (*ActiveSessionView, error) {
	session, err := s.store.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	view := &ActiveSessionView{
		SessionID:       session.ID,
		Domain:          session.Domain,
		Difficulty:      session.Difficulty,
		Mode:            session.Mode,
		TotalQuestions:  session.TotalQuestions,
		CurrentQuestion: session.CurrentQuestion,
		Question:        session.CurrentQuestionData.Sanitized(),
		Highlights:      session.Highlights,
		Progress:        progressOf(session),
		ExamConfig:      session.ExamConfig,
	}
	if session.Mode == model.StudyModeExam && session.TimerStart != nil {
		remaining := RemainingSeconds(*session.TimerStart, time.Now())
		view.RemainingSeconds = &remaining
	}
	return view, nil
}

// VerifyActiveOwnership checks that the session exists, belongs to the user,
// and is still active. Used before streaming.
func (s *StudyService) VerifyActiveOwnership(ctx context.Context, userID int, sessionID uuid.UUID) error {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !session.IsActive {
		return ErrSessionCompleted
	}
	return nil
}

// RemainingSeconds computes the advisory exam countdown, floored at zero.
// The timer never force-completes a session.
func RemainingSeconds(timerStart, now time.Time) int {
	budget := time.Duration(model.ExamBudgetMinutes) * time.Minute
	remaining := budget - now.Sub(timerStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// BuildFeedback grades a selection against the stored answer key and
// composes the explanation from the stored rationales. No prose parsing
// happens anywhere in grading.
func BuildFeedback(q *model.GeneratedQuestion, selectedLabel string) *model.Feedback {
	selected := strings.ToUpper(selectedLabel)
	correct := strings.ToUpper(q.CorrectLabel)

	if selected == correct {
		return &model.Feedback{
			IsCorrect:    true,
			CorrectLabel: q.CorrectLabel,
			Message:      "Correct! 🎉",
			Explanation:  q.CorrectRationale,
		}
	}

	incorrectReason, ok := q.IncorrectRationales[selected]
	if !ok {
		incorrectReason = "This option does not align with best practices."
	}
	return &model.Feedback{
		IsCorrect:    false,
		CorrectLabel: q.CorrectLabel,
		Message:      fmt.Sprintf("Not quite. The correct answer is %s.", q.CorrectLabel),
		Explanation: fmt.Sprintf("**Why %s is incorrect:** %s\n\n**Correct answer (%s):** %s",
			selected, incorrectReason, q.CorrectLabel, q.CorrectRationale),
	}
}

func (s *StudyService) getOwned(ctx context.Context, userID int, sessionID uuid.UUID) (*model.StudySession, error) {
	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

func progressOf(s *model.StudySession) model.Progress {
	return model.Progress{
		Current:    s.CurrentQuestion,
		Total:      s.TotalQuestions,
		Correct:    s.CorrectCount,
		Percentage: s.CurrentQuestion * 100 / s.TotalQuestions,
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

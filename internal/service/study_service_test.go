package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/rs/zerolog"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeSource struct {
	questionCalls int
	pivotCalls    int
	failQuestions bool
	failPivots    bool
}

func (f *fakeSource) PracticeQuestion(_ context.Context, domain model.DomainTag, _ model.Difficulty, n, total int, _ []string) (*model.GeneratedQuestion, error) {
	f.questionCalls++
	if f.failQuestions {
		return nil, errors.New("model unavailable")
	}
	return &model.GeneratedQuestion{
		Stem: fmt.Sprintf("Question %d of %d for %s", n, total, domain),
		Options: []model.Option{
			{Label: "A", Text: "First"},
			{Label: "B", Text: "Second"},
			{Label: "C", Text: "Third"},
			{Label: "D", Text: "Fourth"},
		},
		CorrectLabel:     "B",
		CorrectRationale: "B is the priority action.",
		IncorrectRationales: map[string]string{
			"A": "A skips assessment.",
			"C": "C is premature.",
			"D": "D is out of scope.",
		},
		Topic: fmt.Sprintf("topic-%d", n),
	}, nil
}

func (f *fakeSource) CaseStudy(context.Context, model.DomainTag, model.Difficulty) (*model.GeneratedCase, error) {
	return nil, errors.New("not used")
}

func (f *fakeSource) Pivot(context.Context, string, string, string) (*model.PivotScenario, error) {
	f.pivotCalls++
	if f.failPivots {
		return nil, errors.New("model unavailable")
	}
	return &model.PivotScenario{
		PivotVariable:      "From Inpatient to Home Health",
		NewScenarioSnippet: "The same client is now seen at home.",
		ChangeExplanation:  "Environmental safety becomes the first concern.",
	}, nil
}

func (f *fakeSource) RationaleTip(context.Context, string, string, model.RationaleContext) (string, error) {
	return "Keep anchoring on the client's stated goals.", nil
}

func (f *fakeSource) EvidenceIndicators(context.Context, string, string, string, string, []string) ([]model.ExpertIndicator, string, error) {
	return nil, "", errors.New("not used")
}

type memStore struct {
	sessions map[uuid.UUID]model.StudySession
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[uuid.UUID]model.StudySession)}
}

func (m *memStore) Create(_ context.Context, s *model.StudySession) error {
	s.StartedAt = time.Now()
	s.LastAccessed = s.StartedAt
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.StudySession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := s
	return &copied, nil
}

func (m *memStore) GetActiveByUser(_ context.Context, userID int) (*model.StudySession, error) {
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsActive {
			copied := s
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) Update(_ context.Context, s *model.StudySession) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) SaveHighlights(_ context.Context, id uuid.UUID, highlights []model.HighlightSpan) error {
	s, ok := m.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Highlights = highlights
	m.sessions[id] = s
	return nil
}

func (m *memStore) Abandon(_ context.Context, userID int) error {
	for id, s := range m.sessions {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			m.sessions[id] = s
		}
	}
	return nil
}

type fakeQueue struct {
	prefetches []string
	events     []*model.AnswerEvent
}

func (q *fakeQueue) EnqueuePrefetch(_ context.Context, sessionID string) error {
	q.prefetches = append(q.prefetches, sessionID)
	return nil
}

func (q *fakeQueue) EnqueueAnswerEvent(_ context.Context, e *model.AnswerEvent) error {
	q.events = append(q.events, e)
	return nil
}

func (q *fakeQueue) EnqueueCaseGeneration(context.Context, model.DomainTag, model.Difficulty) error {
	return nil
}

func (q *fakeQueue) EnqueueProgressSave(context.Context, string, []model.HighlightSpan) error {
	return nil
}

func newTestService() (*StudyService, *memStore, *fakeSource, *fakeQueue) {
	store := newMemStore()
	source := &fakeSource{}
	queue := &fakeQueue{}
	svc := NewStudyService(store, source, queue, nil, nil, zerolog.Nop())
	return svc, store, source, queue
}

const testUser = 7

// ─── Start ──────────────────────────────────────────────────────────────────

func TestStartPracticeDefaults(t *testing.T) {
	svc, store, _, _ := newTestService()

	res, err := svc.Start(context.Background(), testUser, &model.StartSessionRequest{Domain: model.DomainOTExpertise})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Mode != model.StudyModePractice {
		t.Errorf("mode = %s, want practice", res.Mode)
	}
	if res.TotalQuestions != 10 {
		t.Errorf("total = %d, want 10", res.TotalQuestions)
	}
	if res.CurrentQuest != 1 {
		t.Errorf("current = %d, want 1", res.CurrentQuest)
	}
	if res.Question == nil || len(res.Question.Options) != 4 {
		t.Fatal("expected sanitized question with 4 options")
	}

	stored := store.sessions[res.SessionID]
	if !stored.IsActive {
		t.Error("session should be active")
	}
	if stored.CurrentQuestionData == nil || stored.CurrentQuestionData.CorrectLabel == "" {
		t.Error("answer key should be stored server-side")
	}
}

func TestStartRejectsInvalidPracticeLength(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Start(context.Background(), testUser, &model.StartSessionRequest{
		Domain:         model.DomainOTExpertise,
		TotalQuestions: 17,
	})
	if !errors.Is(err, ErrInvalidSessionLength) {
		t.Errorf("err = %v, want ErrInvalidSessionLength", err)
	}
}

func TestStartRejectsUnknownDomain(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Start(context.Background(), testUser, &model.StartSessionRequest{Domain: "ASTROLOGY"})
	if !errors.Is(err, ErrInvalidDomain) {
		t.Errorf("err = %v, want ErrInvalidDomain", err)
	}
}

func TestStartExamDefaults(t *testing.T) {
	svc, store, _, _ := newTestService()

	res, err := svc.Start(context.Background(), testUser, &model.StartSessionRequest{
		Domain: model.DomainOTExpertise,
		Mode:   model.StudyModeExam,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.TotalQuestions != model.ExamDefaultQuestions {
		t.Errorf("total = %d, want %d", res.TotalQuestions, model.ExamDefaultQuestions)
	}
	if res.ExamConfig == nil || res.ExamConfig.TotalBooks != 2 {
		t.Errorf("exam config = %+v, want 2 books", res.ExamConfig)
	}
	if res.TimerSeconds != model.ExamBudgetMinutes*60 {
		t.Errorf("timer = %d, want %d", res.TimerSeconds, model.ExamBudgetMinutes*60)
	}
	if store.sessions[res.SessionID].TimerStart == nil {
		t.Error("exam session should record timer_start")
	}
}

func TestStartGenerationFailureLeavesNoSession(t *testing.T) {
	svc, store, source, _ := newTestService()
	source.failQuestions = true

	_, err := svc.Start(context.Background(), testUser, &model.StartSessionRequest{Domain: model.DomainOTExpertise})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if len(store.sessions) != 0 {
		t.Error("failed start must not persist a session")
	}
}

func TestStartAbandonsPreviousSession(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	first, _ := svc.Start(ctx, testUser, &model.StartSessionRequest{Domain: model.DomainOTExpertise})
	second, err := svc.Start(ctx, testUser, &model.StartSessionRequest{Domain: model.DomainCEJJustice})
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if store.sessions[first.SessionID].IsActive {
		t.Error("previous session should be abandoned")
	}
	if !store.sessions[second.SessionID].IsActive {
		t.Error("new session should be active")
	}
}

// ─── Submit ─────────────────────────────────────────────────────────────────

func startPractice(t *testing.T, svc *StudyService, total int) uuid.UUID {
	t.Helper()
	res, err := svc.Start(context.Background(), testUser, &model.StartSessionRequest{
		Domain:         model.DomainOTExpertise,
		TotalQuestions: total,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return res.SessionID
}

func TestSubmitCorrectAnswer(t *testing.T) {
	svc, store, _, queue := newTestService()
	id := startPractice(t, svc, 10)

	res, err := svc.Submit(context.Background(), testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "b"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Feedback == nil || !res.Feedback.IsCorrect {
		t.Fatalf("feedback = %+v, want correct", res.Feedback)
	}
	if res.Progress.Correct != 1 || res.Progress.Current != 1 {
		t.Errorf("progress = %+v", res.Progress)
	}
	if res.IsComplete {
		t.Error("session of 10 is not complete after 1 answer")
	}

	stored := store.sessions[id]
	if !stored.Answered {
		t.Error("answered flag should be set")
	}
	if len(stored.History) != 1 || !stored.History[0].IsCorrect {
		t.Errorf("history = %+v", stored.History)
	}
	if len(stored.TopicsCovered) != 1 {
		t.Errorf("topics = %v", stored.TopicsCovered)
	}
	if len(queue.events) != 1 || !queue.events[0].IsCorrect {
		t.Errorf("answer events = %+v", queue.events)
	}
}

func TestSubmitIncorrectAnswerFeedback(t *testing.T) {
	svc, _, _, _ := newTestService()
	id := startPractice(t, svc, 10)

	res, err := svc.Submit(context.Background(), testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "A"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	fb := res.Feedback
	if fb.IsCorrect {
		t.Fatal("A should be incorrect")
	}
	if fb.CorrectLabel != "B" {
		t.Errorf("correct label = %s, want B", fb.CorrectLabel)
	}
	if !strings.Contains(fb.Explanation, "A skips assessment.") {
		t.Errorf("explanation should cite the stored incorrect rationale, got %q", fb.Explanation)
	}
	if !strings.Contains(fb.Explanation, "B is the priority action.") {
		t.Errorf("explanation should cite the correct rationale, got %q", fb.Explanation)
	}
}

func TestSubmitIsOneShot(t *testing.T) {
	svc, _, _, _ := newTestService()
	id := startPractice(t, svc, 10)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "B"}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	_, err := svc.Submit(ctx, testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "C"})
	if !errors.Is(err, ErrAlreadyAnswered) {
		t.Errorf("err = %v, want ErrAlreadyAnswered", err)
	}
}

func TestSubmitExamModeWithholdsFeedback(t *testing.T) {
	svc, _, _, _ := newTestService()
	res, err := svc.Start(context.Background(), testUser, &model.StartSessionRequest{
		Domain: model.DomainOTExpertise,
		Mode:   model.StudyModeExam,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	sub, err := svc.Submit(context.Background(), testUser, res.SessionID, &model.SubmitAnswerRequest{SelectedLabel: "B"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Feedback != nil {
		t.Errorf("exam feedback = %+v, want nil", sub.Feedback)
	}
	if sub.Progress.Correct != 1 {
		t.Error("correct count still advances silently in exam mode")
	}
}

func TestSubmitForeignSessionRejected(t *testing.T) {
	svc, _, _, _ := newTestService()
	id := startPractice(t, svc, 10)

	_, err := svc.Submit(context.Background(), 999, id, &model.SubmitAnswerRequest{SelectedLabel: "B"})
	if !errors.Is(err, ErrNotSessionOwner) {
		t.Errorf("err = %v, want ErrNotSessionOwner", err)
	}
}

// ─── Next ───────────────────────────────────────────────────────────────────

func TestNextRequiresAnswer(t *testing.T) {
	svc, _, _, _ := newTestService()
	id := startPractice(t, svc, 10)

	_, err := svc.Next(context.Background(), testUser, id)
	if !errors.Is(err, ErrAnswerRequired) {
		t.Errorf("err = %v, want ErrAnswerRequired", err)
	}
}

func TestNextAdvancesAndResetsState(t *testing.T) {
	svc, store, source, _ := newTestService()
	id := startPractice(t, svc, 10)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "B"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Pivot(ctx, testUser, id); err != nil {
		t.Fatal(err)
	}

	callsBefore := source.questionCalls
	res, err := svc.Next(ctx, testUser, id)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if res.IsComplete {
		t.Fatal("not complete at question 2 of 10")
	}
	if res.CurrentQuestion != 2 {
		t.Errorf("current = %d, want 2", res.CurrentQuestion)
	}
	if source.questionCalls != callsBefore+1 {
		t.Error("expected synchronous generation without a prefetched payload")
	}

	stored := store.sessions[id]
	if stored.Answered {
		t.Error("answered flag should reset on advance")
	}
	if stored.PivotData != nil {
		t.Error("pivot should be cleared on advance")
	}
}

func TestNextConsumesPrefetchedQuestion(t *testing.T) {
	svc, store, source, _ := newTestService()
	id := startPractice(t, svc, 10)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "B"}); err != nil {
		t.Fatal(err)
	}

	// Simulate the prefetch worker having stored the next payload.
	s := store.sessions[id]
	s.NextQuestionData = &model.GeneratedQuestion{
		Stem:             "Prefetched stem",
		Options:          []model.Option{{Label: "A", Text: "x"}, {Label: "B", Text: "y"}},
		CorrectLabel:     "A",
		CorrectRationale: "Because.",
	}
	store.sessions[id] = s

	callsBefore := source.questionCalls
	res, err := svc.Next(ctx, testUser, id)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if res.Question.Stem != "Prefetched stem" {
		t.Errorf("stem = %q, want prefetched payload", res.Question.Stem)
	}
	if source.questionCalls != callsBefore {
		t.Error("prefetched payload must not trigger generation")
	}
	if store.sessions[id].NextQuestionData != nil {
		t.Error("prefetched payload should be consumed")
	}
}

func TestNextCompletesSession(t *testing.T) {
	svc, store, _, _ := newTestService()
	id := startPractice(t, svc, 10)
	ctx := context.Background()

	// Answer all 10, advancing between questions.
	for i := 1; i <= 10; i++ {
		if _, err := svc.Submit(ctx, testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "B"}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		res, err := svc.Next(ctx, testUser, id)
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if i < 10 && res.IsComplete {
			t.Fatalf("complete too early at %d", i)
		}
		if i == 10 {
			if !res.IsComplete {
				t.Fatal("expected completion after last question")
			}
			if res.FinalScore == nil || res.FinalScore.Correct != 10 || res.FinalScore.Percentage != 100 {
				t.Errorf("final score = %+v", res.FinalScore)
			}
		}
	}

	stored := store.sessions[id]
	if stored.IsActive {
		t.Error("completed session should be inactive")
	}
	if stored.CompletedAt == nil {
		t.Error("completed_at should be set")
	}

	_, err := svc.Submit(ctx, testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "B"})
	if !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("submit after completion: err = %v, want ErrSessionCompleted", err)
	}
}

// ─── Pivot ──────────────────────────────────────────────────────────────────

func TestPivotRequiresAnsweredQuestion(t *testing.T) {
	svc, _, _, _ := newTestService()
	id := startPractice(t, svc, 10)

	_, err := svc.Pivot(context.Background(), testUser, id)
	if !errors.Is(err, ErrPivotUnavailable) {
		t.Errorf("err = %v, want ErrPivotUnavailable", err)
	}
}

func TestPivotHeldOneAtATime(t *testing.T) {
	svc, _, source, _ := newTestService()
	id := startPractice(t, svc, 10)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, testUser, id, &model.SubmitAnswerRequest{SelectedLabel: "B"}); err != nil {
		t.Fatal(err)
	}

	first, err := svc.Pivot(ctx, testUser, id)
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	second, err := svc.Pivot(ctx, testUser, id)
	if err != nil {
		t.Fatalf("second Pivot: %v", err)
	}
	if source.pivotCalls != 1 {
		t.Errorf("pivot generations = %d, want 1 (held on session)", source.pivotCalls)
	}
	if first.PivotVariable != second.PivotVariable {
		t.Error("second call should return the held pivot")
	}
}

func TestPivotUnavailableInExamMode(t *testing.T) {
	svc, _, _, _ := newTestService()
	res, err := svc.Start(context.Background(), testUser, &model.StartSessionRequest{
		Domain: model.DomainOTExpertise,
		Mode:   model.StudyModeExam,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), testUser, res.SessionID, &model.SubmitAnswerRequest{SelectedLabel: "B"}); err != nil {
		t.Fatal(err)
	}

	_, err = svc.Pivot(context.Background(), testUser, res.SessionID)
	if !errors.Is(err, ErrPivotUnavailable) {
		t.Errorf("err = %v, want ErrPivotUnavailable", err)
	}
}

// ─── Prefetch / save / resume ───────────────────────────────────────────────

func TestRequestPrefetchQueues(t *testing.T) {
	svc, store, _, queue := newTestService()
	id := startPractice(t, svc, 10)
	ctx := context.Background()

	queued, err := svc.RequestPrefetch(ctx, testUser, id)
	if err != nil {
		t.Fatalf("RequestPrefetch: %v", err)
	}
	if !queued || len(queue.prefetches) != 1 {
		t.Errorf("queued = %v, jobs = %v", queued, queue.prefetches)
	}

	// Already-present payload suppresses further jobs.
	s := store.sessions[id]
	s.NextQuestionData = &model.GeneratedQuestion{Stem: "x"}
	store.sessions[id] = s

	queued, err = svc.RequestPrefetch(ctx, testUser, id)
	if err != nil {
		t.Fatal(err)
	}
	if queued {
		t.Error("prefetch should be skipped when a payload is waiting")
	}
}

func TestSaveProgressAndGetActive(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	if view, err := svc.GetActive(ctx, testUser); err != nil || view != nil {
		t.Fatalf("GetActive empty: view=%+v err=%v", view, err)
	}

	id := startPractice(t, svc, 25)
	highlights := []model.HighlightSpan{{Start: 3, End: 12, Text: "hip range"}}
	if err := svc.SaveProgress(ctx, testUser, id, highlights); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	view, err := svc.GetActive(ctx, testUser)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if view == nil || view.SessionID != id {
		t.Fatalf("view = %+v", view)
	}
	if len(view.Highlights) != 1 || view.Highlights[0].Text != "hip range" {
		t.Errorf("highlights = %+v", view.Highlights)
	}
	if view.Progress.Total != 25 {
		t.Errorf("progress total = %d", view.Progress.Total)
	}
	if view.Question == nil || view.Question.Stem == "" {
		t.Error("resume view should carry the sanitized current question")
	}
}

// ─── Timer / feedback helpers ───────────────────────────────────────────────

func TestRemainingSecondsFloorsAtZero(t *testing.T) {
	start := time.Now()
	if got := RemainingSeconds(start, start); got != model.ExamBudgetMinutes*60 {
		t.Errorf("fresh timer = %d", got)
	}
	if got := RemainingSeconds(start, start.Add(1*time.Hour)); got != (model.ExamBudgetMinutes-60)*60 {
		t.Errorf("after 1h = %d", got)
	}
	if got := RemainingSeconds(start, start.Add(5*time.Hour)); got != 0 {
		t.Errorf("expired timer = %d, want 0", got)
	}
}

func TestBuildFeedbackUnknownLabelFallback(t *testing.T) {
	q := &model.GeneratedQuestion{
		Stem:             "Stem",
		Options:          []model.Option{{Label: "A", Text: "x"}, {Label: "B", Text: "y"}},
		CorrectLabel:     "A",
		CorrectRationale: "Because A.",
	}
	fb := BuildFeedback(q, "B")
	if fb.IsCorrect {
		t.Fatal("B is incorrect")
	}
	if !strings.Contains(fb.Explanation, "does not align with best practices") {
		t.Errorf("missing fallback rationale: %q", fb.Explanation)
	}
}

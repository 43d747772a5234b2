package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/rs/zerolog"
)

// caseQuestionStore is the slice of the case repository the review flow
// needs.
type caseQuestionStore interface {
	GetQuestion(ctx context.Context, questionID string) (*model.CaseQuestion, error)
	GetByID(ctx context.Context, id string) (*model.CaseStudy, error)
}

// answerArchive persists graded answers for analytics.
type answerArchive interface {
	Insert(ctx context.Context, e *model.AnswerEvent) error
}

// ReviewService grades case question answers and produces the AI review
// surfaces: evolving rationales and evidence-link analysis.
type ReviewService struct {
	questions caseQuestionStore
	answers   answerArchive
	source    QuestionSource
	log       zerolog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(questions caseQuestionStore, answers answerArchive, source QuestionSource, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		questions: questions,
		answers:   answers,
		source:    source,
		log:       log.With().Str("component", "review_service").Logger(),
	}
}

// RecordAnswer grades a case question answer against the stored key and
// archives it. Grading is a pure label comparison.
func (s *ReviewService) RecordAnswer(ctx context.Context, userID int, req *model.RecordAnswerRequest) (*model.AnswerReview, error) {
	q, err := s.questions.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	selected := strings.ToUpper(req.SelectedLabel)
	isCorrect := selected == strings.ToUpper(q.CorrectLabel)

	review := &model.AnswerReview{
		QuestionID:       q.ID,
		IsCorrect:        isCorrect,
		CorrectLabel:     q.CorrectLabel,
		CorrectRationale: q.CorrectRationale,
		Domain:           q.Domain,
	}
	if !isCorrect {
		for _, d := range q.Distractors {
			if strings.EqualFold(d.Label, selected) {
				review.IncorrectRationale = d.IncorrectRationale
				break
			}
		}
	}

	event := &model.AnswerEvent{
		UserID:        userID,
		QuestionID:    q.ID,
		SelectedLabel: selected,
		Confidence:    req.Confidence,
		IsCorrect:     isCorrect,
		Domain:        q.Domain,
		AnsweredAt:    time.Now(),
	}
	if err := s.answers.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("archive answer: %w", err)
	}

	return review, nil
}

// Rationale generates an evolving tip for a linked question, conditioned on
// how the learner fared on the preceding ones.
func (s *ReviewService) Rationale(ctx context.Context, req *model.RationaleRequest) (string, error) {
	q, err := s.questions.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCaseNotFound
		}
		return "", err
	}

	rc := model.RationaleContext{
		PreviousCorrect:    true,
		AllPreviousCorrect: req.AllPreviousCorrect,
	}
	if req.PreviousAnswer != nil {
		rc.HasPreviousAnswer = true
		rc.PreviousCorrect = req.PreviousAnswer.IsCorrect
		rc.PreviousLabel = req.PreviousAnswer.SelectedLabel
	}

	tip, err := s.source.RationaleTip(ctx, q.Stem, q.CorrectRationale, rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return tip, nil
}

// EvidenceLink compares the learner's vignette highlights against expert
// clinical indicators and scores the overlap. The vignette always comes from
// the stored case, never from the client.
func (s *ReviewService) EvidenceLink(ctx context.Context, req *model.EvidenceLinkRequest) (*model.EvidenceLinkResult, error) {
	q, err := s.questions.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	cs, err := s.questions.GetByID(ctx, q.CaseStudyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	correctText := q.CorrectLabel
	for _, d := range q.Distractors {
		if strings.EqualFold(d.Label, q.CorrectLabel) {
			correctText = d.Text
			break
		}
	}

	texts := make([]string, 0, len(req.UserHighlights))
	for _, h := range req.UserHighlights {
		texts = append(texts, h.Text)
	}

	indicators, tip, err := s.source.EvidenceIndicators(ctx, cs.Vignette, q.Stem, correctText, q.CorrectRationale, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if tip == "" {
		tip = "Review the highlighted clinical indicators."
	}

	expert := LocateIndicators(cs.Vignette, indicators)
	matched, missed := MatchHighlights(expert, req.UserHighlights)

	score := 0
	if len(expert) > 0 {
		score = matched * 100 / len(expert)
	}

	return &model.EvidenceLinkResult{
		ExpertHighlights: expert,
		MatchedCount:     matched,
		MissedIndicators: missed,
		PerceptualTip:    tip,
		Score:            score,
	}, nil
}

// LocateIndicators resolves indicator phrases to positions in the vignette.
// Indicators that do not occur verbatim are dropped.
func LocateIndicators(vignette string, indicators []model.ExpertIndicator) []model.ExpertHighlight {
	located := make([]model.ExpertHighlight, 0, len(indicators))
	for _, ind := range indicators {
		start := strings.Index(vignette, ind.Text)
		if start < 0 || ind.Text == "" {
			continue
		}
		importance := ind.Importance
		if importance == "" {
			importance = "supporting"
		}
		located = append(located, model.ExpertHighlight{
			Start:      start,
			End:        start + len(ind.Text),
			Text:       ind.Text,
			Importance: importance,
		})
	}
	return located
}

// MatchHighlights counts expert indicators the learner caught. An indicator
// matches on positional overlap with any user highlight, or when its text is
// contained in a highlighted span.
func MatchHighlights(expert []model.ExpertHighlight, user []model.HighlightSpan) (int, []model.ExpertHighlight) {
	matched := 0
	missed := make([]model.ExpertHighlight, 0)

	for _, eh := range expert {
		found := false
		for _, uh := range user {
			if (uh.Start <= eh.Start && eh.Start < uh.End) || (uh.Start < eh.End && eh.End <= uh.End) {
				found = true
				break
			}
			if strings.Contains(strings.ToLower(uh.Text), strings.ToLower(eh.Text)) {
				found = true
				break
			}
		}
		if found {
			matched++
		} else {
			missed = append(missed, eh)
		}
	}
	return matched, missed
}

package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/rs/zerolog"
)

type fakeCaseStore struct {
	questions map[string]*model.CaseQuestion
	cases     map[string]*model.CaseStudy
}

func (f *fakeCaseStore) GetQuestion(_ context.Context, id string) (*model.CaseQuestion, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return q, nil
}

func (f *fakeCaseStore) GetByID(_ context.Context, id string) (*model.CaseStudy, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

type fakeArchive struct {
	events []*model.AnswerEvent
}

func (f *fakeArchive) Insert(_ context.Context, e *model.AnswerEvent) error {
	f.events = append(f.events, e)
	return nil
}

func reviewFixture() (*ReviewService, *fakeArchive) {
	store := &fakeCaseStore{
		questions: map[string]*model.CaseQuestion{
			"case-abc12345-q1": {
				ID:               "case-abc12345-q1",
				CaseStudyID:      "case-abc12345",
				Stem:             "What should the OT do first?",
				Domain:           model.DomainProfResp,
				CorrectLabel:     "C",
				CorrectRationale: "Consent precedes intervention.",
				Distractors: []model.Distractor{
					{Label: "A", Text: "Begin treatment", IncorrectRationale: "No consent yet."},
					{Label: "B", Text: "Call the family", IncorrectRationale: "Not first."},
					{Label: "C", Text: "Obtain informed consent"},
				},
			},
		},
		cases: map[string]*model.CaseStudy{
			"case-abc12345": {
				ID:       "case-abc12345",
				Vignette: "A 67-year-old client, three days post left CVA, reports right-side weakness and lives alone in a two-storey home.",
			},
		},
	}
	archive := &fakeArchive{}
	return NewReviewService(store, archive, &fakeSource{}, zerolog.Nop()), archive
}

func TestRecordAnswerGradesAgainstStoredKey(t *testing.T) {
	svc, archive := reviewFixture()
	ctx := context.Background()

	review, err := svc.RecordAnswer(ctx, testUser, &model.RecordAnswerRequest{
		QuestionID:    "case-abc12345-q1",
		SelectedLabel: "c",
		Confidence:    model.ConfidenceHigh,
	})
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if !review.IsCorrect || review.CorrectLabel != "C" {
		t.Errorf("review = %+v", review)
	}
	if review.IncorrectRationale != "" {
		t.Error("correct answers carry no incorrect rationale")
	}
	if len(archive.events) != 1 || archive.events[0].Domain != model.DomainProfResp {
		t.Errorf("archived = %+v", archive.events)
	}

	wrong, err := svc.RecordAnswer(ctx, testUser, &model.RecordAnswerRequest{
		QuestionID:    "case-abc12345-q1",
		SelectedLabel: "A",
	})
	if err != nil {
		t.Fatal(err)
	}
	if wrong.IsCorrect {
		t.Fatal("A should be incorrect")
	}
	if wrong.IncorrectRationale != "No consent yet." {
		t.Errorf("incorrect rationale = %q", wrong.IncorrectRationale)
	}
}

func TestRecordAnswerUnknownQuestion(t *testing.T) {
	svc, _ := reviewFixture()
	_, err := svc.RecordAnswer(context.Background(), testUser, &model.RecordAnswerRequest{
		QuestionID:    "case-missing-q9",
		SelectedLabel: "A",
	})
	if err != ErrCaseNotFound {
		t.Errorf("err = %v, want ErrCaseNotFound", err)
	}
}

func TestLocateIndicators(t *testing.T) {
	vignette := "Client lives alone in a two-storey home and reports dizziness on standing."

	located := LocateIndicators(vignette, []model.ExpertIndicator{
		{Text: "lives alone", Importance: "critical"},
		{Text: "dizziness on standing", Importance: ""},
		{Text: "not in the text", Importance: "critical"},
		{Text: "", Importance: "critical"},
	})

	if len(located) != 2 {
		t.Fatalf("located %d indicators, want 2", len(located))
	}
	if located[0].Start != 7 || located[0].End != 18 {
		t.Errorf("span = [%d,%d)", located[0].Start, located[0].End)
	}
	if vignette[located[1].Start:located[1].End] != "dizziness on standing" {
		t.Error("span should slice back to the indicator text")
	}
	if located[1].Importance != "supporting" {
		t.Errorf("importance default = %q, want supporting", located[1].Importance)
	}
}

func TestMatchHighlightsOverlapAndContainment(t *testing.T) {
	expert := []model.ExpertHighlight{
		{Start: 10, End: 20, Text: "lives alone", Importance: "critical"},
		{Start: 40, End: 60, Text: "dizziness on standing", Importance: "supporting"},
		{Start: 80, End: 90, Text: "no handrail", Importance: "critical"},
	}

	// First user span overlaps positionally; second matches by text
	// containment, case-insensitive; nothing covers the third indicator.
	user := []model.HighlightSpan{
		{Start: 15, End: 30, Text: "alone in a two"},
		{Start: 200, End: 230, Text: "notes Dizziness On Standing earlier"},
	}

	matched, missed := MatchHighlights(expert, user)
	if matched != 2 {
		t.Errorf("matched = %d, want 2", matched)
	}
	if len(missed) != 1 || missed[0].Text != "no handrail" {
		t.Errorf("missed = %+v", missed)
	}
}

func TestMatchHighlightsNoUserHighlights(t *testing.T) {
	expert := []model.ExpertHighlight{{Start: 0, End: 5, Text: "acute"}}
	matched, missed := MatchHighlights(expert, nil)
	if matched != 0 || len(missed) != 1 {
		t.Errorf("matched = %d, missed = %d", matched, len(missed))
	}
}

package model

import "time"

// CaseStudy is a persisted clinical vignette with its linked questions.
// IDs use the original "case-xxxxxxxx" short form rather than raw UUIDs so
// question IDs ("case-xxxxxxxx-q1") stay human-scannable.
type CaseStudy struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Vignette  string         `json:"vignette"`
	Setting   string         `json:"setting"`
	Tags      []string       `json:"tags"`
	Questions []CaseQuestion `json:"questions,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CaseQuestion is one question inside a case study. Distractors carry the
// option text for every label, including the correct one.
type CaseQuestion struct {
	ID               string       `json:"id"`
	CaseStudyID      string       `json:"-"`
	Stem             string       `json:"stem"`
	Domain           DomainTag    `json:"domain"`
	CorrectLabel     string       `json:"correct_label"`
	CorrectRationale string       `json:"correct_rationale"`
	Distractors      []Distractor `json:"distractors,omitempty"`
}

// Distractor is a labeled option of a case question.
type Distractor struct {
	Label              string `json:"label"`
	Text               string `json:"text"`
	IncorrectRationale string `json:"incorrect_rationale,omitempty"`
}

// GeneratedCase is the Question Source output for a full case study, before
// IDs are assigned and the case is persisted.
type GeneratedCase struct {
	Title     string           `json:"title"`
	Vignette  string           `json:"vignette"`
	Setting   string           `json:"setting"`
	Questions []GeneratedCaseQ `json:"questions"`
}

// GeneratedCaseQ is one generated case question.
type GeneratedCaseQ struct {
	Stem             string       `json:"stem"`
	Domain           DomainTag    `json:"domain"`
	CorrectLabel     string       `json:"correct_label"`
	CorrectRationale string       `json:"correct_rationale"`
	Distractors      []Distractor `json:"distractors"`
}

// GenerateCaseRequest is the payload for on-demand case generation.
type GenerateCaseRequest struct {
	Domain     DomainTag  `json:"domain" binding:"omitempty"`
	Difficulty Difficulty `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
}

// CaseProgress tracks a learner's position inside a case study for resume.
type CaseProgress struct {
	CaseStudyID  string    `json:"case_study_id"`
	CurrentIndex int       `json:"current_index"`
	IsCompleted  bool      `json:"is_completed"`
	LastAccessed time.Time `json:"last_accessed"`
}

// SaveCaseProgressRequest is the payload for saving case progress.
type SaveCaseProgressRequest struct {
	CaseStudyID  string `json:"case_study_id" binding:"required"`
	CurrentIndex int    `json:"current_index" binding:"min=0"`
	IsCompleted  bool   `json:"is_completed"`
}

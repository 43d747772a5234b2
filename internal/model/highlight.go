package model

import "time"

// Highlight is a saved text selection inside a case study vignette.
type Highlight struct {
	ID          string    `json:"id"`
	UserID      int       `json:"-"`
	CaseStudyID string    `json:"case_study_id"`
	StartIndex  int       `json:"start_index"`
	EndIndex    int       `json:"end_index"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateHighlightRequest is the payload for saving a highlight.
type CreateHighlightRequest struct {
	ID          string `json:"id" binding:"required,max=50"`
	CaseStudyID string `json:"case_study_id" binding:"required"`
	StartIndex  int    `json:"start_index" binding:"min=0"`
	EndIndex    int    `json:"end_index" binding:"gtfield=StartIndex"`
	Text        string `json:"text" binding:"required"`
}

// ExpertHighlight is an expert indicator located in the vignette, compared
// against learner highlights by the evidence-link analysis.
type ExpertHighlight struct {
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text"`
	Importance string `json:"importance"`
}

// EvidenceLinkResult is the perceptual-training comparison output.
type EvidenceLinkResult struct {
	ExpertHighlights []ExpertHighlight `json:"expert_highlights"`
	MatchedCount     int               `json:"matched_count"`
	MissedIndicators []ExpertHighlight `json:"missed_indicators"`
	PerceptualTip    string            `json:"perceptual_tip"`
	Score            int               `json:"score"`
}

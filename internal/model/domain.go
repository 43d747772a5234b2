package model

// DomainTag enumerates the six NOTCE competency domains.
type DomainTag string

const (
	DomainOTExpertise DomainTag = "OT_EXP"
	DomainCEJJustice  DomainTag = "CEJ_JUSTICE"
	DomainCommCollab  DomainTag = "COMM_COLLAB"
	DomainProfResp    DomainTag = "PROF_RESP"
	DomainExcellence  DomainTag = "EXCELLENCE"
	DomainEngagement  DomainTag = "ENGAGEMENT"
)

// AllDomains lists every domain in display order.
var AllDomains = []DomainTag{
	DomainOTExpertise,
	DomainCEJJustice,
	DomainCommCollab,
	DomainProfResp,
	DomainExcellence,
	DomainEngagement,
}

// domainNames maps a tag to the full blueprint name used in prompts and UI.
var domainNames = map[DomainTag]string{
	DomainOTExpertise: "Occupational Therapy Expertise (clinical evaluation, intervention, outcomes)",
	DomainCEJJustice:  "Culture, Equity, and Justice (cultural safety, anti-racism, equity)",
	DomainCommCollab:  "Communication and Collaboration (interprofessional, client-centered)",
	DomainProfResp:    "Professional Responsibility (ethics, documentation, supervision)",
	DomainExcellence:  "Excellence in Practice (evidence-based, quality improvement)",
	DomainEngagement:  "Engagement in the Profession (advocacy, leadership, lifelong learning)",
}

// domainWeights is the static blueprint weight table used by the analytics
// read model. Weights sum to 1.00.
var domainWeights = map[DomainTag]float64{
	DomainOTExpertise: 0.40,
	DomainCEJJustice:  0.14,
	DomainCommCollab:  0.12,
	DomainProfResp:    0.12,
	DomainExcellence:  0.12,
	DomainEngagement:  0.10,
}

// Valid reports whether the tag is one of the six known domains.
func (d DomainTag) Valid() bool {
	_, ok := domainWeights[d]
	return ok
}

// FullName returns the long blueprint name, or the raw tag for unknown values.
func (d DomainTag) FullName() string {
	if name, ok := domainNames[d]; ok {
		return name
	}
	return string(d)
}

// Weight returns the static blueprint weight for the domain (0 if unknown).
func (d DomainTag) Weight() float64 {
	return domainWeights[d]
}

// Difficulty enumerates question difficulty tiers.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ConfidenceLevel is the learner's self-reported confidence on an answer.
type ConfidenceLevel string

const (
	ConfidenceLow  ConfidenceLevel = "LOW"
	ConfidenceMed  ConfidenceLevel = "MED"
	ConfidenceHigh ConfidenceLevel = "HIGH"
)

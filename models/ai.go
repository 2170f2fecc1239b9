package models

// RecentReflection is the context the coach sees about previous evenings.
type RecentReflection struct {
	Date           string `json:"date"`
	ReflectionText string `json:"reflectionText"`
	TopTask        string `json:"topTask"`
}

// PlanInput is what the feedback generator needs to coach one reflection.
type PlanInput struct {
	RecentReflections []RecentReflection
	ReflectionText    string
	TopTask           string
	Language          string
}

// PlanOutput is the normalised coaching result.
type PlanOutput struct {
	AIFeedback               string `json:"aiFeedback"`
	FollowUpQuestion         string `json:"followUpQuestion"`
	SuggestedDurationMinutes int    `json:"suggestedDurationMinutes"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}

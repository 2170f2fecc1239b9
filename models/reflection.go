package models

import "time"

// DefaultDurationMinutes is the focus duration a new reflection starts with.
const DefaultDurationMinutes = 60

// Reflection is one evening journal entry. Date is unique.
type Reflection struct {
	ID                       string    `bson:"id" json:"id"`
	Date                     string    `bson:"date" json:"date"`
	ReflectionText           string    `bson:"reflectionText" json:"reflectionText"`
	AIFeedback               string    `bson:"aiFeedback" json:"aiFeedback"`
	TopTask                  string    `bson:"topTask" json:"topTask"`
	EstimatedDurationMinutes int       `bson:"estimatedDurationMinutes" json:"estimatedDurationMinutes"`
	Completed                bool      `bson:"completed" json:"completed"`
	CreatedAt                time.Time `bson:"createdAt" json:"createdAt"`
}

// ScheduledBlock is a confirmed focus block with the id of the calendar event it created.
type ScheduledBlock struct {
	ID              string    `bson:"id" json:"id"`
	ReflectionID    string    `bson:"reflectionId" json:"reflectionId"`
	CalendarEventID string    `bson:"calendarEventId" json:"calendarEventId"`
	StartTime       time.Time `bson:"startTime" json:"startTime"`
	EndTime         time.Time `bson:"endTime" json:"endTime"`
	BlockIndex      int       `bson:"blockIndex" json:"blockIndex"`
	TotalBlocks     int       `bson:"totalBlocks" json:"totalBlocks"`
}

// ReflectionHistoryItem is a reflection with its blocks ordered by index.
type ReflectionHistoryItem struct {
	Reflection
	Blocks []ScheduledBlock `json:"blocks"`
}

type CreateReflectionRequest struct {
	Date           string `json:"date"`
	ReflectionText string `json:"reflectionText"`
}

type CreateReflectionResponse struct {
	Reflection *Reflection `json:"reflection"`
}

type PlanTaskRequest struct {
	TopTask         string `json:"topTask"`
	DurationMinutes *int   `json:"durationMinutes"`
}

type PlanTaskResponse struct {
	Reflection               *Reflection `json:"reflection"`
	SuggestedDurationMinutes int         `json:"suggestedDurationMinutes"`
	AIFeedback               string      `json:"aiFeedback"`
	FollowUpQuestion         string      `json:"followUpQuestion"`
}

type PreviewScheduleRequest struct {
	ScheduleDate          string `json:"scheduleDate"`
	DurationMinutes       int    `json:"durationMinutes"`
	SchedulableHoursStart *int   `json:"schedulableHoursStart"`
	SchedulableHoursEnd   *int   `json:"schedulableHoursEnd"`
}

// PreviewScheduleBlock is a proposed block on the wire; instants are RFC 3339 strings.
type PreviewScheduleBlock struct {
	StartTimeISO string `json:"startTimeIso"`
	EndTimeISO   string `json:"endTimeIso"`
	BlockIndex   int    `json:"blockIndex"`
	TotalBlocks  int    `json:"totalBlocks"`
}

type PreviewScheduleResponse struct {
	Provider  string                 `json:"provider"`
	TitleBase string                 `json:"titleBase"`
	Blocks    []PreviewScheduleBlock `json:"blocks"`
}

type ConfirmScheduleRequest struct {
	Blocks []PreviewScheduleBlock `json:"blocks"`
}

type ConfirmScheduleResponse struct {
	Reflection  *Reflection      `json:"reflection"`
	SavedBlocks []ScheduledBlock `json:"savedBlocks"`
}

type ToggleCompletedRequest struct {
	Completed *bool `json:"completed"`
}

type StreakResponse struct {
	Streak     int    `json:"streak"`
	LatestDate string `json:"latestDate,omitempty"`
}

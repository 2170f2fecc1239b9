package models

// ReminderPayload is the body of a "reminder:send" task.
type ReminderPayload struct {
	ReminderID string `json:"reminderId"`
	FireDate   string `json:"fireDate"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

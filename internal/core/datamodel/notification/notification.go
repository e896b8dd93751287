package notification

// Notification is the document pushed to notifications/{userId}/{autoId}.
type Notification struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	Priority     string `json:"priority"`
	CreatedAt    int64  `json:"createdAt"`
	Read         bool   `json:"read"`
	HasIndicator bool   `json:"hasIndicator"`
}

package transport

// TaskRequest carries the user-editable task fields. The same shape is used
// for creation and for full edits from the details form.
type TaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Links       []string `json:"links"`
	DueDate     string   `json:"due_date"`
}

type ActivityRequest struct {
	Text string `json:"text"`
}

type SubTaskRequest struct {
	Text string `json:"text"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
}

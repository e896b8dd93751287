package user

// User is the document stored at users/{uid}.
type User struct {
	Role          string `json:"role"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
}

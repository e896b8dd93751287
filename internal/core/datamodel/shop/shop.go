package shop

// Shop is the document stored at shops/{id}. Operator fields are copied from the
// operator's profile when the shop is written.
type Shop struct {
	Name            string `json:"name"`
	Code            string `json:"code"`
	Address         string `json:"address,omitempty"`
	City            string `json:"city,omitempty"`
	District        string `json:"district,omitempty"`
	ContactNumber   string `json:"contactNumber,omitempty"`
	OperatorID      string `json:"operatorId,omitempty"`
	OperatorName    string `json:"operatorName,omitempty"`
	OperatorEmail   string `json:"operatorEmail,omitempty"`
	OperatorContact string `json:"operatorContact,omitempty"`
	Status          string `json:"status"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       int64  `json:"createdAt"`
	UpdatedAt       int64  `json:"updatedAt"`
}

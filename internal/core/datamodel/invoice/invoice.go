package invoice

// LineItem is one stored invoice row. Unset numbers are omitted.
type LineItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Qty         *float64 `json:"qty,omitempty"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
}

// Invoice is the document stored at invoices/{id}. Timestamps are Unix milliseconds.
type Invoice struct {
	ID          string     `json:"id"`
	CompanyName string     `json:"companyName"`
	Description string     `json:"description,omitempty"`
	Date        int64      `json:"date"`
	DueDate     *int64     `json:"dueDate"`
	Status      string     `json:"status"`
	LineItems   []LineItem `json:"lineItems"`
	Amount      float64    `json:"amount"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	UpdatedAt   int64      `json:"updatedAt"`
}

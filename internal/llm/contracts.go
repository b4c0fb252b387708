package llm

import "context"

// LineItem is one requested product or service entry.
type LineItem struct {
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit,omitempty"`
	Specification string  `json:"specification,omitempty"`
	Category      string  `json:"category,omitempty"`
	// UnitCost stays 0.0 when no reliable catalog price exists; it is never
	// guessed by the model or by this package.
	UnitCost float64 `json:"unit_cost"`
}

// Confidence carries per-dimension extraction confidence in [0,1].
type Confidence struct {
	Overall  float32 `json:"overall"`
	Products float32 `json:"products"`
	Dates    float32 `json:"dates"`
	Contact  float32 `json:"contact"`
}

// RFQFields is the normalized structured record we want from the LLM.
type RFQFields struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements,omitempty"`

	SubmissionDeadlineDate string `json:"submission_deadline_date,omitempty"` // YYYY-MM-DD
	SubmissionDeadlineTime string `json:"submission_deadline_time,omitempty"` // HH:MM
	DecisionDate           string `json:"decision_date,omitempty"`            // YYYY-MM-DD
	DeliveryDate           string `json:"delivery_date,omitempty"`            // YYYY-MM-DD
	DeliveryTime           string `json:"delivery_time,omitempty"`            // HH:MM

	BudgetMin    float64 `json:"budget_min,omitempty"`
	BudgetMax    float64 `json:"budget_max,omitempty"`
	CurrencyCode string  `json:"currency_code,omitempty"` // ISO 4217

	EventLocation   string `json:"event_location,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`

	// RequestedProducts is never nil on a validated result; an empty list is
	// a valid answer, not an error.
	RequestedProducts []LineItem `json:"requested_products"`

	EvaluationCriteria []string `json:"evaluation_criteria,omitempty"`

	RequesterName  string `json:"requester_name,omitempty"`
	RequesterEmail string `json:"requester_email,omitempty"`
	RequesterPhone string `json:"requester_phone,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	Confidence Confidence `json:"confidence"`
}

// EmptyFields returns the well-formed empty-shaped record used when an
// input carries no extractable text.
func EmptyFields() RFQFields {
	return RFQFields{RequestedProducts: []LineItem{}}
}

// ExtractRequest is one structured-extraction call.
type ExtractRequest struct {
	Text string

	// DocumentCount tells the model how many source documents were combined
	// into Text so it reconciles duplicate items instead of double-counting.
	DocumentCount int

	AllowedCategories []string
	DefaultCurrency   string
}

// FieldExtractor is the interface the orchestrator depends on. The second
// return is the raw JSON payload, kept for diagnostics and persistence.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (RFQFields, []byte, error)
}

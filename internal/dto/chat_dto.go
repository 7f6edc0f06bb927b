package dto

type QuestionRequest struct {
	Query           string `json:"query"`
	SessionID       string `json:"session_id"`
	UserID          string `json:"user_id"`
	ResourceID      string `json:"resource_id"`
	DatabaseURI     string `json:"database_uri"`
	VectorStorePath string `json:"vector_store_path"`
}

type AnswerResponse struct {
	Answer    string            `json:"answer"`
	SessionID string            `json:"session_id"`
	Sources   []string          `json:"sources,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	ActiveTenants int    `json:"active_tenants"`
}

type ContactInfoResponse struct {
	Emails            []string `json:"emails"`
	Phones            []string `json:"phones"`
	Addresses         []string `json:"addresses"`
	FormattedResponse string   `json:"formatted_response"`
}

type LeadResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Question  string `json:"question"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type LeadsResponse struct {
	Leads []LeadResponse `json:"leads"`
	Count int            `json:"count"`
}

type LeadsCountResponse struct {
	Count int64 `json:"count"`
}

// LeadCapturedMessage is the internal bus payload for a completed lead.
type LeadCapturedMessage struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Question  string `json:"question"`
}

package models

// QueryRequest for POST /api/v1/query
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	Timeout   int    `json:"timeout,omitempty"` // seconds
}

func (r *QueryRequest) SetDefaults() {
	if r.Timeout == 0 {
		r.Timeout = 120
	}
	if r.Timeout < 10 {
		r.Timeout = 10
	}
	if r.Timeout > 600 {
		r.Timeout = 600
	}
}

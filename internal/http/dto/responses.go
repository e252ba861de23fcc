package dto

type ErrorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type PageResponse struct {
	OK     bool  `json:"ok"`
	Data   any   `json:"data"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type CARResponse struct {
	OK              bool   `json:"ok"`
	Data            any    `json:"data"`
	EffectiveStatus string `json:"effective_status"`
	CompletionRate  int    `json:"completion_rate"`
}

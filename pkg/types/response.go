package types

// SuccessEnvelope wraps every successful API payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Acknowledgement is returned to callers that only need a receipt, such as the
// payment processor after a webhook delivery.
type Acknowledgement struct {
	Received bool   `json:"received"`
	EventID  string `json:"event_id,omitempty"`
}

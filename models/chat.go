package models

// EndpointRequest is the body of the stateless POST /endpoint call.
type EndpointRequest struct {
	Message string `json:"message"`
}

type EndpointResponse struct {
	Reply string `json:"reply"`
}

// ChatRequest is one user turn on an existing session.
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// CallToAction is the booking prompt shown on handoff and as the one-time
// consultant offer.
type CallToAction struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ChatResponse is the outcome of one chat turn.
type ChatResponse struct {
	SessionID       string        `json:"session_id"`
	Reply           string        `json:"reply"`
	Intent          string        `json:"intent"`
	Handoff         bool          `json:"handoff"`
	CallToAction    *CallToAction `json:"call_to_action,omitempty"`
	ConsultantOffer *CallToAction `json:"consultant_offer,omitempty"`
	MessageNumber   int           `json:"message_number"`
}

package models

// OutboundMessageRequest represents requests to send a message manually via the API.
// An empty To addresses the configured operator.
type OutboundMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message" binding:"required"`
}

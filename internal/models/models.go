// Package models defines the records shared across MindVibe packages: the
// JSON response envelope, chat receipts and replies, flow state, user
// profiles, mood entries and subscription payloads.
package models

// MessageStatus is the delivery state of an outgoing chat message.
type MessageStatus string

// Delivery states, in the order a channel reports them.
const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// Receipt records a delivery event for an outgoing chat message.
type Receipt struct {
	To     string        `json:"to"`
	Status MessageStatus `json:"status"`
	Time   int64         `json:"time"`
}

// Response is an inbound chat message.
type Response struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}

// APIStatus is the status field of the response envelope.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse is the {status, message, result} envelope every HTTP handler writes.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Result  any    `json:"result,omitempty"`
}

func newResponse(status APIStatus, message string, result any) APIResponse {
	return APIResponse{Status: string(status), Message: message, Result: result}
}

// Success wraps result in an ok envelope.
func Success(result any) APIResponse {
	return newResponse(APIStatusOK, "", result)
}

// SuccessWithMessage wraps result in an ok envelope carrying a human-readable message.
func SuccessWithMessage(message string, result any) APIResponse {
	return newResponse(APIStatusOK, message, result)
}

// Error builds an error envelope. Result is always omitted.
func Error(message string) APIResponse {
	return newResponse(APIStatusError, message, nil)
}

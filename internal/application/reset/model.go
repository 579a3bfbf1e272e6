package reset

import (
	"context"
	"encoding/json"
)

// Request is the inbound payload. Both fields are required; the email's format is not checked.
type Request struct {
	Email      string `json:"email" validate:"required"`
	ResetToken string `json:"resetToken" validate:"required"`
}

// Response is what every transport renders back to its caller.
type Response struct {
	StatusCode int
	Body       ResponseBody
}

type ResponseBody struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
	Details   string `json:"details"`
}

type sentBody struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

type failedBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// MarshalJSON writes the wire shape for each outcome: success always carries
// messageId, delivery failure always carries details, and the 400 body is error only.
func (b ResponseBody) MarshalJSON() ([]byte, error) {
	switch {
	case b.Error == "":
		return json.Marshal(sentBody{Message: b.Message, MessageID: b.MessageID})
	case b.Error == MsgMissingFields:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{b.Error})
	default:
		return json.Marshal(failedBody{Error: b.Error, Details: b.Details})
	}
}

const (
	MsgSent          = "Password reset email sent successfully"
	MsgMissingFields = "Missing email or reset token"
	MsgSendFailed    = "Failed to send password reset email"
)

// Message is a fully rendered email ready for a Sender.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendResult carries the provider's delivery identifier.
type SendResult struct {
	MessageID string
}

// Sender is the mail-delivery capability. Implementations make a single attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
	Name() string
}

// MissingFieldsResponse is the 400 body, shared with transports that reject
// payloads before they reach the handler.
func MissingFieldsResponse() Response {
	return Response{StatusCode: 400, Body: ResponseBody{Error: MsgMissingFields}}
}

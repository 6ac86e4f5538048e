package relay

import (
	"context"

	"github.com/Vovarama1992/miniapp-relay/internal/telegram"
)

const (
	DefaultUserName = "Unknown"
	DefaultUserID   = "Unknown"
	DefaultMessage  = "No message"
)

// Request is a message submitted from the website. Every field is optional.
type Request struct {
	UserName string
	UserID   string
	Message  string
}

// WithDefaults fills blank fields with placeholders.
func (r Request) WithDefaults() Request {
	if r.UserName == "" {
		r.UserName = DefaultUserName
	}
	if r.UserID == "" {
		r.UserID = DefaultUserID
	}
	if r.Message == "" {
		r.Message = DefaultMessage
	}
	return r
}

type Sender interface {
	Send(ctx context.Context, msg telegram.Outgoing) error
}

type Service interface {
	Notify(ctx context.Context, req Request) error
}

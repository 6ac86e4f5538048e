package telegram

import "context"

type EventKind string

const (
	KindCommand  EventKind = "command"
	KindCallback EventKind = "callback"
	KindMessage  EventKind = "message"
	KindOther    EventKind = "other"
)

// Event is one update received from the Bot API, reduced to what the bridge
// acts on. UpdateID is always set so the poller can advance its offset.
type Event struct {
	UpdateID int
	Kind     EventKind

	Command string
	Args    string
	Text    string

	SenderID    int64
	DisplayName string
	Username    string

	ChatID    int64
	MessageID int

	CallbackID   string
	CallbackData string
}

// PhotoSize is one resolution of a profile photo.
type PhotoSize struct {
	FileID   string
	Width    int
	Height   int
	FileSize int
}

func (p PhotoSize) Area() int {
	return p.Width * p.Height
}

// Button is an inline keyboard button. Exactly one of URL or Data is set.
type Button struct {
	Text string
	URL  string
	Data string
}

// Outgoing is a message or photo to deliver. To is a numeric chat id or a
// channel username such as "@relay_admins".
type Outgoing struct {
	To          string
	Text        string
	ParseMode   string
	ReplyTo     int
	PhotoFileID string
	Buttons     [][]Button
}

// Backoff is what Dial waits on between failed connection attempts.
type Backoff interface {
	Wait(ctx context.Context) error
}

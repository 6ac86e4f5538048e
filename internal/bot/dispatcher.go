package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/Vovarama1992/miniapp-relay/internal/avatar"
	"github.com/Vovarama1992/miniapp-relay/internal/telegram"
)

const (
	CommandStart        = "start"
	CallbackRefresh     = "refresh_profile"
	openMiniAppLabel    = "🚀 Open Mini App"
	refreshLabel        = "🔄 Refresh"
	refreshPromptText   = "Please send /start again to refresh your profile."
	welcomeFooterText   = "Click the button below to open the Mini App."
	welcomeNoButtonText = "The Mini App link is not configured yet."
)

type Sender interface {
	Send(ctx context.Context, msg telegram.Outgoing) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// PhotoFinder is optional; without it the welcome is always plain text.
type PhotoFinder interface {
	Select(ctx context.Context, userID int64, tier avatar.Tier) (telegram.PhotoSize, bool, error)
}

type Config struct {
	WebAppURL string
	// WithPhoto sends the user's avatar as the welcome when they have one.
	WithPhoto bool
}

type Dispatcher struct {
	sender Sender
	photos PhotoFinder
	cfg    Config
}

func NewDispatcher(sender Sender, photos PhotoFinder, cfg Config) *Dispatcher {
	return &Dispatcher{sender: sender, photos: photos, cfg: cfg}
}

// Dispatch handles one event. Failures are logged here and never returned:
// a bad reply must not stop the poller.
func (d *Dispatcher) Dispatch(ctx context.Context, ev telegram.Event) {
	switch {
	case ev.Kind == telegram.KindCommand && ev.Command == CommandStart:
		d.start(ctx, ev)
	case ev.Kind == telegram.KindCallback && ev.CallbackData == CallbackRefresh:
		d.refresh(ctx, ev)
	}
}

func (d *Dispatcher) start(ctx context.Context, ev telegram.Event) {
	name := ev.DisplayName
	if name == "" {
		name = "there"
	}
	log.Printf("[bot] /start from %s (id=%d)", name, ev.SenderID)

	msg := telegram.Outgoing{
		To:        strconv.FormatInt(ev.ChatID, 10),
		Text:      welcomeText(name, ev.SenderID, d.cfg.WebAppURL != ""),
		ParseMode: telegram.ModeMarkdown,
		ReplyTo:   ev.MessageID,
		Buttons:   d.welcomeButtons(),
	}

	if d.cfg.WithPhoto && d.photos != nil {
		size, ok, err := d.photos.Select(ctx, ev.SenderID, avatar.TierLargest)
		switch {
		case err != nil:
			log.Printf("[bot] avatar lookup for %d failed, sending text welcome: %v", ev.SenderID, err)
		case ok:
			msg.PhotoFileID = size.FileID
		}
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		log.Printf("[bot] welcome to chat %d failed: %v", ev.ChatID, err)
	}
}

func (d *Dispatcher) refresh(ctx context.Context, ev telegram.Event) {
	if err := d.sender.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
		log.Printf("[bot] answer callback %s failed: %v", ev.CallbackID, err)
	}

	// the old welcome goes away so /start does not stack a second one
	if ev.MessageID != 0 {
		if err := d.sender.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			log.Printf("[bot] delete welcome %d in chat %d failed: %v", ev.MessageID, ev.ChatID, err)
		}
	}

	err := d.sender.Send(ctx, telegram.Outgoing{
		To:   strconv.FormatInt(ev.ChatID, 10),
		Text: refreshPromptText,
	})
	if err != nil {
		log.Printf("[bot] refresh prompt to chat %d failed: %v", ev.ChatID, err)
	}
}

func (d *Dispatcher) welcomeButtons() [][]telegram.Button {
	var rows [][]telegram.Button
	if d.cfg.WebAppURL != "" {
		rows = append(rows, []telegram.Button{{Text: openMiniAppLabel, URL: d.cfg.WebAppURL}})
	}
	rows = append(rows, []telegram.Button{{Text: refreshLabel, Data: CallbackRefresh}})
	return rows
}

func welcomeText(name string, userID int64, hasButton bool) string {
	footer := welcomeFooterText
	if !hasButton {
		footer = welcomeNoButtonText
	}
	return fmt.Sprintf("👋 Hello, %s!\n🆔 ID: `%d`\n\n%s", telegram.EscapeMarkdown(name), userID, footer)
}

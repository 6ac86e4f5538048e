package relay

import (
	"context"
	"log"
	"strings"

	"github.com/Vovarama1992/miniapp-relay/internal/telegram"
)

type service struct {
	sender  Sender
	adminID string
}

func NewService(sender Sender, adminID string) Service {
	return &service{
		sender:  sender,
		adminID: adminID,
	}
}

// Notify sends exactly one message to the admin chat. No retry.
func (s *service) Notify(ctx context.Context, req Request) error {
	req = req.WithDefaults()

	log.Printf("[relay] message from %q (id=%s), %d chars", req.UserName, req.UserID, len(req.Message))

	return s.sender.Send(ctx, telegram.Outgoing{
		To:        s.adminID,
		Text:      FormatAdminText(req),
		ParseMode: telegram.ModeMarkdown,
	})
}

func FormatAdminText(req Request) string {
	return "🔔 *New Website Message*\n\n" +
		"👤 *User:* " + telegram.EscapeMarkdown(req.UserName) + " (`" + strings.ReplaceAll(req.UserID, "`", "'") + "`)\n" +
		"✉️ *Message:*\n" + telegram.EscapeMarkdown(req.Message)
}

package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	ModeMarkdown = tgbotapi.ModeMarkdown

	maxDownloadBytes = 5 << 20
)

type Config struct {
	Token       string
	PollTimeout time.Duration
	HTTPTimeout time.Duration

	// Overridable for tests; default to the public Bot API.
	APIEndpoint  string
	FileEndpoint string
	HTTPClient   *http.Client
}

// Client is the single Bot API handle shared by the poller and the gateway.
// It holds no mutable state after construction.
type Client struct {
	api          *tgbotapi.BotAPI
	http         *http.Client
	token        string
	fileEndpoint string
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: empty bot token")
	}

	apiEndpoint := cfg.APIEndpoint
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	fileEndpoint := cfg.FileEndpoint
	if fileEndpoint == "" {
		fileEndpoint = tgbotapi.FileEndpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// the long poll holds the request open for PollTimeout
		httpClient = &http.Client{Timeout: cfg.PollTimeout + cfg.HTTPTimeout}
	}

	c := &Client{
		http:         httpClient,
		token:        cfg.Token,
		fileEndpoint: fileEndpoint,
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, apiEndpoint, httpClient)
	if err != nil {
		return nil, c.wrap("getMe", err)
	}
	c.api = api

	log.Printf("[telegram] connected as @%s (id=%d)", api.Self.UserName, api.Self.ID)
	return c, nil
}

// Dial keeps calling New until it succeeds, ctx is cancelled, or the
// platform rejects the token.
func Dial(ctx context.Context, cfg Config, backoff Backoff) (*Client, error) {
	for attempt := 1; ; attempt++ {
		c, err := New(cfg)
		if err == nil {
			return c, nil
		}
		if backoff == nil || isUnauthorized(err) {
			return nil, err
		}

		log.Printf("[telegram] connect failed (attempt %d): %v", attempt, err)
		if werr := backoff.Wait(ctx); werr != nil {
			return nil, err
		}
	}
}

func (c *Client) DeleteWebhook(_ context.Context) error {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return c.wrap("deleteWebhook", err)
	}
	return nil
}

func (c *Client) Updates(_ context.Context, offset int, timeout time.Duration) ([]Event, error) {
	u := tgbotapi.NewUpdate(offset)
	u.Timeout = int(timeout / time.Second)

	updates, err := c.api.GetUpdates(u)
	if err != nil {
		return nil, c.wrap("getUpdates", err)
	}

	events := make([]Event, 0, len(updates))
	for _, upd := range updates {
		events = append(events, toEvent(upd))
	}
	return events, nil
}

func (c *Client) Send(_ context.Context, msg Outgoing) error {
	chattable, err := build(msg)
	if err != nil {
		return err
	}

	if _, err := c.api.Send(chattable); err != nil {
		if msg.PhotoFileID != "" {
			return c.wrap("sendPhoto", err)
		}
		return c.wrap("sendMessage", err)
	}
	return nil
}

func (c *Client) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return c.wrap("answerCallbackQuery", err)
	}
	return nil
}

func (c *Client) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return c.wrap("deleteMessage", err)
	}
	return nil
}

// ProfilePhotos returns up to limit photos, newest first, each as the list
// of sizes the platform keeps for it.
func (c *Client) ProfilePhotos(_ context.Context, userID int64, limit int) ([][]PhotoSize, error) {
	res, err := c.api.GetUserProfilePhotos(tgbotapi.UserProfilePhotosConfig{
		UserID: userID,
		Limit:  limit,
	})
	if err != nil {
		return nil, c.wrap("getUserProfilePhotos", err)
	}

	out := make([][]PhotoSize, 0, len(res.Photos))
	for _, sizes := range res.Photos {
		photo := make([]PhotoSize, 0, len(sizes))
		for _, s := range sizes {
			photo = append(photo, PhotoSize{
				FileID:   s.FileID,
				Width:    s.Width,
				Height:   s.Height,
				FileSize: s.FileSize,
			})
		}
		out = append(out, photo)
	}
	return out, nil
}

func (c *Client) FilePath(_ context.Context, fileID string) (string, error) {
	f, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", c.wrap("getFile", err)
	}
	if f.FilePath == "" {
		return "", errors.New("telegram getFile: missing file_path")
	}
	return f.FilePath, nil
}

// FileURL embeds the bot token; never hand it to a browser.
func (c *Client) FileURL(filePath string) string {
	return fmt.Sprintf(c.fileEndpoint, c.token, filePath)
}

func (c *Client) Download(ctx context.Context, filePath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FileURL(filePath), nil)
	if err != nil {
		return nil, c.wrap("download", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.wrap("download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("telegram download: " + resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, c.wrap("download", err)
	}
	if len(body) > maxDownloadBytes {
		return nil, fmt.Errorf("telegram download: file exceeds %d bytes", maxDownloadBytes)
	}
	return body, nil
}

func EscapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func build(msg Outgoing) (tgbotapi.Chattable, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return nil, errors.New("telegram: empty recipient")
	}
	chatID, idErr := strconv.ParseInt(to, 10, 64)

	var markup any
	if len(msg.Buttons) > 0 {
		markup = keyboard(msg.Buttons)
	}

	if msg.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(msg.PhotoFileID))
		if idErr != nil {
			photo.ChannelUsername = to
		}
		photo.Caption = msg.Text
		photo.ParseMode = msg.ParseMode
		photo.ReplyToMessageID = msg.ReplyTo
		photo.ReplyMarkup = markup
		return photo, nil
	}

	m := tgbotapi.NewMessage(chatID, msg.Text)
	if idErr != nil {
		m.ChannelUsername = to
	}
	m.ParseMode = msg.ParseMode
	m.ReplyToMessageID = msg.ReplyTo
	m.ReplyMarkup = markup
	return m, nil
}

func keyboard(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

func toEvent(u tgbotapi.Update) Event {
	ev := Event{UpdateID: u.UpdateID, Kind: KindOther}

	switch {
	case u.Message != nil:
		m := u.Message
		ev.MessageID = m.MessageID
		if m.Chat != nil {
			ev.ChatID = m.Chat.ID
		}
		fillSender(&ev, m.From)
		if m.IsCommand() {
			ev.Kind = KindCommand
			ev.Command = m.Command()
			ev.Args = m.CommandArguments()
		} else {
			ev.Kind = KindMessage
			ev.Text = m.Text
		}

	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		ev.Kind = KindCallback
		ev.CallbackID = cq.ID
		ev.CallbackData = cq.Data
		fillSender(&ev, cq.From)
		if cq.Message != nil {
			ev.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				ev.ChatID = cq.Message.Chat.ID
			}
		}
	}

	return ev
}

func fillSender(ev *Event, u *tgbotapi.User) {
	if u == nil {
		return
	}
	ev.SenderID = u.ID
	ev.Username = u.UserName
	ev.DisplayName = strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func isUnauthorized(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}

// wrap strips the token out of transport errors, which quote the request URL.
func (c *Client) wrap(op string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = &redactedError{msg: uerr.Op + " " + redactToken(uerr.URL, c.token) + ": " + uerr.Err.Error(), err: uerr.Err}
	}
	return fmt.Errorf("telegram %s: %w", op, err)
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}

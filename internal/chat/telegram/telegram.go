// Package telegram adapts the Telegram Bot API to chat.Transport.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/MrJamesThe3rd/ledgerbot/internal/chat"
)

const DefaultBaseURL = "https://api.telegram.org"

type Option func(*options)

type options struct {
	baseURL     string
	pollTimeout time.Duration
	logger      *slog.Logger
}

func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithPollTimeout(d time.Duration) Option {
	return func(o *options) { o.pollTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

type Client struct {
	api     *bot.Bot
	logger  *slog.Logger
	handler chat.Handler
}

// New connects to the Bot API and checks the token with getMe.
func New(token string, opts ...Option) (*Client, error) {
	o := options{
		baseURL:     DefaultBaseURL,
		pollTimeout: 30 * time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{logger: o.logger.With("component", "telegram")}

	api, err := bot.New(token,
		bot.WithServerURL(o.baseURL),
		// Long polls hold the request open for pollTimeout.
		bot.WithHTTPClient(o.pollTimeout, &http.Client{Timeout: o.pollTimeout + 10*time.Second}),
		bot.WithAllowedUpdates(bot.AllowedUpdates{"message", "callback_query"}),
		bot.WithNotAsyncHandlers(),
		bot.WithDefaultHandler(c.dispatch),
		bot.WithErrorsHandler(func(err error) {
			c.logger.Error("failed to fetch updates", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	c.api = api

	return c, nil
}

func markup(kb chat.Keyboard) models.ReplyMarkup {
	if len(kb) == 0 {
		return nil
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(kb))

	for _, row := range kb {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{Text: b.Label, CallbackData: b.Data})
		}

		rows = append(rows, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (c *Client) Send(ctx context.Context, chatID string, msg chat.Message) error {
	_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        msg.Text,
		ReplyMarkup: markup(msg.Keyboard),
	})
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	return nil
}

func (c *Client) SendImage(ctx context.Context, chatID, imageID, caption string) error {
	_, err := c.api.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileString{Data: imageID},
		Caption: caption,
	})
	if err != nil {
		return fmt.Errorf("sending photo: %w", err)
	}

	return nil
}

// FileURL returns a download link for fileID. The link embeds the bot token
// and stays valid for about an hour, so it must never be stored.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	f, err := c.api.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("getting file: %w", err)
	}

	if f.FilePath == "" {
		return "", errors.New("getFile returned no file path")
	}

	return c.api.FileDownloadLink(f), nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if _, err := c.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		return fmt.Errorf("answering callback: %w", err)
	}

	return nil
}

// Poll long-polls for updates and hands every event to h, one at a time,
// until ctx is cancelled.
func (c *Client) Poll(ctx context.Context, h chat.Handler) error {
	c.handler = h
	c.api.Start(ctx)

	return nil
}

func (c *Client) dispatch(ctx context.Context, _ *bot.Bot, u *models.Update) {
	ev, ok := toEvent(u)
	if !ok || c.handler == nil {
		return
	}

	c.handler.Handle(ctx, ev)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// toEvent converts an update. ok is false for updates the bot ignores.
func toEvent(u *models.Update) (chat.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery

		ev := chat.Event{
			SenderID:   formatID(q.From.ID),
			ChatID:     formatID(q.From.ID),
			Handle:     q.From.Username,
			Callback:   q.Data,
			CallbackID: q.ID,
		}

		switch {
		case q.Message.Message != nil:
			ev.ChatID = formatID(q.Message.Message.Chat.ID)
		case q.Message.InaccessibleMessage != nil:
			ev.ChatID = formatID(q.Message.InaccessibleMessage.Chat.ID)
		}

		return ev, true

	case u.Message != nil && u.Message.From != nil:
		m := u.Message

		ev := chat.Event{
			SenderID: formatID(m.From.ID),
			ChatID:   formatID(m.Chat.ID),
			Handle:   m.From.Username,
			Text:     m.Text,
		}

		if ev.Text == "" {
			ev.Text = m.Caption
		}

		if id := largestPhoto(m.Photo); id != "" {
			ev.ImageID = id
		} else if m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/") {
			ev.ImageID = m.Document.FileID
		}

		return ev, true
	}

	return chat.Event{}, false
}

func largestPhoto(sizes []models.PhotoSize) string {
	var (
		best string
		area int
	)

	for _, p := range sizes {
		if a := p.Width * p.Height; best == "" || a > area {
			best, area = p.FileID, a
		}
	}

	return best
}

// Package chat defines the messaging surface the bot talks through.
package chat

import "context"

// Event is one inbound message or button press.
type Event struct {
	SenderID   string
	ChatID     string
	Handle     string
	Text       string
	ImageID    string
	Callback   string
	CallbackID string
}

func (e Event) HasImage() bool {
	return e.ImageID != ""
}

func (e Event) IsCallback() bool {
	return e.Callback != ""
}

type Button struct {
	Label string
	Data  string
}

// Keyboard is a grid of inline buttons, one slice per row.
type Keyboard [][]Button

type Message struct {
	Text     string
	Keyboard Keyboard
}

type Transport interface {
	Send(ctx context.Context, chatID string, msg Message) error
	SendImage(ctx context.Context, chatID, imageID, caption string) error
	FileURL(ctx context.Context, fileID string) (string, error)
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Handler consumes inbound events.
type Handler interface {
	Handle(ctx context.Context, ev Event)
}

type HandlerFunc func(ctx context.Context, ev Event)

func (f HandlerFunc) Handle(ctx context.Context, ev Event) {
	f(ctx, ev)
}

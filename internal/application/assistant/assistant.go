// Package assistant assembles the chat context from the user's selections
// and runs conversation turns against a language-model completer.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

// Completer runs one completion.  The upstream Responses client and the
// proxy SDK both satisfy it.
type Completer interface {
	Complete(ctx context.Context, req *chat.Request) (*chat.Response, error)
}

// EmptyContextMessage is recorded when the user asks without any selection.
const EmptyContextMessage = "Add at least one patent or BREF section to the chat context before asking a question."

// ErrBusy is returned while another turn is in flight.
var ErrBusy = apperrors.New(apperrors.CodeChatBusy, "a chat request is already in progress")

// Options tune the outgoing request.
type Options struct {
	Model           string
	Temperature     *float64
	TopP            *float64
	MaxOutputTokens *int
}

// Assistant owns a context set and a transcript and serializes turns.
type Assistant struct {
	completer  Completer
	context    *ContextSet
	transcript *Transcript
	opts       Options
	logger     logging.Logger

	mu   sync.Mutex
	busy bool
}

// New builds an Assistant.  A nil completer makes every turn fail with
// CodeLLMNotConfigured.
func New(completer Completer, opts Options, logger logging.Logger) *Assistant {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Assistant{
		completer:  completer,
		context:    NewContextSet(),
		transcript: NewTranscript(),
		opts:       opts,
		logger:     logger.Named("assistant"),
	}
}

// Context returns the chat context set.
func (a *Assistant) Context() *ContextSet { return a.context }

// Transcript returns the message log.
func (a *Assistant) Transcript() *Transcript { return a.transcript }

// Busy reports whether a turn is in flight.
func (a *Assistant) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// SendMessage runs one turn.
//
// Without any patent or section in the context the guidance message is
// recorded and returned with a nil error; the completer is not called.  On
// success the assistant reply is returned.  On failure a system message
// describing it is recorded and the error returned.  If the context changed
// while the call was in flight the reply is discarded with
// CodeStaleResponse.
func (a *Assistant) SendMessage(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, apperrors.New(apperrors.ErrCodeEmptyMessage, "message is empty")
	}

	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return Message{}, ErrBusy
	}
	if a.context.IsEmpty() {
		a.mu.Unlock()
		return a.transcript.Append(chat.RoleSystem, EmptyContextMessage), nil
	}
	a.busy = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	snap := a.context.Snapshot()
	history := a.transcript.Turns()
	a.transcript.Append(chat.RoleUser, text)

	if a.completer == nil {
		err := apperrors.New(apperrors.CodeLLMNotConfigured, "no language model is configured")
		a.transcript.Append(chat.RoleSystem, "Error: "+err.Message)
		return Message{}, err
	}

	req := a.buildRequest(BuildPrompt(snap.Patents, snap.Sections, snap.Pollutant, snap.SDGs), history, text)
	a.logger.Debug("sending chat turn",
		logging.Int("patents", len(snap.Patents)),
		logging.Int("sections", len(snap.Sections)),
		logging.Int("history", len(history)))

	resp, err := a.completer.Complete(ctx, req)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = apperrors.New(apperrors.ErrCodeLLMEmptyOutput, "the model returned no text")
	}
	if err != nil {
		a.logger.Error("chat turn failed", logging.Err(err))
		a.transcript.Append(chat.RoleSystem, "Error: "+errorText(err))
		return Message{}, err
	}

	if v := a.context.Version(); v != snap.Version {
		a.logger.Warn("discarding reply for outdated context",
			logging.Uint64("sent_version", snap.Version),
			logging.Uint64("current_version", v))
		return Message{}, apperrors.New(apperrors.CodeStaleResponse, "chat context changed while waiting for the reply")
	}
	return a.transcript.Append(chat.RoleAssistant, resp.Text), nil
}

func (a *Assistant) buildRequest(prompt string, history []Message, text string) *chat.Request {
	input := make([]chat.InputMessage, 0, len(history)+2)
	input = append(input, chat.NewMessage(chat.RoleSystem, prompt))
	for _, m := range history {
		input = append(input, chat.NewMessage(m.Role, m.Content))
	}
	input = append(input, chat.NewMessage(chat.RoleUser, text))
	return &chat.Request{
		Model:           a.opts.Model,
		Input:           input,
		Temperature:     a.opts.Temperature,
		TopP:            a.opts.TopP,
		MaxOutputTokens: a.opts.MaxOutputTokens,
		Store:           chat.Bool(false),
	}
}

func errorText(err error) string {
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

//Personal.AI order the ending

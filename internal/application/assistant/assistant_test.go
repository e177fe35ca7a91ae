package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/bref-insight/internal/domain/patent"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*chat.Response)
	return resp, args.Error(1)
}

func newAssistant(c Completer) *Assistant {
	return New(c, Options{Model: "gpt-4o-mini", Temperature: chat.Float64(0.3)}, nil)
}

func TestSendMessage_EmptyContextGuides(t *testing.T) {
	c := new(mockCompleter)
	a := newAssistant(c)

	msg, err := a.SendMessage(context.Background(), "What about mercury?")
	require.NoError(t, err)
	assert.Equal(t, chat.RoleSystem, msg.Role)
	assert.Equal(t, EmptyContextMessage, msg.Content)
	assert.Equal(t, 1, a.Transcript().Len())
	c.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestSendMessage_EmptyText(t *testing.T) {
	a := newAssistant(new(mockCompleter))
	_, err := a.SendMessage(context.Background(), "   ")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmptyMessage))
	assert.Zero(t, a.Transcript().Len())
}

func TestSendMessage_Success(t *testing.T) {
	c := new(mockCompleter)
	a := newAssistant(c)
	a.Context().AddPatent(patent.Patent{ID: "EP1", Title: "Scrubber", Score: 0.9})

	c.On("Complete", mock.Anything, mock.MatchedBy(func(req *chat.Request) bool {
		return len(req.Input) == 2 &&
			req.Input[0].Role == chat.RoleSystem &&
			strings.Contains(req.Input[0].Text(), "Scrubber (ID: EP1)") &&
			req.Input[1].Text() == "first"
	})).Return(&chat.Response{Text: "answer one", ID: "r1"}, nil).Once()

	msg, err := a.SendMessage(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, chat.RoleAssistant, msg.Role)
	assert.Equal(t, "answer one", msg.Content)
	assert.NotEmpty(t, msg.ID)

	c.On("Complete", mock.Anything, mock.MatchedBy(func(req *chat.Request) bool {
		return len(req.Input) == 4 &&
			req.Input[1].Text() == "first" &&
			req.Input[2].Role == chat.RoleAssistant &&
			req.Input[2].Content[0].Type == chat.PartOutputText &&
			req.Input[3].Text() == "second" &&
			req.Model == "gpt-4o-mini" &&
			*req.Temperature == 0.3
	})).Return(&chat.Response{Text: "answer two"}, nil).Once()

	_, err = a.SendMessage(context.Background(), "second")
	require.NoError(t, err)
	assert.Len(t, a.Transcript().Messages(), 4)
	c.AssertExpectations(t)
}

func TestSendMessage_FailureRecordsSystemMessage(t *testing.T) {
	c := new(mockCompleter)
	a := newAssistant(c)
	a.Context().AddSection(Section{ID: "CWW_1", Name: "Monitoring"})

	upstream := apperrors.New(apperrors.CodeLLMRateLimited, "rate limited upstream")
	c.On("Complete", mock.Anything, mock.Anything).Return(nil, upstream).Once()

	_, err := a.SendMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLLMRateLimited))

	msgs := a.Transcript().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, chat.RoleSystem, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "rate limited upstream")
	assert.False(t, a.Busy(), "send is available again")
}

func TestSendMessage_EmptyReplyIsAnError(t *testing.T) {
	c := new(mockCompleter)
	a := newAssistant(c)
	a.Context().AddSection(Section{ID: "CWW_1"})
	c.On("Complete", mock.Anything, mock.Anything).Return(&chat.Response{Text: "  "}, nil).Once()

	_, err := a.SendMessage(context.Background(), "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLLMEmptyOutput))
}

func TestSendMessage_NoCompleter(t *testing.T) {
	a := newAssistant(nil)
	a.Context().AddSection(Section{ID: "CWW_1"})
	_, err := a.SendMessage(context.Background(), "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLLMNotConfigured))
}

func TestSendMessage_BusyRejectsSecondTurn(t *testing.T) {
	c := new(mockCompleter)
	a := newAssistant(c)
	a.Context().AddSection(Section{ID: "CWW_1"})

	started := make(chan struct{})
	release := make(chan struct{})
	c.On("Complete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&chat.Response{Text: "done"}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := a.SendMessage(context.Background(), "first")
		done <- err
	}()

	<-started
	assert.True(t, a.Busy())
	_, err := a.SendMessage(context.Background(), "second")
	assert.True(t, errors.Is(err, ErrBusy))

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first turn did not finish")
	}
	assert.False(t, a.Busy())
}

func TestSendMessage_StaleReplyIsDiscarded(t *testing.T) {
	c := new(mockCompleter)
	a := newAssistant(c)
	a.Context().AddSection(Section{ID: "CWW_1"})

	c.On("Complete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			a.Context().SetPollutant("Cadmium", nil)
		}).
		Return(&chat.Response{Text: "late"}, nil).Once()

	_, err := a.SendMessage(context.Background(), "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStaleResponse))
	for _, m := range a.Transcript().Messages() {
		assert.NotEqual(t, chat.RoleAssistant, m.Role)
	}
}

//Personal.AI order the ending

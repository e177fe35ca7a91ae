package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

// ChatClient sends completion requests through the server's language-model
// proxy.  It satisfies the assistant's Completer contract.
type ChatClient struct {
	client *Client
}

// Complete posts req to the proxy and decodes the {text, id, model,
// response} answer.  Proxy statuses map back onto the LLM error codes.
func (cc *ChatClient) Complete(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	if req == nil {
		return nil, errors.InvalidParam("nil completion request")
	}
	raw, err := cc.client.do(ctx, http.MethodPost, cc.client.proxyPath, req)
	if err != nil {
		return nil, proxyError(err)
	}
	var resp chat.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode proxy response")
	}
	return &resp, nil
}

func proxyError(err error) error {
	apiErr, ok := err.(*APIError)
	if !ok {
		return errors.Wrap(err, errors.ErrCodeLLMUpstream, "proxy request failed")
	}
	msg := apiErr.Message
	code := errors.ErrCodeLLMUpstream
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		code = errors.ErrCodeLLMRateLimited
	case http.StatusUnauthorized:
		code = errors.ErrCodeLLMAuthFailed
	case http.StatusBadRequest:
		code = errors.ErrCodeValidation
	}
	if msg == "" {
		msg = errors.DefaultMessageForCode(code)
	}
	return errors.New(code, msg).WithCause(apiErr)
}

//Personal.AI order the ending

package llm

import (
	"context"
	"errors"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrBadRequest    = errors.New("bad request")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrNoJSON        = errors.New("no json object in completion")
)

// Client - минимальный контракт чат-модели, хватает для синтеза.
type Client interface {
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)
}

package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// ошибки входящего сообщения
var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrMessageTooLong   = errors.New("message too long")
	ErrMalformedMessage = errors.New("message is not valid text")
	ErrMissingClient    = errors.New("client identifier is required")
)

var (
	ErrSessionNotFound  = errors.New("conversation not found")
	ErrSessionInactive  = errors.New("conversation is not active")
	ErrStageRegression  = errors.New("stage cannot move backwards")
	ErrInvalidStage     = errors.New("invalid conversation stage")
	ErrInvalidRole      = errors.New("invalid turn role")
	ErrEmptyTurnContent = errors.New("empty turn content")
	ErrDuplicateTurn    = errors.New("turn number already used")
)

// ErrStateStore оборачивает любую ошибку хранилища разговоров.
// Координатор считает её фатальной для хода.
var ErrStateStore = errors.New("conversation state store failure")

var (
	ErrProfileNotFound = errors.New("cultural profile not found")
	ErrEmptyUserID     = errors.New("empty user id")
	ErrInvalidProfile  = errors.New("invalid cultural profile")
)

var (
	ErrInvalidDomain = errors.New("invalid domain")
)

// ErrRateLimited - пользователь превысил лимит сообщений
var ErrRateLimited = errors.New("too many requests")

package service

import "errors"

// Sentinel errors reported to callers. Persistence failures are wrapped
// driver errors and never replace these.
var (
	ErrNotAuthorized    = errors.New("identity lacks an active membership")
	ErrEmptyMessage     = errors.New("message has no content and no attachment")
	ErrInvalidReference = errors.New("reply references a message outside this room")
	ErrInvalidOperation = errors.New("operation not allowed for this room")
	ErrNotMember        = errors.New("no membership in this room")
	ErrRoomNotFound     = errors.New("room not found")
	ErrMessageNotFound  = errors.New("message not found")
)

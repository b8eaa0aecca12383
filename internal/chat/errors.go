package chat

import "errors"

var (
	ErrThreadNotFound  = errors.New("thread not found")
	ErrThreadForbidden = errors.New("thread belongs to another user")
)

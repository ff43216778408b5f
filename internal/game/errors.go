package game

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrInvalidAmount   = errors.New("amount must be a positive finite number")
)

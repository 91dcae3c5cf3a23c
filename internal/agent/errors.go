package agent

import "errors"

var (
	ErrEmptyProductName  = errors.New("product name is required")
	ErrEmptyText         = errors.New("analysis text is required")
	ErrNoMessages        = errors.New("at least one message is required")
	ErrTooManyMessages   = errors.New("too many messages")
	ErrInvalidRole       = errors.New("message role must be user or assistant")
	ErrInvalidToolSchema = errors.New("invalid tool parameter schema")
	ErrLiveModeDisabled  = errors.New("live analysis is disabled")
)

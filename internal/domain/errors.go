package domain

import "errors"

var (
	ErrMessageNotFound = errors.New("chat message not found")
)

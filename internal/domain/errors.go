package domain

import "errors"

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrPluginNotFound = errors.New("plugin not found")
)

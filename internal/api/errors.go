package api

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	ErrServe    = errors.ErrServeAPI
	ErrShutdown = errors.ErrShutdownFailed
)

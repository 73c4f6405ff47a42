package monitor

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	ErrPollCycle   = errors.ErrPollCycle
	ErrInvalidRate = errors.ErrInvalidInterval
)

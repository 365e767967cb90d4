package common

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnknownStrategy      = fmt.Errorf("%w: unknown strategy", ErrInvalidConfiguration)
	ErrDuplicateFileID      = fmt.Errorf("%w: duplicate file id", ErrInvalidConfiguration)
	ErrDayNotFinalized      = errors.New("day is not finalized")
	ErrNoDaysPrepared       = errors.New("no days prepared")
	ErrStatsNotFound        = errors.New("stats not found")
	ErrTableNotFound        = errors.New("table not found")
)

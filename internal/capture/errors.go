package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/galaxygst/galaxygst/pkg/core"
)

var (
	// ErrAbortedBeforeStart is returned when the recorder stops before RECORDING.
	ErrAbortedBeforeStart = errors.New("recording aborted before start")
	// ErrInvalidGhostType is returned when the session's data type is unknown.
	ErrInvalidGhostType = errors.New("invalid ghost data type")
	// ErrSyncLost matches every *SyncError.
	ErrSyncLost = errors.New("frame synchronization lost")
)

// SyncError reports a frame counter that neither repeated nor advanced by one.
type SyncError struct {
	Expected uint32
	Got      uint32
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("frame synchronization lost: expected update frame %d, got %d", e.Expected, e.Got)
}

func (e *SyncError) Is(target error) bool {
	return target == ErrSyncLost
}

// OutcomeOf classifies the error a session ended with.
func OutcomeOf(err error) core.Outcome {
	switch {
	case err == nil:
		return core.OutcomeStopped
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return core.OutcomeCanceled
	case errors.Is(err, ErrAbortedBeforeStart):
		return core.OutcomeAbortedBeforeStart
	case errors.Is(err, ErrInvalidGhostType):
		return core.OutcomeInvalidType
	case errors.Is(err, ErrSyncLost):
		return core.OutcomeSyncError
	default:
		return core.OutcomeFailed
	}
}

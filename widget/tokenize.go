package widget

import (
	"context"
	"fmt"
	"time"
)

// Charge invokes the bound widget's tokenize operation and normalizes the
// vendor's result into the TokenizationResult union. The error return is
// reserved for misuse (unknown container, instance not attached); transport
// and vendor failures are reported inside the result. Charge never retries:
// retry policy belongs to the caller, since a silently duplicated attempt is
// a double-charge risk.
func (m *Manager) Charge(ctx context.Context, containerID string) (TokenizationResult, error) {
	m.mu.Lock()
	inst := m.instances[containerID]
	m.mu.Unlock()

	if inst == nil {
		return TokenizationResult{}, ErrInstanceNotFound
	}
	if state := inst.State(); state != StateAttached {
		return TokenizationResult{}, fmt.Errorf("widget: container %q is not attached (state %s)", containerID, state)
	}

	start := time.Now()

	var result TokenizationResult
	raw, err := inst.handle.Tokenize(ctx)
	if err != nil {
		result = TokenizationResult{
			Status:  TokenizationTransientError,
			Message: err.Error(),
		}
	} else {
		result = inst.adapter.DecodeTokenization(raw)
	}

	m.logEvent(ctx, Event{
		Vendor:      inst.Vendor,
		ContainerID: containerID,
		MethodKind:  inst.MethodKind,
		Kind:        EventTokenized,
		State:       inst.State(),
		TokenStatus: result.Status,
		Error:       result.Message,
		DurationMs:  time.Since(start).Milliseconds(),
	})

	return result, nil
}

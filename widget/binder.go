package widget

import (
	"context"
	"errors"
	"time"
)

// Default container polling bounds: 10 attempts, 200ms apart. The container
// element may not be mounted yet when create is requested (animation and
// transition timing), so the binder waits a bounded amount of time for it.
const (
	defaultAttachAttempts = 10
	defaultAttachInterval = 200 * time.Millisecond
)

// ContainerBinder attaches a payment method instance to its container
// element, waiting a bounded number of attempts for the element to exist.
type ContainerBinder struct {
	host     Host
	attempts int
	interval time.Duration
}

// NewContainerBinder creates a binder with the default polling bounds.
func NewContainerBinder(host Host) *ContainerBinder {
	return &ContainerBinder{
		host:     host,
		attempts: defaultAttachAttempts,
		interval: defaultAttachInterval,
	}
}

// SetPolicy overrides the polling bounds. Zero values keep the defaults.
func (b *ContainerBinder) SetPolicy(attempts int, interval time.Duration) {
	if attempts > 0 {
		b.attempts = attempts
	}
	if interval > 0 {
		b.interval = interval
	}
}

// Attach waits for the container element and then calls the handle's attach
// operation exactly once. Exhausting the attempt bound is a hard
// ContainerNotFoundError and no vendor attach call is made.
func (b *ContainerBinder) Attach(ctx context.Context, handle MethodInstance, containerID string) error {
	if containerID == "" {
		return &AttachError{ContainerID: containerID, Err: errors.New("container id is empty")}
	}

	for attempt := 0; attempt < b.attempts; attempt++ {
		if b.host.ElementExists(containerID) {
			if err := handle.Attach(ctx, containerID); err != nil {
				return &AttachError{ContainerID: containerID, Err: err}
			}
			return nil
		}

		// Last attempt failed; no point sleeping before giving up.
		if attempt == b.attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.interval):
		}
	}

	return &ContainerNotFoundError{
		ContainerID: containerID,
		Attempts:    b.attempts,
		Waited:      time.Duration(b.attempts-1) * b.interval,
	}
}

package widget

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInstanceNotFound is returned when an operation references a
	// container id with no live instance.
	ErrInstanceNotFound = errors.New("widget: no instance for container")

	// ErrCreateAborted is returned when a Dispose arrived while the create
	// was still in flight; the freshly built handle is destroyed instead of
	// registered.
	ErrCreateAborted = errors.New("widget: create aborted by dispose")
)

// SDKLoadError reports a vendor script that failed to load or loaded without
// populating its global object.
type SDKLoadError struct {
	URL string
	Err error
}

func (e *SDKLoadError) Error() string {
	return fmt.Sprintf("widget: sdk load failed for %s: %v", e.URL, e.Err)
}

func (e *SDKLoadError) Unwrap() error { return e.Err }

// CredentialError reports missing or malformed vendor configuration. It is
// always fatal and visible; credentials are never substituted with fallbacks.
type CredentialError struct {
	Vendor string
	Field  string
	Reason string
}

func (e *CredentialError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: credential %q: %s", e.Vendor, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: credentials: %s", e.Vendor, e.Reason)
}

// ClientInitError reports a vendor SDK rejecting client or method instance
// construction.
type ClientInitError struct {
	Vendor string
	Err    error
}

func (e *ClientInitError) Error() string {
	return fmt.Sprintf("%s: client init failed: %v", e.Vendor, e.Err)
}

func (e *ClientInitError) Unwrap() error { return e.Err }

// ContainerNotFoundError reports that the container element never appeared
// within the binder's attempt bound. No vendor attach call was made.
type ContainerNotFoundError struct {
	ContainerID string
	Attempts    int
	Waited      time.Duration
}

func (e *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("widget: container %q not found after %d attempts (%s)", e.ContainerID, e.Attempts, e.Waited)
}

// AttachError reports the vendor SDK rejecting the attach call itself.
type AttachError struct {
	ContainerID string
	Err         error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("widget: attach to %q failed: %v", e.ContainerID, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

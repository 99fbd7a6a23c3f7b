package widget

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Environment selects the vendor backend a widget talks to. It is determined
// by credential format, never guessed: a missing production configuration is
// an error, not a reason to fall back to sandbox.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// MethodKind identifies the kind of payment method a widget renders.
type MethodKind string

const (
	MethodCard   MethodKind = "card"
	MethodWallet MethodKind = "wallet"
)

// InstanceState represents the lifecycle state of a widget instance
type InstanceState string

const (
	StateIdle         InstanceState = "idle"
	StateInitializing InstanceState = "initializing"
	StateAttached     InstanceState = "attached"
	StateFailed       InstanceState = "failed"
	StateDisposed     InstanceState = "disposed"
)

// Money is an amount in minor units (cents) with its ISO 4217 currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentRequest carries the order details a wallet-style widget is built
// from. Vendor SDKs reject wallet instances created without a prior payment
// request object, so the factory always constructs this first.
type PaymentRequest struct {
	Total          Money  `json:"total"`
	OrderReference string `json:"orderReference"`
	CountryCode    string `json:"countryCode,omitempty"`
}

// CreateOptions contains all caller-supplied input for creating a widget
// instance. Amount, currency and order reference are required for wallet
// methods; a card form collects them at charge time on the server side.
type CreateOptions struct {
	MethodKind     MethodKind `json:"methodKind" validate:"required,oneof=card wallet"`
	Amount         int64      `json:"amount" validate:"required_if=MethodKind wallet,omitempty,gt=0"`
	Currency       string     `json:"currency" validate:"required_if=MethodKind wallet,omitempty,len=3"`
	OrderReference string     `json:"orderReference" validate:"required_if=MethodKind wallet"`
	CountryCode    string     `json:"countryCode,omitempty" validate:"omitempty,len=2"`
}

// Credentials is the immutable, validated configuration snapshot for one
// vendor. Resolved once per session by the Resolver.
type Credentials struct {
	Vendor        string            `json:"vendor"`
	ApplicationID string            `json:"applicationId"`
	LocationID    string            `json:"locationId,omitempty"`
	Environment   Environment       `json:"environment"`
	Extra         map[string]string `json:"-"`
}

// IsProduction reports whether the credentials target the live vendor backend.
func (c Credentials) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// TokenizationStatus tags the outcome of a single tokenization attempt.
type TokenizationStatus string

const (
	TokenizationOK               TokenizationStatus = "ok"
	TokenizationValidationFailed TokenizationStatus = "validation_failed"
	TokenizationCancelled        TokenizationStatus = "cancelled"
	TokenizationTransientError   TokenizationStatus = "transient_error"
)

// TokenizationResult is the uniform result shape for a charge attempt. The
// token is opaque to this package; its contents are the server's concern.
// Results are produced once per user-initiated attempt and never cached.
type TokenizationResult struct {
	Status           TokenizationStatus `json:"status"`
	Token            string             `json:"token,omitempty"`
	ValidationErrors []string           `json:"validationErrors,omitempty"`
	Message          string             `json:"message,omitempty"`
}

// Instance is one live widget bound to one container. Instances are created
// and owned by the Manager; at most one live instance exists per container id.
type Instance struct {
	ContainerID string     `json:"containerId"`
	Vendor      string     `json:"vendor"`
	MethodKind  MethodKind `json:"methodKind"`
	CreatedAt   time.Time  `json:"createdAt"`

	handle      MethodInstance
	adapter     Adapter
	fingerprint string

	mu    sync.Mutex
	state InstanceState
}

// State returns the current lifecycle state of the instance.
func (i *Instance) State() InstanceState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Instance) setState(s InstanceState) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// Attached reports whether the instance is bound to its container and usable.
func (i *Instance) Attached() bool {
	return i.State() == StateAttached
}

// EventKind classifies widget lifecycle events emitted by the Manager.
type EventKind string

const (
	EventAttached     EventKind = "attached"
	EventCreateFailed EventKind = "create_failed"
	EventDisposed     EventKind = "disposed"
	EventTokenized    EventKind = "tokenized"
)

// Event is a single widget lifecycle event for telemetry sinks.
type Event struct {
	Timestamp      time.Time          `json:"timestamp"`
	Vendor         string             `json:"vendor"`
	ContainerID    string             `json:"containerId"`
	MethodKind     MethodKind         `json:"methodKind,omitempty"`
	Kind           EventKind          `json:"kind"`
	State          InstanceState      `json:"state,omitempty"`
	TokenStatus    TokenizationStatus `json:"tokenStatus,omitempty"`
	Error          string             `json:"error,omitempty"`
	DurationMs     int64              `json:"durationMs,omitempty"`
	OrderReference string             `json:"orderReference,omitempty"`
}

// NewContainerID generates a unique container element id. The prefix keeps
// ids readable in markup and event logs.
func NewContainerID(prefix string) string {
	if prefix == "" {
		prefix = "widget"
	}
	return fmt.Sprintf("%s-%s", strings.ToLower(prefix), uuid.New().String())
}

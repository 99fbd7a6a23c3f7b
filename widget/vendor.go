package widget

import "context"

// Host abstracts the embedding surface the widgets render into: vendor global
// lookup, script injection and container element presence. A js/wasm build
// implements it over the real document; tests use in-memory fakes.
type Host interface {
	// Global returns the vendor's global object if it is present.
	Global(name string) (any, bool)

	// InjectScript adds the vendor script to the page and blocks until the
	// script has loaded or failed. The loader guarantees at most one
	// injection per URL is in flight.
	InjectScript(ctx context.Context, url string) error

	// ElementExists reports whether the container element is mounted.
	ElementExists(containerID string) bool
}

// RawTokenization is the vendor-specific tokenize result shape before it is
// decoded into a TokenizationResult. Vendor SDKs return loosely typed
// objects; the adapter owns the mapping so format drift stays in one place.
type RawTokenization map[string]any

// MethodInstance is a vendor-rendered payment method (card form or wallet
// button) embedded into a caller-owned container.
type MethodInstance interface {
	// Attach binds the widget into the container element. Calling Attach a
	// second time on the same handle is a vendor error; the Manager's dedupe
	// prevents it.
	Attach(ctx context.Context, containerID string) error

	// Tokenize collects the payment data and returns the vendor's raw result.
	Tokenize(ctx context.Context) (RawTokenization, error)

	// Destroy releases the widget and its DOM listeners.
	Destroy() error
}

// PaymentsClient is the vendor's payments client, created once per vendor per
// session from the loaded SDK and resolved credentials.
type PaymentsClient interface {
	CardForm(ctx context.Context) (MethodInstance, error)
	WalletButton(ctx context.Context, req PaymentRequest) (MethodInstance, error)
}

// Adapter is the vendor-specific boundary: where the SDK script lives, which
// global it populates, what credentials look like, how a client is built and
// how tokenize results decode. Everything else in this package is vendor
// agnostic.
type Adapter interface {
	// Name returns the registry name of the vendor ("square", "paypal", ...).
	Name() string

	// GlobalName returns the name of the global object the SDK populates.
	GlobalName() string

	// ScriptURL returns the SDK script URL for the resolved credentials.
	// Some vendors encode the application id into the URL itself.
	ScriptURL(creds Credentials) string

	// GetRequiredConfig returns the configuration fields required for this
	// vendor in the given environment.
	GetRequiredConfig(environment string) []ConfigField

	// ParseCredentials builds a validated credentials snapshot from raw
	// configuration. Format or environment mismatches are CredentialErrors.
	ParseCredentials(conf map[string]string) (Credentials, error)

	// NewClient constructs the vendor payments client from the loaded SDK
	// global.
	NewClient(sdk any, creds Credentials) (PaymentsClient, error)

	// DecodeTokenization maps the vendor's raw tokenize shape onto the
	// uniform result union.
	DecodeTokenization(raw RawTokenization) TokenizationResult
}

// AdapterFactory is a function type that creates a new vendor Adapter
type AdapterFactory func() Adapter

// CredentialSource supplies raw vendor configuration, typically backed by
// environment variables or persistent storage.
type CredentialSource interface {
	GetConfig(vendor string) (map[string]string, error)
}

// EventLogger receives widget lifecycle events. Logging failures never fail
// the operation that produced the event.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

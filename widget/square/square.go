package square

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stagepass/paywidget/widget"
)

const (
	// SDK script URLs
	scriptSandboxURL    = "https://sandbox.web.squarecdn.com/v1/square.js"
	scriptProductionURL = "https://web.squarecdn.com/v1/square.js"

	// Global object populated by the SDK
	globalName = "Square"

	// Application id prefixes per environment
	appIDSandboxPrefix    = "sandbox-sq0idb-"
	appIDProductionPrefix = "sq0idp-"

	// Tokenization statuses
	statusOK     = "OK"
	statusCancel = "Cancel"
)

// SDK is the surface of the Square Web Payments global this adapter uses.
// A js/wasm binding wraps the real global; tests provide fakes.
type SDK interface {
	Payments(applicationID, locationID string) (Payments, error)
}

// Payments is the Square payments client.
type Payments interface {
	Card(ctx context.Context) (Method, error)
	PaymentRequest(params PaymentRequestParams) (any, error)
	GooglePay(paymentRequest any) (Method, error)
}

// Method is a Square payment method instance (card form or wallet button).
type Method interface {
	Attach(ctx context.Context, selector string) error
	Tokenize(ctx context.Context) (map[string]any, error)
	Destroy() error
}

// PaymentRequestParams is the payment request object Square requires before a
// wallet instance can be built.
type PaymentRequestParams struct {
	CountryCode  string
	CurrencyCode string
	Total        LineItem
}

// LineItem is a labelled amount in the payment request. Square takes amounts
// as decimal strings in major units.
type LineItem struct {
	Amount string
	Label  string
}

// SquareAdapter implements the widget.Adapter interface for the Square Web
// Payments SDK
type SquareAdapter struct{}

// NewAdapter creates a new Square vendor adapter
func NewAdapter() widget.Adapter {
	return &SquareAdapter{}
}

// Name returns the registry name of the vendor
func (a *SquareAdapter) Name() string { return "square" }

// GlobalName returns the global object name the SDK populates
func (a *SquareAdapter) GlobalName() string { return globalName }

// ScriptURL returns the SDK script URL for the resolved environment
func (a *SquareAdapter) ScriptURL(creds widget.Credentials) string {
	if creds.IsProduction() {
		return scriptProductionURL
	}
	return scriptSandboxURL
}

// GetRequiredConfig returns the configuration fields required for Square
func (a *SquareAdapter) GetRequiredConfig(environment string) []widget.ConfigField {
	appIDPattern := `^sandbox-sq0idb-[A-Za-z0-9_-]{10,}$`
	appIDExample := "sandbox-sq0idb-AbCdEf123456"
	if environment == string(widget.EnvironmentProduction) {
		appIDPattern = `^sq0idp-[A-Za-z0-9_-]{10,}$`
		appIDExample = "sq0idp-AbCdEf123456"
	}

	return []widget.ConfigField{
		{
			Key:         "applicationId",
			Required:    true,
			Type:        "string",
			Description: "Square application ID; the prefix encodes the environment",
			Example:     appIDExample,
			Pattern:     appIDPattern,
			MinLength:   17,
			MaxLength:   64,
		},
		{
			Key:         "locationId",
			Required:    true,
			Type:        "string",
			Description: "Square location ID",
			Example:     "LKYXSPGPXK0A5",
			Pattern:     `^[A-Z0-9]{8,32}$`,
			MinLength:   8,
			MaxLength:   32,
		},
		{
			Key:         "environment",
			Required:    true,
			Type:        "string",
			Description: "Environment (sandbox or production)",
			Example:     "sandbox",
			Pattern:     `^(sandbox|production)$`,
		},
	}
}

// ParseCredentials builds a validated credentials snapshot. The application
// id prefix must agree with the declared environment; a mismatch is a hard
// error, never a silent downgrade to sandbox.
func (a *SquareAdapter) ParseCredentials(conf map[string]string) (widget.Credentials, error) {
	appID := conf["applicationId"]
	env := widget.Environment(conf["environment"])

	switch env {
	case widget.EnvironmentProduction:
		if !strings.HasPrefix(appID, appIDProductionPrefix) {
			return widget.Credentials{}, &widget.CredentialError{
				Vendor: a.Name(),
				Field:  "applicationId",
				Reason: "application id is not a production credential",
			}
		}
	case widget.EnvironmentSandbox:
		if !strings.HasPrefix(appID, appIDSandboxPrefix) {
			return widget.Credentials{}, &widget.CredentialError{
				Vendor: a.Name(),
				Field:  "applicationId",
				Reason: "application id is not a sandbox credential",
			}
		}
	default:
		return widget.Credentials{}, &widget.CredentialError{
			Vendor: a.Name(),
			Field:  "environment",
			Reason: "environment must be one of: sandbox, production",
		}
	}

	return widget.Credentials{
		ApplicationID: appID,
		LocationID:    conf["locationId"],
		Environment:   env,
	}, nil
}

// NewClient constructs the Square payments client from the loaded SDK global
func (a *SquareAdapter) NewClient(sdk any, creds widget.Credentials) (widget.PaymentsClient, error) {
	squareSDK, ok := sdk.(SDK)
	if !ok {
		return nil, errors.New("square: loaded global does not expose the payments SDK")
	}

	payments, err := squareSDK.Payments(creds.ApplicationID, creds.LocationID)
	if err != nil {
		return nil, fmt.Errorf("square: payments client rejected: %w", err)
	}

	return &client{payments: payments}, nil
}

// DecodeTokenization maps Square's tokenize result shape onto the uniform
// union. Square reports OK with a token, Cancel for a dismissed wallet sheet,
// or an errors array with per-field messages.
func (a *SquareAdapter) DecodeTokenization(raw widget.RawTokenization) widget.TokenizationResult {
	status, _ := raw["status"].(string)

	switch status {
	case statusOK:
		token, _ := raw["token"].(string)
		if token == "" {
			return widget.TokenizationResult{
				Status:  widget.TokenizationTransientError,
				Message: "square: tokenization reported OK without a token",
			}
		}
		return widget.TokenizationResult{Status: widget.TokenizationOK, Token: token}

	case statusCancel:
		return widget.TokenizationResult{Status: widget.TokenizationCancelled}
	}

	if messages := tokenizationErrors(raw); len(messages) > 0 {
		return widget.TokenizationResult{
			Status:           widget.TokenizationValidationFailed,
			ValidationErrors: messages,
		}
	}

	return widget.TokenizationResult{
		Status:  widget.TokenizationTransientError,
		Message: fmt.Sprintf("square: unexpected tokenization status %q", status),
	}
}

// tokenizationErrors collects the message fields from Square's errors array.
func tokenizationErrors(raw widget.RawTokenization) []string {
	errs, ok := raw["errors"].([]any)
	if !ok {
		return nil
	}

	var messages []string
	for _, e := range errs {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if msg, ok := entry["message"].(string); ok && msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages
}

// client adapts the Square payments client to the widget.PaymentsClient
// interface.
type client struct {
	payments Payments
}

// CardForm creates a Square card form instance.
func (c *client) CardForm(ctx context.Context) (widget.MethodInstance, error) {
	method, err := c.payments.Card(ctx)
	if err != nil {
		return nil, fmt.Errorf("square: card instance rejected: %w", err)
	}
	return &methodInstance{method: method}, nil
}

// WalletButton creates a Square wallet button. The SDK requires the payment
// request object to exist before the wallet instance is constructed.
func (c *client) WalletButton(ctx context.Context, req widget.PaymentRequest) (widget.MethodInstance, error) {
	countryCode := req.CountryCode
	if countryCode == "" {
		countryCode = "US"
	}

	paymentRequest, err := c.payments.PaymentRequest(PaymentRequestParams{
		CountryCode:  countryCode,
		CurrencyCode: req.Total.Currency,
		Total: LineItem{
			Amount: FormatAmount(req.Total.Amount),
			Label:  "Total",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("square: payment request rejected: %w", err)
	}

	method, err := c.payments.GooglePay(paymentRequest)
	if err != nil {
		return nil, fmt.Errorf("square: wallet instance rejected: %w", err)
	}
	return &methodInstance{method: method}, nil
}

// methodInstance adapts a Square method to the widget.MethodInstance
// interface. Square attaches by CSS selector, not element id.
type methodInstance struct {
	method Method
}

func (m *methodInstance) Attach(ctx context.Context, containerID string) error {
	return m.method.Attach(ctx, "#"+containerID)
}

func (m *methodInstance) Tokenize(ctx context.Context) (widget.RawTokenization, error) {
	raw, err := m.method.Tokenize(ctx)
	if err != nil {
		return nil, err
	}
	return widget.RawTokenization(raw), nil
}

func (m *methodInstance) Destroy() error {
	return m.method.Destroy()
}

// FormatAmount renders an amount in minor units as the decimal string the
// Square payment request expects.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

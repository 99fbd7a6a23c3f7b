package cashapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stagepass/paywidget/widget"
)

const (
	// Cash App Pay ships inside the Square Web Payments SDK; the script and
	// global object are Square's.
	scriptSandboxURL    = "https://sandbox.web.squarecdn.com/v1/square.js"
	scriptProductionURL = "https://web.squarecdn.com/v1/square.js"
	globalName          = "Square"

	appIDSandboxPrefix    = "sandbox-sq0idb-"
	appIDProductionPrefix = "sq0idp-"

	// Tokenization statuses
	statusOK       = "OK"
	statusDeclined = "DECLINED"
	statusCancel   = "Cancel"
)

// SDK is the surface of the Square global this adapter uses.
type SDK interface {
	Payments(applicationID, locationID string) (Payments, error)
}

// Payments is the subset of the Square payments client Cash App Pay needs.
type Payments interface {
	PaymentRequest(params PaymentRequestParams) (any, error)
	CashAppPay(paymentRequest any, opts Options) (Method, error)
}

// Method is the Cash App Pay button instance.
type Method interface {
	Attach(ctx context.Context, selector string) error
	Tokenize(ctx context.Context) (map[string]any, error)
	Destroy() error
}

// PaymentRequestParams is the payment request object required before the
// button can be built.
type PaymentRequestParams struct {
	CountryCode  string
	CurrencyCode string
	Total        LineItem
}

// LineItem is a labelled amount in major-unit decimal string form.
type LineItem struct {
	Amount string
	Label  string
}

// Options carries the Cash App Pay construction options.
type Options struct {
	RedirectURL string
	ReferenceID string
}

// CashAppAdapter implements the widget.Adapter interface for Cash App Pay
type CashAppAdapter struct{}

// NewAdapter creates a new Cash App Pay vendor adapter
func NewAdapter() widget.Adapter {
	return &CashAppAdapter{}
}

// Name returns the registry name of the vendor
func (a *CashAppAdapter) Name() string { return "cashapp" }

// GlobalName returns the global object name the SDK populates
func (a *CashAppAdapter) GlobalName() string { return globalName }

// ScriptURL returns the SDK script URL for the resolved environment
func (a *CashAppAdapter) ScriptURL(creds widget.Credentials) string {
	if creds.IsProduction() {
		return scriptProductionURL
	}
	return scriptSandboxURL
}

// GetRequiredConfig returns the configuration fields required for Cash App Pay
func (a *CashAppAdapter) GetRequiredConfig(environment string) []widget.ConfigField {
	appIDPattern := `^sandbox-sq0idb-[A-Za-z0-9_-]{10,}$`
	if environment == string(widget.EnvironmentProduction) {
		appIDPattern = `^sq0idp-[A-Za-z0-9_-]{10,}$`
	}

	return []widget.ConfigField{
		{
			Key:         "applicationId",
			Required:    true,
			Type:        "string",
			Description: "Square application ID used by Cash App Pay",
			Example:     "sandbox-sq0idb-AbCdEf123456",
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
			Key:         "redirectUrl",
			Required:    false,
			Type:        "url",
			Description: "URL Cash App redirects back to after mobile approval",
			Example:     "https://example.com/checkout",
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

// ParseCredentials builds a validated credentials snapshot with the same
// prefix/environment cross-check as the Square adapter.
func (a *CashAppAdapter) ParseCredentials(conf map[string]string) (widget.Credentials, error) {
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

	extra := map[string]string{}
	if redirect := conf["redirectUrl"]; redirect != "" {
		extra["redirectUrl"] = redirect
	}

	return widget.Credentials{
		ApplicationID: appID,
		LocationID:    conf["locationId"],
		Environment:   env,
		Extra:         extra,
	}, nil
}

// NewClient constructs the Cash App Pay client from the loaded Square global
func (a *CashAppAdapter) NewClient(sdk any, creds widget.Credentials) (widget.PaymentsClient, error) {
	cashAppSDK, ok := sdk.(SDK)
	if !ok {
		return nil, errors.New("cashapp: loaded global does not expose the payments SDK")
	}

	payments, err := cashAppSDK.Payments(creds.ApplicationID, creds.LocationID)
	if err != nil {
		return nil, fmt.Errorf("cashapp: payments client rejected: %w", err)
	}

	return &client{
		payments:    payments,
		redirectURL: creds.Extra["redirectUrl"],
	}, nil
}

// DecodeTokenization maps Cash App Pay's result shape onto the uniform
// union. A declined approval carries a message; a dismissed sheet is Cancel.
func (a *CashAppAdapter) DecodeTokenization(raw widget.RawTokenization) widget.TokenizationResult {
	status, _ := raw["status"].(string)

	switch status {
	case statusOK:
		token, _ := raw["token"].(string)
		if token == "" {
			return widget.TokenizationResult{
				Status:  widget.TokenizationTransientError,
				Message: "cashapp: approval reported OK without a token",
			}
		}
		return widget.TokenizationResult{Status: widget.TokenizationOK, Token: token}

	case statusDeclined:
		msg, _ := raw["message"].(string)
		if msg == "" {
			msg = "payment was declined"
		}
		return widget.TokenizationResult{
			Status:           widget.TokenizationValidationFailed,
			ValidationErrors: []string{msg},
		}

	case statusCancel:
		return widget.TokenizationResult{Status: widget.TokenizationCancelled}
	}

	return widget.TokenizationResult{
		Status:  widget.TokenizationTransientError,
		Message: fmt.Sprintf("cashapp: unexpected tokenization status %q", status),
	}
}

// client adapts the Cash App Pay surface to widget.PaymentsClient. Cash App
// Pay is wallet-only; there is no hosted card form.
type client struct {
	payments    Payments
	redirectURL string
}

func (c *client) CardForm(ctx context.Context) (widget.MethodInstance, error) {
	return nil, errors.New("cashapp: card form is not supported")
}

func (c *client) WalletButton(ctx context.Context, req widget.PaymentRequest) (widget.MethodInstance, error) {
	countryCode := req.CountryCode
	if countryCode == "" {
		countryCode = "US"
	}

	paymentRequest, err := c.payments.PaymentRequest(PaymentRequestParams{
		CountryCode:  countryCode,
		CurrencyCode: req.Total.Currency,
		Total: LineItem{
			Amount: formatAmount(req.Total.Amount),
			Label:  "Total",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cashapp: payment request rejected: %w", err)
	}

	method, err := c.payments.CashAppPay(paymentRequest, Options{
		RedirectURL: c.redirectURL,
		ReferenceID: req.OrderReference,
	})
	if err != nil {
		return nil, fmt.Errorf("cashapp: wallet instance rejected: %w", err)
	}
	return &methodInstance{method: method}, nil
}

// methodInstance adapts the button to widget.MethodInstance. Attach takes a
// CSS selector on the Square SDK side.
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

func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

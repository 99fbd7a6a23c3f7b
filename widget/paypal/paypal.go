package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/stagepass/paywidget/widget"
)

const (
	// The client id is encoded into the script URL itself; sandbox and
	// production are selected by the credential, not the host.
	scriptBaseURL = "https://www.paypal.com/sdk/js"
	globalName    = "paypal"

	// Approval statuses
	statusApproved  = "APPROVED"
	statusCancelled = "CANCELLED"
	statusDeclined  = "INSTRUMENT_DECLINED"
)

// SDK is the surface of the PayPal JS global this adapter uses.
type SDK interface {
	Buttons(opts ButtonsOptions) (Buttons, error)
}

// ButtonsOptions configures a PayPal buttons instance. The order is created
// with these values when the buyer clicks the button.
type ButtonsOptions struct {
	Amount      string
	Currency    string
	ReferenceID string
}

// Buttons is a rendered PayPal buttons instance.
type Buttons interface {
	Render(ctx context.Context, selector string) error
	AwaitApproval(ctx context.Context) (map[string]any, error)
	Close() error
}

// PayPalAdapter implements the widget.Adapter interface for the PayPal JS SDK
type PayPalAdapter struct{}

// NewAdapter creates a new PayPal vendor adapter
func NewAdapter() widget.Adapter {
	return &PayPalAdapter{}
}

// Name returns the registry name of the vendor
func (a *PayPalAdapter) Name() string { return "paypal" }

// GlobalName returns the global object name the SDK populates
func (a *PayPalAdapter) GlobalName() string { return globalName }

// ScriptURL returns the SDK script URL with the client id encoded into the
// query string.
func (a *PayPalAdapter) ScriptURL(creds widget.Credentials) string {
	q := url.Values{}
	q.Set("client-id", creds.ApplicationID)
	q.Set("intent", "capture")
	if currency := creds.Extra["currency"]; currency != "" {
		q.Set("currency", currency)
	}
	return scriptBaseURL + "?" + q.Encode()
}

// GetRequiredConfig returns the configuration fields required for PayPal
func (a *PayPalAdapter) GetRequiredConfig(environment string) []widget.ConfigField {
	return []widget.ConfigField{
		{
			Key:         "clientId",
			Required:    true,
			Type:        "string",
			Description: "PayPal REST client ID",
			Example:     "AbCdEfGh123456789012345678901234567890",
			Pattern:     `^[A-Za-z0-9_-]{20,}$`,
			MinLength:   20,
			MaxLength:   128,
		},
		{
			Key:         "currency",
			Required:    false,
			Type:        "string",
			Description: "Default currency encoded into the SDK script URL",
			Example:     "USD",
			Pattern:     `^[A-Z]{3}$`,
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

// ParseCredentials builds a validated credentials snapshot. PayPal has no
// location id; the client id doubles as the application id.
func (a *PayPalAdapter) ParseCredentials(conf map[string]string) (widget.Credentials, error) {
	env := widget.Environment(conf["environment"])
	if env != widget.EnvironmentSandbox && env != widget.EnvironmentProduction {
		return widget.Credentials{}, &widget.CredentialError{
			Vendor: a.Name(),
			Field:  "environment",
			Reason: "environment must be one of: sandbox, production",
		}
	}

	extra := map[string]string{}
	if currency := conf["currency"]; currency != "" {
		extra["currency"] = currency
	}

	return widget.Credentials{
		ApplicationID: conf["clientId"],
		Environment:   env,
		Extra:         extra,
	}, nil
}

// NewClient constructs the PayPal client from the loaded SDK global
func (a *PayPalAdapter) NewClient(sdk any, creds widget.Credentials) (widget.PaymentsClient, error) {
	paypalSDK, ok := sdk.(SDK)
	if !ok {
		return nil, errors.New("paypal: loaded global does not expose the buttons SDK")
	}

	return &client{sdk: paypalSDK}, nil
}

// DecodeTokenization maps PayPal's approval result onto the uniform union.
// The approved order id is the token; capture happens server side.
func (a *PayPalAdapter) DecodeTokenization(raw widget.RawTokenization) widget.TokenizationResult {
	status, _ := raw["status"].(string)

	switch status {
	case statusApproved:
		orderID, _ := raw["orderID"].(string)
		if orderID == "" {
			return widget.TokenizationResult{
				Status:  widget.TokenizationTransientError,
				Message: "paypal: approval reported without an order id",
			}
		}
		return widget.TokenizationResult{Status: widget.TokenizationOK, Token: orderID}

	case statusCancelled:
		return widget.TokenizationResult{Status: widget.TokenizationCancelled}

	case statusDeclined:
		return widget.TokenizationResult{
			Status:           widget.TokenizationValidationFailed,
			ValidationErrors: []string{"the selected funding instrument was declined"},
		}
	}

	msg, _ := raw["message"].(string)
	if msg == "" {
		msg = fmt.Sprintf("paypal: unexpected approval status %q", status)
	}
	return widget.TokenizationResult{Status: widget.TokenizationTransientError, Message: msg}
}

// client adapts the PayPal buttons surface to widget.PaymentsClient. PayPal
// is wallet-only in this integration; hosted card fields are not used.
type client struct {
	sdk SDK
}

func (c *client) CardForm(ctx context.Context) (widget.MethodInstance, error) {
	return nil, errors.New("paypal: card form is not supported")
}

func (c *client) WalletButton(ctx context.Context, req widget.PaymentRequest) (widget.MethodInstance, error) {
	buttons, err := c.sdk.Buttons(ButtonsOptions{
		Amount:      formatAmount(req.Total.Amount),
		Currency:    req.Total.Currency,
		ReferenceID: req.OrderReference,
	})
	if err != nil {
		return nil, fmt.Errorf("paypal: buttons instance rejected: %w", err)
	}

	return &methodInstance{buttons: buttons}, nil
}

// methodInstance adapts a buttons instance to widget.MethodInstance. Render
// takes a CSS selector; tokenize blocks until the buyer approves or dismisses
// the flow.
type methodInstance struct {
	buttons Buttons
}

func (m *methodInstance) Attach(ctx context.Context, containerID string) error {
	return m.buttons.Render(ctx, "#"+containerID)
}

func (m *methodInstance) Tokenize(ctx context.Context) (widget.RawTokenization, error) {
	raw, err := m.buttons.AwaitApproval(ctx)
	if err != nil {
		return nil, err
	}
	return widget.RawTokenization(raw), nil
}

func (m *methodInstance) Destroy() error {
	return m.buttons.Close()
}

func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

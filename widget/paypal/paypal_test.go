package paypal

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stagepass/paywidget/widget"
)

func TestScriptURLEncodesClientID(t *testing.T) {
	adapter := NewAdapter()

	raw := adapter.ScriptURL(widget.Credentials{
		ApplicationID: "AbCdEfGh123456789012345678901234567890",
		Environment:   widget.EnvironmentSandbox,
		Extra:         map[string]string{"currency": "USD"},
	})

	require.True(t, strings.HasPrefix(raw, scriptBaseURL+"?"))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "AbCdEfGh123456789012345678901234567890", q.Get("client-id"))
	assert.Equal(t, "capture", q.Get("intent"))
	assert.Equal(t, "USD", q.Get("currency"))
}

func TestScriptURLOmitsEmptyCurrency(t *testing.T) {
	adapter := NewAdapter()

	raw := adapter.ScriptURL(widget.Credentials{ApplicationID: "client-abc"})

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.False(t, parsed.Query().Has("currency"))
}

func TestParseCredentials(t *testing.T) {
	adapter := NewAdapter()

	tests := []struct {
		name        string
		conf        map[string]string
		expectError bool
		field       string
	}{
		{
			name: "valid_with_currency",
			conf: map[string]string{
				"clientId":    "AbCdEfGh123456789012345678901234567890",
				"currency":    "EUR",
				"environment": "sandbox",
			},
		},
		{
			name: "valid_without_currency",
			conf: map[string]string{
				"clientId":    "AbCdEfGh123456789012345678901234567890",
				"environment": "production",
			},
		},
		{
			name: "unknown_environment",
			conf: map[string]string{
				"clientId":    "AbCdEfGh123456789012345678901234567890",
				"environment": "live",
			},
			expectError: true,
			field:       "environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := adapter.ParseCredentials(tt.conf)

			if !tt.expectError {
				require.NoError(t, err)
				assert.Equal(t, tt.conf["clientId"], creds.ApplicationID)
				assert.Empty(t, creds.LocationID)
				assert.Equal(t, tt.conf["currency"], creds.Extra["currency"])
				return
			}

			var credErr *widget.CredentialError
			require.ErrorAs(t, err, &credErr)
			assert.Equal(t, "paypal", credErr.Vendor)
			assert.Equal(t, tt.field, credErr.Field)
		})
	}
}

func TestDecodeTokenization(t *testing.T) {
	adapter := NewAdapter()

	tests := []struct {
		name   string
		raw    widget.RawTokenization
		status widget.TokenizationStatus
		token  string
		errors []string
	}{
		{
			name:   "approved_order",
			raw:    widget.RawTokenization{"status": "APPROVED", "orderID": "5O190127TN364715T"},
			status: widget.TokenizationOK,
			token:  "5O190127TN364715T",
		},
		{
			name:   "approved_without_order_id_is_transient",
			raw:    widget.RawTokenization{"status": "APPROVED"},
			status: widget.TokenizationTransientError,
		},
		{
			name:   "buyer_cancelled",
			raw:    widget.RawTokenization{"status": "CANCELLED"},
			status: widget.TokenizationCancelled,
		},
		{
			name:   "instrument_declined",
			raw:    widget.RawTokenization{"status": "INSTRUMENT_DECLINED"},
			status: widget.TokenizationValidationFailed,
			errors: []string{"the selected funding instrument was declined"},
		},
		{
			name:   "unexpected_status_is_transient",
			raw:    widget.RawTokenization{"status": "PAYER_ACTION_REQUIRED"},
			status: widget.TokenizationTransientError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := adapter.DecodeTokenization(tt.raw)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.token, result.Token)
			assert.Equal(t, tt.errors, result.ValidationErrors)
		})
	}
}

// stubSDK captures the options the buttons instance is built with.
type stubSDK struct {
	options *ButtonsOptions
}

func (s *stubSDK) Buttons(opts ButtonsOptions) (Buttons, error) {
	s.options = &opts
	return &stubButtons{}, nil
}

type stubButtons struct {
	rendered string
}

func (b *stubButtons) Render(ctx context.Context, selector string) error {
	b.rendered = selector
	return nil
}

func (b *stubButtons) AwaitApproval(ctx context.Context) (map[string]any, error) {
	return map[string]any{"status": "APPROVED", "orderID": "5O190127TN364715T"}, nil
}

func (b *stubButtons) Close() error { return nil }

func TestCardFormIsNotSupported(t *testing.T) {
	adapter := NewAdapter()
	client, err := adapter.NewClient(&stubSDK{}, widget.Credentials{})
	require.NoError(t, err)

	_, err = client.CardForm(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card form is not supported")
}

func TestWalletButtonPassesOrderDetails(t *testing.T) {
	sdk := &stubSDK{}
	adapter := NewAdapter()
	client, err := adapter.NewClient(sdk, widget.Credentials{})
	require.NoError(t, err)

	instance, err := client.WalletButton(context.Background(), widget.PaymentRequest{
		Total:          widget.Money{Amount: 12050, Currency: "EUR"},
		OrderReference: "order-9",
	})
	require.NoError(t, err)

	require.NotNil(t, sdk.options)
	assert.Equal(t, "120.50", sdk.options.Amount)
	assert.Equal(t, "EUR", sdk.options.Currency)
	assert.Equal(t, "order-9", sdk.options.ReferenceID)

	require.NoError(t, instance.Attach(context.Background(), "paypal-slot"))
}

func TestNewClientRejectsForeignSDK(t *testing.T) {
	adapter := NewAdapter()

	_, err := adapter.NewClient(42, widget.Credentials{})
	assert.Error(t, err)
}

package widget

import (
	"context"
	"fmt"
	"sync"
)

// clientFactory caches one payments client per vendor for the session. The
// client is the process-wide singleton handle the vendor SDK hands back after
// credential exchange; method instances are derived from it per widget.
type clientFactory struct {
	mu      sync.Mutex
	clients map[string]PaymentsClient
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		clients: make(map[string]PaymentsClient),
	}
}

// Client returns the cached payments client for the vendor, creating it on
// first use. SDK rejections surface as ClientInitError.
func (f *clientFactory) Client(adapter Adapter, sdk any, creds Credentials) (PaymentsClient, error) {
	name := adapter.Name()

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[name]; ok {
		return client, nil
	}

	client, err := adapter.NewClient(sdk, creds)
	if err != nil {
		return nil, &ClientInitError{Vendor: name, Err: err}
	}

	f.clients[name] = client
	return client, nil
}

// MethodInstance derives a payment method instance from the client. Wallet
// methods are built from a payment request object constructed first; vendor
// SDKs reject wallet instances created without one.
func (f *clientFactory) MethodInstance(ctx context.Context, vendor string, client PaymentsClient, opts CreateOptions) (MethodInstance, error) {
	switch opts.MethodKind {
	case MethodCard:
		handle, err := client.CardForm(ctx)
		if err != nil {
			return nil, &ClientInitError{Vendor: vendor, Err: err}
		}
		return handle, nil

	case MethodWallet:
		req := PaymentRequest{
			Total:          Money{Amount: opts.Amount, Currency: opts.Currency},
			OrderReference: opts.OrderReference,
			CountryCode:    opts.CountryCode,
		}
		handle, err := client.WalletButton(ctx, req)
		if err != nil {
			return nil, &ClientInitError{Vendor: vendor, Err: err}
		}
		return handle, nil

	default:
		return nil, &ClientInitError{Vendor: vendor, Err: fmt.Errorf("unknown method kind %q", opts.MethodKind)}
	}
}

// Reset drops all cached clients. Intended for tests and full teardown.
func (f *clientFactory) Reset() {
	f.mu.Lock()
	f.clients = make(map[string]PaymentsClient)
	f.mu.Unlock()
}

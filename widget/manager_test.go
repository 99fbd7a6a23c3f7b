package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost is an in-memory embedding surface with call counters.
type fakeHost struct {
	mu          sync.Mutex
	globals     map[string]any
	elements    map[string]bool
	injectCalls int
	injectErr   error
	// global published by a successful inject
	sdk any
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		globals:  make(map[string]any),
		elements: make(map[string]bool),
		sdk:      &fakeSDK{},
	}
}

func (h *fakeHost) Global(name string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.globals[name]
	return g, ok
}

func (h *fakeHost) InjectScript(ctx context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.injectCalls++
	if h.injectErr != nil {
		return h.injectErr
	}
	h.globals["FakePay"] = h.sdk
	return nil
}

func (h *fakeHost) ElementExists(containerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.elements[containerID]
}

func (h *fakeHost) addElement(containerID string) {
	h.mu.Lock()
	h.elements[containerID] = true
	h.mu.Unlock()
}

func (h *fakeHost) injectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.injectCalls
}

// fakeSDK is the object the injected script publishes as the vendor global.
type fakeSDK struct{}

// fakeHandle is a scripted method instance with call counters.
type fakeHandle struct {
	mu           sync.Mutex
	attachCalls  int
	destroyCalls int
	attachErr    error
	attachGate   chan struct{} // when non-nil, Attach blocks until closed
	attachBegun  chan struct{} // closed on first Attach entry
	tokenizeRaw  map[string]any
	tokenizeErr  error
}

func (f *fakeHandle) Attach(ctx context.Context, containerID string) error {
	f.mu.Lock()
	f.attachCalls++
	begun := f.attachBegun
	gate := f.attachGate
	f.attachBegun = nil
	f.mu.Unlock()

	if begun != nil {
		close(begun)
	}
	if gate != nil {
		<-gate
	}
	return f.attachErr
}

func (f *fakeHandle) Tokenize(ctx context.Context) (RawTokenization, error) {
	if f.tokenizeErr != nil {
		return nil, f.tokenizeErr
	}
	return RawTokenization(f.tokenizeRaw), nil
}

func (f *fakeHandle) Destroy() error {
	f.mu.Lock()
	f.destroyCalls++
	f.mu.Unlock()
	return nil
}

func (f *fakeHandle) attachCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attachCalls
}

func (f *fakeHandle) destroyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyCalls
}

// fakeClient hands out handles from a queue, or fresh ones when empty.
type fakeClient struct {
	mu      sync.Mutex
	queue   []*fakeHandle
	created []*fakeHandle
}

func (c *fakeClient) next() *fakeHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	var h *fakeHandle
	if len(c.queue) > 0 {
		h = c.queue[0]
		c.queue = c.queue[1:]
	} else {
		h = &fakeHandle{tokenizeRaw: map[string]any{"status": "OK", "token": "tok-1"}}
	}
	c.created = append(c.created, h)
	return h
}

func (c *fakeClient) CardForm(ctx context.Context) (MethodInstance, error) {
	return c.next(), nil
}

func (c *fakeClient) WalletButton(ctx context.Context, req PaymentRequest) (MethodInstance, error) {
	return c.next(), nil
}

// fakeAdapter is a minimal vendor adapter for the fake SDK.
type fakeAdapter struct {
	client *fakeClient
}

func (a *fakeAdapter) Name() string       { return "fakepay" }
func (a *fakeAdapter) GlobalName() string { return "FakePay" }

func (a *fakeAdapter) ScriptURL(creds Credentials) string {
	if creds.IsProduction() {
		return "https://cdn.fakepay.test/v1/fakepay.js"
	}
	return "https://sandbox.cdn.fakepay.test/v1/fakepay.js"
}

func (a *fakeAdapter) GetRequiredConfig(environment string) []ConfigField {
	return []ConfigField{
		{Key: "applicationId", Required: true, Type: "string", MinLength: 4},
		{Key: "environment", Required: true, Type: "string"},
	}
}

func (a *fakeAdapter) ParseCredentials(conf map[string]string) (Credentials, error) {
	env := Environment(conf["environment"])
	if env != EnvironmentSandbox && env != EnvironmentProduction {
		return Credentials{}, &CredentialError{Vendor: a.Name(), Field: "environment", Reason: "environment must be one of: sandbox, production"}
	}
	return Credentials{ApplicationID: conf["applicationId"], Environment: env}, nil
}

func (a *fakeAdapter) NewClient(sdk any, creds Credentials) (PaymentsClient, error) {
	if _, ok := sdk.(*fakeSDK); !ok {
		return nil, errors.New("fakepay: unexpected sdk global")
	}
	return a.client, nil
}

func (a *fakeAdapter) DecodeTokenization(raw RawTokenization) TokenizationResult {
	switch raw["status"] {
	case "OK":
		token, _ := raw["token"].(string)
		return TokenizationResult{Status: TokenizationOK, Token: token}
	case "Cancel":
		return TokenizationResult{Status: TokenizationCancelled}
	case "Invalid":
		return TokenizationResult{Status: TokenizationValidationFailed, ValidationErrors: []string{"card number is invalid"}}
	}
	return TokenizationResult{Status: TokenizationTransientError, Message: "unexpected status"}
}

// mapSource is a CredentialSource over a map.
type mapSource struct {
	mu      sync.Mutex
	configs map[string]map[string]string
	calls   int
}

func (s *mapSource) GetConfig(vendor string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	conf, ok := s.configs[vendor]
	if !ok {
		return nil, fmt.Errorf("no configuration found for vendor: %s", vendor)
	}
	return conf, nil
}

// eventRecorder captures events emitted by the manager.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *eventRecorder) LogEvent(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func sandboxSource() *mapSource {
	return &mapSource{configs: map[string]map[string]string{
		"fakepay": {
			"applicationId": "fp-sandbox-app",
			"environment":   "sandbox",
		},
	}}
}

func newTestManager(t *testing.T, host *fakeHost, source CredentialSource, events EventLogger) (*Manager, *fakeAdapter) {
	t.Helper()

	adapter := &fakeAdapter{client: &fakeClient{}}
	registry := NewAdapterRegistry()
	registry.Register("fakepay", func() Adapter { return adapter })

	opts := []ManagerOption{
		WithRegistry(registry),
		WithAttachPolicy(3, time.Millisecond),
	}
	if events != nil {
		opts = append(opts, WithEventLogger(events))
	}

	return NewManager(host, source, opts...), adapter
}

func TestManagerCreateCard(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	events := &eventRecorder{}
	manager, adapter := newTestManager(t, host, sandboxSource(), events)

	inst, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{
		MethodKind: MethodCard,
	})
	require.NoError(t, err)
	require.NotNil(t, inst)

	assert.Equal(t, StateAttached, inst.State())
	assert.Equal(t, "fakepay", inst.Vendor)
	assert.Equal(t, MethodCard, inst.MethodKind)
	assert.Equal(t, 1, host.injectCount())
	assert.Equal(t, 1, adapter.client.created[0].attachCount())
	assert.Equal(t, []EventKind{EventAttached}, events.kinds())

	got, ok := manager.Instance("pay-card")
	assert.True(t, ok)
	assert.Same(t, inst, got)
}

func TestManagerCreateWalletRequiresOrderDetails(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-wallet")
	manager, _ := newTestManager(t, host, sandboxSource(), nil)

	_, err := manager.Create(context.Background(), "fakepay", "pay-wallet", CreateOptions{
		MethodKind: MethodWallet,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid create options")

	// Nothing ran: not even the script load
	assert.Equal(t, 0, host.injectCount())
}

func TestManagerCreateIsIdempotent(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	manager, adapter := newTestManager(t, host, sandboxSource(), nil)

	opts := CreateOptions{MethodKind: MethodCard}

	first, err := manager.Create(context.Background(), "fakepay", "pay-card", opts)
	require.NoError(t, err)

	second, err := manager.Create(context.Background(), "fakepay", "pay-card", opts)
	require.NoError(t, err)

	assert.Same(t, first, second)
	require.Len(t, adapter.client.created, 1)
	assert.Equal(t, 1, adapter.client.created[0].attachCount())
}

func TestManagerConcurrentCreatesAttachOnce(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	manager, adapter := newTestManager(t, host, sandboxSource(), nil)

	opts := CreateOptions{MethodKind: MethodCard}

	const callers = 8
	instances := make([]*Instance, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instances[i], errs[i] = manager.Create(context.Background(), "fakepay", "pay-card", opts)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, instances[0], instances[i])
	}

	totalAttach := 0
	for _, h := range adapter.client.created {
		totalAttach += h.attachCount()
	}
	assert.Equal(t, 1, totalAttach)
	assert.Equal(t, 1, host.injectCount())
}

func TestManagerBadCredentialsFailBeforeLoading(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	source := &mapSource{configs: map[string]map[string]string{
		"fakepay": {
			"applicationId": "fp-app",
			"environment":   "staging", // not a valid environment
		},
	}}
	events := &eventRecorder{}
	manager, _ := newTestManager(t, host, source, events)

	_, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{MethodKind: MethodCard})
	require.Error(t, err)

	var credErr *CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "fakepay", credErr.Vendor)

	// The configuration error surfaced without any script injection
	assert.Equal(t, 0, host.injectCount())
	assert.Equal(t, []EventKind{EventCreateFailed}, events.kinds())
}

func TestManagerMissingConfiguration(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	manager, _ := newTestManager(t, host, &mapSource{configs: map[string]map[string]string{}}, nil)

	_, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{MethodKind: MethodCard})

	var credErr *CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 0, host.injectCount())
}

func TestManagerContainerNeverAppears(t *testing.T) {
	host := newFakeHost() // container element is never mounted
	manager, adapter := newTestManager(t, host, sandboxSource(), nil)

	_, err := manager.Create(context.Background(), "fakepay", "pay-missing", CreateOptions{MethodKind: MethodCard})
	require.Error(t, err)

	var notFound *ContainerNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "pay-missing", notFound.ContainerID)
	assert.Equal(t, 3, notFound.Attempts)

	// The vendor attach was never called and the orphan handle was released
	require.Len(t, adapter.client.created, 1)
	assert.Equal(t, 0, adapter.client.created[0].attachCount())
	assert.Equal(t, 1, adapter.client.created[0].destroyCount())

	_, ok := manager.Instance("pay-missing")
	assert.False(t, ok)
}

func TestManagerReplaceWithDifferentMethodKind(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-slot")
	manager, adapter := newTestManager(t, host, sandboxSource(), nil)

	card, err := manager.Create(context.Background(), "fakepay", "pay-slot", CreateOptions{MethodKind: MethodCard})
	require.NoError(t, err)

	wallet, err := manager.Create(context.Background(), "fakepay", "pay-slot", CreateOptions{
		MethodKind:     MethodWallet,
		Amount:         1999,
		Currency:       "USD",
		OrderReference: "order-7",
	})
	require.NoError(t, err)

	assert.NotSame(t, card, wallet)
	assert.Equal(t, StateDisposed, card.State())
	assert.Equal(t, StateAttached, wallet.State())
	assert.Equal(t, 1, adapter.client.created[0].destroyCount())

	got, ok := manager.Instance("pay-slot")
	require.True(t, ok)
	assert.Equal(t, MethodWallet, got.MethodKind)
}

func TestManagerDisposeDuringCreateAborts(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	manager, adapter := newTestManager(t, host, sandboxSource(), nil)

	gate := make(chan struct{})
	begun := make(chan struct{})
	adapter.client.queue = []*fakeHandle{{
		attachGate:  gate,
		attachBegun: begun,
		tokenizeRaw: map[string]any{"status": "OK", "token": "tok-1"},
	}}

	errCh := make(chan error, 1)
	go func() {
		_, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{MethodKind: MethodCard})
		errCh <- err
	}()

	<-begun
	manager.Dispose(context.Background(), "pay-card")
	close(gate)

	err := <-errCh
	require.ErrorIs(t, err, ErrCreateAborted)

	// The freshly built handle was destroyed, never registered
	assert.Equal(t, 1, adapter.client.created[0].destroyCount())
	_, ok := manager.Instance("pay-card")
	assert.False(t, ok)
}

func TestManagerDisposeThenRecreate(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	manager, adapter := newTestManager(t, host, sandboxSource(), nil)

	opts := CreateOptions{MethodKind: MethodCard}

	first, err := manager.Create(context.Background(), "fakepay", "pay-card", opts)
	require.NoError(t, err)

	manager.Dispose(context.Background(), "pay-card")
	assert.Equal(t, StateDisposed, first.State())
	assert.Equal(t, 1, adapter.client.created[0].destroyCount())

	second, err := manager.Create(context.Background(), "fakepay", "pay-card", opts)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, StateAttached, second.State())
}

func TestManagerDisposeAll(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-a")
	host.addElement("pay-b")
	manager, _ := newTestManager(t, host, sandboxSource(), nil)

	_, err := manager.Create(context.Background(), "fakepay", "pay-a", CreateOptions{MethodKind: MethodCard})
	require.NoError(t, err)
	_, err = manager.Create(context.Background(), "fakepay", "pay-b", CreateOptions{MethodKind: MethodCard})
	require.NoError(t, err)

	manager.DisposeAll(context.Background())

	_, okA := manager.Instance("pay-a")
	_, okB := manager.Instance("pay-b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestManagerUnknownVendor(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	manager, _ := newTestManager(t, host, sandboxSource(), nil)

	_, err := manager.Create(context.Background(), "unknown", "pay-card", CreateOptions{MethodKind: MethodCard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not registered")
}

func TestManagerEventSinkFailureDoesNotFailCreate(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	events := &eventRecorder{err: errors.New("sink unavailable")}
	manager, _ := newTestManager(t, host, sandboxSource(), events)

	inst, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{MethodKind: MethodCard})
	require.NoError(t, err)
	assert.Equal(t, StateAttached, inst.State())
}

func TestManagerChargeOK(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	events := &eventRecorder{}
	manager, _ := newTestManager(t, host, sandboxSource(), events)

	_, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{MethodKind: MethodCard})
	require.NoError(t, err)

	result, err := manager.Charge(context.Background(), "pay-card")
	require.NoError(t, err)
	assert.Equal(t, TokenizationOK, result.Status)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, []EventKind{EventAttached, EventTokenized}, events.kinds())
}

func TestManagerChargeTransportErrorIsTransient(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	manager, adapter := newTestManager(t, host, sandboxSource(), nil)

	adapter.client.queue = []*fakeHandle{{tokenizeErr: errors.New("network down")}}

	_, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{MethodKind: MethodCard})
	require.NoError(t, err)

	result, err := manager.Charge(context.Background(), "pay-card")
	require.NoError(t, err)
	assert.Equal(t, TokenizationTransientError, result.Status)
	assert.Contains(t, result.Message, "network down")
}

func TestManagerChargeDecodesVendorOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		status TokenizationStatus
	}{
		{"cancelled", map[string]any{"status": "Cancel"}, TokenizationCancelled},
		{"validation_failed", map[string]any{"status": "Invalid"}, TokenizationValidationFailed},
		{"unexpected", map[string]any{"status": "???"}, TokenizationTransientError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newFakeHost()
			host.addElement("pay-card")
			manager, adapter := newTestManager(t, host, sandboxSource(), nil)
			adapter.client.queue = []*fakeHandle{{tokenizeRaw: tt.raw}}

			_, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{MethodKind: MethodCard})
			require.NoError(t, err)

			result, err := manager.Charge(context.Background(), "pay-card")
			require.NoError(t, err)
			assert.Equal(t, tt.status, result.Status)
		})
	}
}

func TestManagerChargeUnknownContainer(t *testing.T) {
	host := newFakeHost()
	manager, _ := newTestManager(t, host, sandboxSource(), nil)

	_, err := manager.Charge(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestManagerChargeDisposedContainer(t *testing.T) {
	host := newFakeHost()
	host.addElement("pay-card")
	manager, _ := newTestManager(t, host, sandboxSource(), nil)

	_, err := manager.Create(context.Background(), "fakepay", "pay-card", CreateOptions{MethodKind: MethodCard})
	require.NoError(t, err)

	manager.Dispose(context.Background(), "pay-card")

	_, err = manager.Charge(context.Background(), "pay-card")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestManagerRequiresContainerID(t *testing.T) {
	host := newFakeHost()
	manager, _ := newTestManager(t, host, sandboxSource(), nil)

	_, err := manager.Create(context.Background(), "fakepay", "", CreateOptions{MethodKind: MethodCard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container id is required")
}

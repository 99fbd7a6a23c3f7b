package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/logger"
)

// Manager is the widget lifecycle orchestrator. It sequences script loading,
// credential resolution, client and method instance construction and
// container binding exactly once per logical widget instance, tracks
// instances by container id, and serializes all lifecycle operations per
// container so duplicate initializations cannot race.
type Manager struct {
	host     Host
	registry *AdapterRegistry
	resolver *Resolver
	loader   *ScriptLoader
	binder   *ContainerBinder
	factory  *clientFactory
	events   EventLogger

	mu        sync.Mutex
	instances map[string]*Instance
	inflight  map[string]*inflightCreate
}

// inflightCreate serializes creates per container id: later callers await the
// first outcome instead of starting a second initialization.
type inflightCreate struct {
	fingerprint string
	done        chan struct{}
	cancelled   bool
	inst        *Instance
	err         error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithEventLogger attaches a telemetry sink for lifecycle events.
func WithEventLogger(events EventLogger) ManagerOption {
	return func(m *Manager) { m.events = events }
}

// WithRegistry uses a specific adapter registry instead of DefaultRegistry.
func WithRegistry(registry *AdapterRegistry) ManagerOption {
	return func(m *Manager) { m.registry = registry }
}

// WithAttachPolicy overrides the container polling bounds.
func WithAttachPolicy(attempts int, interval time.Duration) ManagerOption {
	return func(m *Manager) { m.binder.SetPolicy(attempts, interval) }
}

// NewManager creates a lifecycle manager for the given host and credential
// source.
func NewManager(host Host, source CredentialSource, opts ...ManagerOption) *Manager {
	m := &Manager{
		host:      host,
		registry:  DefaultRegistry,
		resolver:  NewResolver(source),
		loader:    NewScriptLoader(host),
		binder:    NewContainerBinder(host),
		factory:   newClientFactory(),
		instances: make(map[string]*Instance),
		inflight:  make(map[string]*inflightCreate),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Create builds and attaches a widget instance for the container. If a live
// instance already occupies the container it is disposed first, so at most
// one instance exists per container id. Concurrent creates for the same
// container await the first one's outcome; an identical request shares it, a
// differing one rebuilds after it settles.
func (m *Manager) Create(ctx context.Context, vendor, containerID string, opts CreateOptions) (*Instance, error) {
	if containerID == "" {
		return nil, errors.New("widget: container id is required")
	}

	if err := config.App().Validator.Struct(opts); err != nil {
		return nil, fmt.Errorf("widget: invalid create options: %w", err)
	}

	fingerprint := createFingerprint(vendor, opts)

	for {
		m.mu.Lock()

		if rec := m.inflight[containerID]; rec != nil {
			done := rec.done
			m.mu.Unlock()

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-done:
			}

			if rec.fingerprint == fingerprint {
				return rec.inst, rec.err
			}
			// Different request for the same container: start over and
			// replace whatever the first one built.
			continue
		}

		if inst := m.instances[containerID]; inst != nil && inst.fingerprint == fingerprint && inst.Attached() {
			m.mu.Unlock()
			return inst, nil
		}

		rec := &inflightCreate{fingerprint: fingerprint, done: make(chan struct{})}
		m.inflight[containerID] = rec

		prior := m.instances[containerID]
		delete(m.instances, containerID)
		m.mu.Unlock()

		if prior != nil {
			m.destroyInstance(ctx, prior)
		}

		inst, err := m.build(ctx, vendor, containerID, opts, fingerprint, rec)

		m.mu.Lock()
		rec.inst, rec.err = inst, err
		delete(m.inflight, containerID)
		m.mu.Unlock()
		close(rec.done)

		return inst, err
	}
}

// build runs the initialization pipeline. Credentials are resolved before any
// SDK loading so a configuration error never touches the network.
func (m *Manager) build(ctx context.Context, vendor, containerID string, opts CreateOptions, fingerprint string, rec *inflightCreate) (*Instance, error) {
	start := time.Now()

	inst := &Instance{
		ContainerID: containerID,
		Vendor:      vendor,
		MethodKind:  opts.MethodKind,
		CreatedAt:   start,
		fingerprint: fingerprint,
		state:       StateInitializing,
	}

	adapter, err := m.registry.CreateAdapter(vendor)
	if err != nil {
		return nil, m.failCreate(ctx, inst, opts, start, err)
	}
	inst.adapter = adapter

	creds, err := m.resolver.Resolve(adapter)
	if err != nil {
		return nil, m.failCreate(ctx, inst, opts, start, err)
	}

	sdk, err := m.loader.EnsureLoaded(ctx, adapter.ScriptURL(creds), adapter.GlobalName())
	if err != nil {
		return nil, m.failCreate(ctx, inst, opts, start, err)
	}

	client, err := m.factory.Client(adapter, sdk, creds)
	if err != nil {
		return nil, m.failCreate(ctx, inst, opts, start, err)
	}

	handle, err := m.factory.MethodInstance(ctx, vendor, client, opts)
	if err != nil {
		return nil, m.failCreate(ctx, inst, opts, start, err)
	}
	inst.handle = handle

	if err := m.binder.Attach(ctx, handle, containerID); err != nil {
		// The handle exists but never reached the page; release it.
		if destroyErr := handle.Destroy(); destroyErr != nil {
			logger.Warn("Failed to destroy unattached widget handle", logger.LogContext{
				Vendor:      vendor,
				ContainerID: containerID,
				Fields:      map[string]any{"error": destroyErr.Error()},
			})
		}
		return nil, m.failCreate(ctx, inst, opts, start, err)
	}

	m.mu.Lock()
	if rec.cancelled {
		m.mu.Unlock()
		inst.setState(StateDisposed)
		if err := handle.Destroy(); err != nil {
			logger.Warn("Failed to destroy widget handle after aborted create", logger.LogContext{
				Vendor:      vendor,
				ContainerID: containerID,
				Fields:      map[string]any{"error": err.Error()},
			})
		}
		m.logEvent(ctx, Event{
			Vendor:      vendor,
			ContainerID: containerID,
			MethodKind:  opts.MethodKind,
			Kind:        EventDisposed,
			State:       StateDisposed,
			Error:       ErrCreateAborted.Error(),
			DurationMs:  time.Since(start).Milliseconds(),
		})
		return nil, ErrCreateAborted
	}
	inst.setState(StateAttached)
	m.instances[containerID] = inst
	m.mu.Unlock()

	m.logEvent(ctx, Event{
		Vendor:         vendor,
		ContainerID:    containerID,
		MethodKind:     opts.MethodKind,
		Kind:           EventAttached,
		State:          StateAttached,
		DurationMs:     time.Since(start).Milliseconds(),
		OrderReference: opts.OrderReference,
	})

	return inst, nil
}

// failCreate transitions the instance to Failed and surfaces the typed error.
// No partial instance is ever registered.
func (m *Manager) failCreate(ctx context.Context, inst *Instance, opts CreateOptions, start time.Time, err error) error {
	inst.setState(StateFailed)

	m.logEvent(ctx, Event{
		Vendor:         inst.Vendor,
		ContainerID:    inst.ContainerID,
		MethodKind:     opts.MethodKind,
		Kind:           EventCreateFailed,
		State:          StateFailed,
		Error:          err.Error(),
		DurationMs:     time.Since(start).Milliseconds(),
		OrderReference: opts.OrderReference,
	})

	return err
}

// Dispose tears down the instance for the container, if any. A create still
// in flight for the container is marked cancelled and its handle is destroyed
// once the pipeline settles. Destroy-time errors are logged and swallowed;
// the hosting UI is already gone and no caller action is possible.
func (m *Manager) Dispose(ctx context.Context, containerID string) {
	m.mu.Lock()
	if rec := m.inflight[containerID]; rec != nil {
		rec.cancelled = true
	}
	inst := m.instances[containerID]
	delete(m.instances, containerID)
	m.mu.Unlock()

	if inst != nil {
		m.destroyInstance(ctx, inst)
	}
}

// DisposeAll tears down every tracked instance. Used on full page teardown.
func (m *Manager) DisposeAll(ctx context.Context) {
	m.mu.Lock()
	instances := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		instances = append(instances, inst)
	}
	m.instances = make(map[string]*Instance)
	for _, rec := range m.inflight {
		rec.cancelled = true
	}
	m.mu.Unlock()

	for _, inst := range instances {
		m.destroyInstance(ctx, inst)
	}
}

// Instance returns the live instance for a container id, if any.
func (m *Manager) Instance(containerID string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[containerID]
	return inst, ok
}

// Reset disposes everything and drops session singletons (credentials
// snapshot, cached clients). Intended for tests.
func (m *Manager) Reset(ctx context.Context) {
	m.DisposeAll(ctx)
	m.resolver.Reset()
	m.factory.Reset()
}

func (m *Manager) destroyInstance(ctx context.Context, inst *Instance) {
	inst.setState(StateDisposed)

	if inst.handle != nil {
		if err := inst.handle.Destroy(); err != nil {
			logger.Warn("Failed to destroy widget instance", logger.LogContext{
				Vendor:      inst.Vendor,
				ContainerID: inst.ContainerID,
				Fields:      map[string]any{"error": err.Error()},
			})
		}
	}

	m.logEvent(ctx, Event{
		Vendor:      inst.Vendor,
		ContainerID: inst.ContainerID,
		MethodKind:  inst.MethodKind,
		Kind:        EventDisposed,
		State:       StateDisposed,
	})
}

func (m *Manager) logEvent(ctx context.Context, event Event) {
	if m.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := m.events.LogEvent(ctx, event); err != nil {
		logger.Warn("Failed to log widget event", logger.LogContext{
			Vendor:      event.Vendor,
			ContainerID: event.ContainerID,
			Fields:      map[string]any{"error": err.Error()},
		})
	}
}

func createFingerprint(vendor string, opts CreateOptions) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", vendor, opts.MethodKind, opts.Amount, opts.Currency, opts.OrderReference)
}

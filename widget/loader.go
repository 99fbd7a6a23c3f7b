package widget

import (
	"context"
	"errors"
	"sync"
)

// LoadState tracks the lifecycle of one vendor script on the page.
type LoadState int

const (
	LoadStateNotLoaded LoadState = iota
	LoadStateLoading
	LoadStateLoaded
)

// ScriptLoader ensures each vendor script is injected into the page at most
// once. Concurrent callers for the same URL share a single in-flight load; a
// failed load resets the state so a later attempt can retry (vendor CDN
// outage recovery).
type ScriptLoader struct {
	host Host

	mu    sync.Mutex
	loads map[string]*scriptLoad
}

type scriptLoad struct {
	state LoadState
	done  chan struct{}
	err   error
}

// NewScriptLoader creates a loader bound to the given host.
func NewScriptLoader(host Host) *ScriptLoader {
	return &ScriptLoader{
		host:  host,
		loads: make(map[string]*scriptLoad),
	}
}

// EnsureLoaded resolves when the vendor global is available, injecting the
// script if needed. All concurrent callers for one URL await the same load.
func (l *ScriptLoader) EnsureLoaded(ctx context.Context, url, globalName string) (any, error) {
	for {
		// Fast path: global already present, nothing to inject.
		if sdk, ok := l.host.Global(globalName); ok {
			l.markLoaded(url)
			return sdk, nil
		}

		l.mu.Lock()
		ld := l.loads[url]

		if ld != nil && ld.state == LoadStateLoading {
			done := ld.done
			l.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-done:
			}
			// Re-check the global; a failed load falls through to retry
			// on the next caller, not here.
			if sdk, ok := l.host.Global(globalName); ok {
				return sdk, nil
			}
			l.mu.Lock()
			err := ld.err
			l.mu.Unlock()
			if err == nil {
				err = &SDKLoadError{URL: url, Err: errors.New("global object missing after load")}
			}
			return nil, err
		}

		// Loaded state without a visible global means the page lost the
		// object; reset and re-attempt.
		ld = &scriptLoad{state: LoadStateLoading, done: make(chan struct{})}
		l.loads[url] = ld
		l.mu.Unlock()

		err := l.host.InjectScript(ctx, url)
		if err == nil {
			if _, ok := l.host.Global(globalName); !ok {
				err = errors.New("script loaded but global object is absent")
			}
		}

		l.mu.Lock()
		if err != nil {
			ld.state = LoadStateNotLoaded
			ld.err = &SDKLoadError{URL: url, Err: err}
		} else {
			ld.state = LoadStateLoaded
		}
		loadErr := ld.err
		l.mu.Unlock()
		close(ld.done)

		if loadErr != nil {
			return nil, loadErr
		}

		sdk, ok := l.host.Global(globalName)
		if !ok {
			return nil, &SDKLoadError{URL: url, Err: errors.New("global object missing after load")}
		}
		return sdk, nil
	}
}

// State reports the load state for a script URL.
func (l *ScriptLoader) State(url string) LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ld, ok := l.loads[url]; ok {
		return ld.state
	}
	return LoadStateNotLoaded
}

// markLoaded records that the global is present without an injection, e.g.
// when the page shipped the script itself.
func (l *ScriptLoader) markLoaded(url string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ld, ok := l.loads[url]; ok && ld.state == LoadStateLoading {
		// An in-flight load owns the record; it will settle it.
		return
	}
	l.loads[url] = &scriptLoad{state: LoadStateLoaded}
}

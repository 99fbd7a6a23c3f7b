package widget

import (
	"sync"
)

// Resolver resolves raw vendor configuration into validated Credentials and
// freezes one snapshot per vendor per session. Resolution is a pure function
// of the configuration input; nothing here touches the network or the SDK.
type Resolver struct {
	source CredentialSource

	mu       sync.Mutex
	resolved map[string]Credentials
}

// NewResolver creates a resolver backed by the given credential source.
func NewResolver(source CredentialSource) *Resolver {
	return &Resolver{
		source:   source,
		resolved: make(map[string]Credentials),
	}
}

// Resolve returns the frozen credentials snapshot for the adapter's vendor,
// computing and validating it on first use. Missing or malformed
// configuration is a hard CredentialError; the resolver never downgrades the
// environment to compensate for absent production values.
func (r *Resolver) Resolve(adapter Adapter) (Credentials, error) {
	name := adapter.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if creds, ok := r.resolved[name]; ok {
		return creds, nil
	}

	conf, err := r.source.GetConfig(name)
	if err != nil {
		return Credentials{}, &CredentialError{Vendor: name, Reason: "no configuration available: " + err.Error()}
	}

	environment := conf["environment"]
	if environment == "" {
		return Credentials{}, &CredentialError{Vendor: name, Field: "environment", Reason: "required field is missing"}
	}

	if err := ValidateConfigFields(name, conf, adapter.GetRequiredConfig(environment)); err != nil {
		return Credentials{}, err
	}

	creds, err := adapter.ParseCredentials(conf)
	if err != nil {
		return Credentials{}, err
	}
	creds.Vendor = name
	creds.Extra = copyConfig(creds.Extra)

	r.resolved[name] = creds
	return creds, nil
}

// Reset drops all frozen snapshots. Intended for tests and full teardown.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.resolved = make(map[string]Credentials)
	r.mu.Unlock()
}

func copyConfig(conf map[string]string) map[string]string {
	if conf == nil {
		return nil
	}
	out := make(map[string]string, len(conf))
	for k, v := range conf {
		out[k] = v
	}
	return out
}

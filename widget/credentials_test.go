package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverResolvesAndFreezes(t *testing.T) {
	source := sandboxSource()
	resolver := NewResolver(source)
	adapter := &fakeAdapter{client: &fakeClient{}}

	creds, err := resolver.Resolve(adapter)
	require.NoError(t, err)
	assert.Equal(t, "fakepay", creds.Vendor)
	assert.Equal(t, "fp-sandbox-app", creds.ApplicationID)
	assert.Equal(t, EnvironmentSandbox, creds.Environment)
	assert.False(t, creds.IsProduction())

	// Mutating the source after the first resolve changes nothing: the
	// snapshot is frozen for the session.
	source.mu.Lock()
	source.configs["fakepay"]["applicationId"] = "fp-other-app"
	source.mu.Unlock()

	again, err := resolver.Resolve(adapter)
	require.NoError(t, err)
	assert.Equal(t, "fp-sandbox-app", again.ApplicationID)
	assert.Equal(t, 1, source.calls)
}

func TestResolverMissingConfiguration(t *testing.T) {
	resolver := NewResolver(&mapSource{configs: map[string]map[string]string{}})
	adapter := &fakeAdapter{client: &fakeClient{}}

	_, err := resolver.Resolve(adapter)
	require.Error(t, err)

	var credErr *CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "fakepay", credErr.Vendor)
	assert.Contains(t, credErr.Reason, "no configuration available")
}

func TestResolverMissingEnvironment(t *testing.T) {
	resolver := NewResolver(&mapSource{configs: map[string]map[string]string{
		"fakepay": {"applicationId": "fp-app"},
	}})
	adapter := &fakeAdapter{client: &fakeClient{}}

	_, err := resolver.Resolve(adapter)

	var credErr *CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "environment", credErr.Field)
}

func TestResolverFieldValidation(t *testing.T) {
	resolver := NewResolver(&mapSource{configs: map[string]map[string]string{
		"fakepay": {
			"applicationId": "ab", // below MinLength
			"environment":   "sandbox",
		},
	}})
	adapter := &fakeAdapter{client: &fakeClient{}}

	_, err := resolver.Resolve(adapter)

	var credErr *CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "applicationId", credErr.Field)
}

func TestResolverInvalidEnvironmentIsHardError(t *testing.T) {
	resolver := NewResolver(&mapSource{configs: map[string]map[string]string{
		"fakepay": {
			"applicationId": "fp-app",
			"environment":   "staging",
		},
	}})
	adapter := &fakeAdapter{client: &fakeClient{}}

	// No silent downgrade to sandbox
	_, err := resolver.Resolve(adapter)

	var credErr *CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "environment", credErr.Field)
}

func TestResolverReset(t *testing.T) {
	source := sandboxSource()
	resolver := NewResolver(source)
	adapter := &fakeAdapter{client: &fakeClient{}}

	_, err := resolver.Resolve(adapter)
	require.NoError(t, err)

	resolver.Reset()

	_, err = resolver.Resolve(adapter)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

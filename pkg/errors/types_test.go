package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerFailedWrapsCause(t *testing.T) {
	cause := errors.New("engine offline")
	err := HandlerFailed("conduct_research", cause)

	assert.Equal(t, CodeHandlerFailed, err.Code())
	assert.Equal(t, CategoryHandler, err.Category())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "engine offline")
}

func TestWithCauseTagDoesNotMutateOriginal(t *testing.T) {
	base := HandlerFailed("x", errors.New("boom"))
	tagged := base.WithCauseTag("dependency_missing")

	assert.Empty(t, base.CauseTag())
	assert.Equal(t, "dependency_missing", tagged.CauseTag())
}

func TestDuplicateNameIsConfigCategory(t *testing.T) {
	err := DuplicateName("tool", "echo")
	assert.Equal(t, CategoryConfig, err.Category())
	assert.Equal(t, SeverityCritical, err.Severity())
	assert.Contains(t, err.Error(), "echo")
}

func TestAsErrorExtractsStructured(t *testing.T) {
	structured := CapabilityNotFound("tool", "missing")
	plain := errors.New("plain")

	got, ok := AsError(structured)
	require.True(t, ok)
	assert.Equal(t, CodeCapabilityNotFound, got.Code())

	_, ok = AsError(plain)
	assert.False(t, ok)

	_, ok = AsError(nil)
	assert.False(t, ok)
}

func TestIsCategory(t *testing.T) {
	err := CallTimeout("deep_research", "30s")
	assert.True(t, IsCategory(err, CategoryTimeout))
	assert.False(t, IsCategory(err, CategoryHandler))
	assert.False(t, IsCategory(errors.New("plain"), CategoryTimeout))
}

func TestToJSONRoundTrips(t *testing.T) {
	err := HandlerPanic("tool", "nil map write").WithContext(&Context{
		Method:    "tools/call",
		Component: "Dispatcher",
	})

	data, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "panic", decoded["cause"])
	assert.Equal(t, string(CategoryHandler), decoded["category"])
}

package testkit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code.
func AssertStatusCode(t *testing.T, scenario *Scenario, got int) {
	t.Helper()
	assert.Equal(t, scenario.ExpectedCode, got,
		"[%s] HTTP status code mismatch", scenario.Name)
}

// AssertDuration checks elapsed against the scenario's latency bounds.
func AssertDuration(t *testing.T, scenario *Scenario, elapsed time.Duration) {
	t.Helper()
	assert.True(t, elapsed >= scenario.MinDuration(),
		"[%s] answered after %s, want at least %s", scenario.Name, elapsed, scenario.MinDuration())
	if upper := scenario.MaxDuration(); upper > 0 {
		assert.True(t, elapsed <= upper,
			"[%s] answered after %s, want at most %s", scenario.Name, elapsed, upper)
	}
}

// AssertBodyContains checks the body for the scenario's substring.
func AssertBodyContains(t *testing.T, scenario *Scenario, body string) {
	t.Helper()
	assert.Contains(t, body, scenario.ResponseContains,
		"[%s] response body", scenario.Name)
}

// AssertJSONBody compares bodies after decoding, so key order and whitespace
// never matter.
func AssertJSONBody(t *testing.T, scenario *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var expVal, actVal interface{}

	require.NoError(t,
		json.Unmarshal(expected, &expVal),
		"[%s] expected response file is not valid JSON", scenario.Name,
	)

	if !assert.NoError(t,
		json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", scenario.Name, string(actual),
	) {
		return
	}

	assert.Equal(t, expVal, actVal,
		"[%s] response body mismatch", scenario.Name)
}

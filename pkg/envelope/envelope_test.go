package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataEnvelope_RoundTrip(t *testing.T) {
	env := NewDataEnvelope("sonar", "1.0.0", "tok", TypeSample, SampleAttributes{
		Time: "2025-02-26T11:16:28+00:00", Cluster: "fox", Node: "c1-5",
	})
	b, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Contains(t, decoded, "data")
	assert.NotContains(t, decoded, "errors")
}

func TestNewErrorEnvelope_HasNonEmptyErrors(t *testing.T) {
	env := NewErrorEnvelope("sonar", "1.0.0", "", "meminfo missing", "2025-02-26T11:16:28+00:00")
	assert.Nil(t, env.Data)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "meminfo missing", env.Errors[0].Detail)
}

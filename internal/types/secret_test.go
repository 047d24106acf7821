package types

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretString_StringRedacts(t *testing.T) {
	s := SecretString("postgres://user:hunter2@db:5432/bookbliss")

	assert.Equal(t, "***REDACTED***", s.String())
	assert.Equal(t, "***REDACTED***", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%s", s), "hunter2")
}

func TestSecretString_MarshalJSONRedacts(t *testing.T) {
	payload := struct {
		URL SecretString `json:"url"`
	}{URL: "postgres://user:hunter2@db:5432/bookbliss"}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"***REDACTED***"}`, string(data))
}

func TestSecretString_Unmask(t *testing.T) {
	s := SecretString("raw-value")
	assert.Equal(t, "raw-value", s.Unmask())
}

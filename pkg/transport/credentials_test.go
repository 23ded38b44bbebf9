package transport

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCredentials_Validation(t *testing.T) {
	_, err := NewCredentials("", "secret")
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewCredentials("key", "   ")
	require.ErrorIs(t, err, ErrConfiguration)

	creds, err := NewCredentials("  key  ", "secret")
	require.NoError(t, err)
	require.Equal(t, "key", creds.APIKey())
}

func TestCredentials_NeverPrintSecret(t *testing.T) {
	creds, err := NewCredentials(docKey, docSecret)
	require.NoError(t, err)

	for _, rendered := range []string{
		fmt.Sprint(creds),
		fmt.Sprintf("%v", *creds),
		fmt.Sprintf("%+v", creds),
		fmt.Sprintf("%#v", creds),
	} {
		require.NotContains(t, rendered, docSecret)
		require.NotContains(t, rendered, docKey)
	}

	raw, err := json.Marshal(struct{ Creds *Credentials }{creds})
	require.NoError(t, err)
	require.NotContains(t, string(raw), docSecret)
}

func TestCredentials_RedactedForEveryVerb(t *testing.T) {
	creds, err := NewCredentials(docKey, docSecret)
	require.NoError(t, err)

	for _, verb := range []string{"%v", "%+v", "%#v", "%s", "%q", "%x", "%X", "%d", "%t", "%p", "%10.3s"} {
		for _, arg := range []any{creds, *creds, []*Credentials{creds}, struct{ C Credentials }{*creds}} {
			rendered := fmt.Sprintf(verb, arg)
			require.NotContainsf(t, rendered, docSecret, "verb %s on %T", verb, arg)
			require.NotContainsf(t, rendered, hex.EncodeToString([]byte(docSecret)), "verb %s on %T", verb, arg)
			require.NotContainsf(t, rendered, docKey, "verb %s on %T", verb, arg)
		}
	}
}

func TestCredentials_NilAPIKey(t *testing.T) {
	var creds *Credentials
	require.Empty(t, creds.APIKey())
}

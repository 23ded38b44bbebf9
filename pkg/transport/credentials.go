package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Credentials holds the API key pair for one client. The zero value is not
// usable; construct with NewCredentials. Fields are unexported so a
// Credentials value cannot be mutated after construction.
type Credentials struct {
	apiKey    string
	apiSecret string
}

// NewCredentials validates and stores an API key pair.
func NewCredentials(apiKey, apiSecret string) (*Credentials, error) {
	apiKey = strings.TrimSpace(apiKey)
	apiSecret = strings.TrimSpace(apiSecret)
	if apiKey == "" {
		return nil, &ConfigurationError{Op: "credentials", Reason: "api key is empty"}
	}
	if apiSecret == "" {
		return nil, &ConfigurationError{Op: "credentials", Reason: "api secret is empty"}
	}
	return &Credentials{apiKey: apiKey, apiSecret: apiSecret}, nil
}

// APIKey returns the public half of the pair, sent in the X-MBX-APIKEY header.
func (c *Credentials) APIKey() string {
	if c == nil {
		return ""
	}
	return c.apiKey
}

// sign returns the lowercase hex HMAC-SHA256 of payload keyed with the secret.
func (c *Credentials) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// String never reveals the secret.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials(key=%s, secret=<redacted>)", maskKey(c.apiKey))
}

func (c Credentials) GoString() string {
	return c.String()
}

// Format renders the redacted form for every verb, so %d or %x cannot
// reach the raw fields.
func (c Credentials) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, c.String())
}

func (c Credentials) MarshalJSON() ([]byte, error) {
	return []byte(`"<redacted>"`), nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

package transport

import (
	"strconv"
	"strings"
)

// signQuery appends recvWindow (when positive), timestamp and signature to
// the canonical query in that order. The signature covers every byte that
// precedes "&signature=".
func signQuery(creds *Credentials, query string, recvWindow, timestamp int64) (string, error) {
	if creds == nil {
		return "", &ConfigurationError{Op: "sign", Reason: "signed request requires credentials"}
	}
	if timestamp <= 0 {
		return "", &ConfigurationError{Op: "sign", Reason: "timestamp must be positive"}
	}

	var b strings.Builder
	b.Grow(len(query) + 96)
	b.WriteString(query)
	if recvWindow > 0 {
		appendPair(&b, "recvWindow", strconv.FormatInt(recvWindow, 10))
	}
	appendPair(&b, "timestamp", strconv.FormatInt(timestamp, 10))

	payload := b.String()
	appendPair(&b, "signature", creds.sign(payload))
	return b.String(), nil
}

func appendPair(b *strings.Builder, key, value string) {
	if b.Len() > 0 {
		b.WriteByte('&')
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
}

// Sign is the exported form of the signing pipeline, for callers that build
// requests outside Endpoint (for example a websocket API). query must already
// be canonical.
func Sign(creds *Credentials, query string, recvWindow, timestamp int64) (string, error) {
	return signQuery(creds, query, recvWindow, timestamp)
}

package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// RequiredFielder is implemented by result types whose JSON keys must be
// present. Missing keys are a DecodeError instead of zero values.
type RequiredFielder interface {
	RequiredFields() []string
}

// Empty is the result type for endpoints that answer with {} or nothing.
type Empty struct{}

var (
	requiredFielderType = reflect.TypeOf((*RequiredFielder)(nil)).Elem()
	unmarshalerType     = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
)

// decodeResponse maps a raw response onto R or one of the error types.
func decodeResponse[R any](resp *Response) (R, error) {
	var out R
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, decodeExchangeError(resp)
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		if _, ok := any(out).(Empty); ok {
			return out, nil
		}
		return out, &DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: errors.New("empty body")}
	}
	if !gjson.ValidBytes(body) {
		return out, &DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: errors.New("invalid json")}
	}
	if err := checkShape(body, reflect.TypeOf(&out).Elem()); err != nil {
		return out, &DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	return out, nil
}

func decodeExchangeError(resp *Response) error {
	envelope := gjson.ParseBytes(resp.Body)
	code := envelope.Get("code")
	msg := envelope.Get("msg")
	if !gjson.ValidBytes(resp.Body) || !envelope.IsObject() || code.Type != gjson.Number || msg.Type != gjson.String {
		return &DecodeError{
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			Err:        fmt.Errorf("unrecognised error envelope for http status %d", resp.StatusCode),
		}
	}
	return &ExchangeError{
		StatusCode: resp.StatusCode,
		Code:       int(code.Int()),
		Message:    msg.String(),
		RetryAfter: retryAfter(resp.Header),
	}
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// checkShape walks body against t. Structs need a JSON object (unless they
// decode themselves) with every required key present and non-null; slices
// need an array, checked per element. Pointers are followed.
func checkShape(body []byte, t reflect.Type) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	doc := gjson.ParseBytes(body)

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 || selfDecoding(t) {
			return nil
		}
		if !doc.IsArray() {
			return fmt.Errorf("expected JSON array, got %s", describe(doc))
		}
		var err error
		idx := 0
		doc.ForEach(func(_, value gjson.Result) bool {
			if err = checkShape([]byte(value.Raw), t.Elem()); err != nil {
				err = fmt.Errorf("element %d: %w", idx, err)
				return false
			}
			idx++
			return true
		})
		return err

	case reflect.Struct:
		if selfDecoding(t) {
			if doc.Type == gjson.Null {
				return errors.New("unexpected null")
			}
			return nil
		}
		if !doc.IsObject() {
			return fmt.Errorf("expected JSON object, got %s", describe(doc))
		}
		if !needsCheck(t) {
			return nil
		}
		fields := reflect.New(t).Interface().(RequiredFielder).RequiredFields()
		for _, path := range fields {
			switch v := doc.Get(path); {
			case !v.Exists():
				return fmt.Errorf("missing required field %q", path)
			case v.Type == gjson.Null:
				return fmt.Errorf("required field %q is null", path)
			}
		}
	}
	return nil
}

func needsCheck(t reflect.Type) bool {
	return t.Implements(requiredFielderType) || reflect.PointerTo(t).Implements(requiredFielderType)
}

// selfDecoding reports types with their own UnmarshalJSON, such as
// positional arrays decoded into structs.
func selfDecoding(t reflect.Type) bool {
	return t.Implements(unmarshalerType) || reflect.PointerTo(t).Implements(unmarshalerType)
}

func describe(doc gjson.Result) string {
	switch {
	case doc.IsObject():
		return "object"
	case doc.IsArray():
		return "array"
	default:
		return strings.ToLower(doc.Type.String())
	}
}

package transport

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type param struct {
	key   string
	value string
}

// Params is an ordered parameter list. Keys are emitted in the order they were
// first set; setting an existing key replaces its value in place.
type Params struct {
	pairs []param
	err   error
}

// NewParams returns an empty parameter list.
func NewParams() *Params {
	return &Params{}
}

// Set appends key=value. Absent values (nil, nil pointers) are skipped so the
// key is not sent at all. Unsupported value types are recorded and surface
// from Encode.
func (p *Params) Set(key string, value any) *Params {
	text, ok, err := formatValue(reflect.ValueOf(value))
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("%w: %s: %v", ErrInvalidParams, key, err)
		}
		return p
	}
	if !ok {
		return p
	}
	for i := range p.pairs {
		if p.pairs[i].key == key {
			p.pairs[i].value = text
			return p
		}
	}
	p.pairs = append(p.pairs, param{key: key, value: text})
	return p
}

// Len reports how many keys will be encoded.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pairs)
}

// Encode renders the canonical query string.
func (p *Params) Encode() (string, error) {
	if p == nil {
		return "", nil
	}
	if p.err != nil {
		return "", p.err
	}
	var b strings.Builder
	for i, kv := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.value))
	}
	return b.String(), nil
}

// EncodeParams turns a parameter object into its canonical query string.
// Accepted inputs are nil, *Params, Params, and structs (or pointers to
// structs) whose fields carry `param:"name[,omitempty]"` tags. Struct fields
// are emitted in declaration order.
func EncodeParams(v any) (string, error) {
	switch p := v.(type) {
	case nil:
		return "", nil
	case *Params:
		return p.Encode()
	case Params:
		return p.Encode()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", fmt.Errorf("%w: unsupported parameter object %T", ErrInvalidParams, v)
	}
	params, err := structParams(rv)
	if err != nil {
		return "", err
	}
	return params.Encode()
}

func structParams(rv reflect.Value) (*Params, error) {
	params := NewParams()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag, ok := field.Tag.Lookup("param")
		if !ok || tag == "-" || !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}
		fv := rv.Field(i)
		if opts == "omitempty" && fv.IsZero() {
			continue
		}
		text, present, err := formatValue(fv)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidParams, field.Name, err)
		}
		if present {
			params.pairs = append(params.pairs, param{key: name, value: text})
		}
	}
	return params, nil
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
	stringerTyp = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// formatValue returns the canonical text for v and whether it is present.
func formatValue(v reflect.Value) (string, bool, error) {
	if !v.IsValid() {
		return "", false, nil
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false, nil
		}
		v = v.Elem()
	}

	switch v.Type() {
	case decimalType:
		return v.Interface().(decimal.Decimal).String(), true, nil
	case timeType:
		return strconv.FormatInt(v.Interface().(time.Time).UnixMilli(), 10), true, nil
	}

	switch v.Kind() {
	case reflect.String:
		if v.Type().Implements(stringerTyp) {
			return v.Interface().(fmt.Stringer).String(), true, nil
		}
		return v.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	}
	if v.Type().Implements(stringerTyp) {
		return v.Interface().(fmt.Stringer).String(), true, nil
	}
	return "", false, fmt.Errorf("unsupported kind %s (%s)", v.Kind(), v.Type())
}

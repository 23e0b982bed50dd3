package schema

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Converter transforms a raw database value into an application-level value
// and back. Decode must accept whatever the driver produces for the kind
// (int64, float64, []byte, string, time.Time, bool or nil); Encode must
// return something every wired driver can bind.
type Converter interface {
	Decode(raw any) (any, error)
	Encode(v any) (any, error)
}

// ConverterRegistry maps field kinds to converters. The zero set covers all
// built-in kinds; RegisterKind overrides one, mirroring how custom type
// mappings are layered over defaults.
type ConverterRegistry struct {
	mu     sync.RWMutex
	byKind map[Kind]Converter
}

// NewConverterRegistry returns a registry preloaded with the built-in
// converters.
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{byKind: make(map[Kind]Converter)}
	r.byKind[KindString] = stringConverter{}
	r.byKind[KindInt] = intConverter{}
	r.byKind[KindFloat] = floatConverter{}
	r.byKind[KindBool] = boolConverter{}
	r.byKind[KindTime] = timeConverter{layout: "2006-01-02 15:04:05"}
	r.byKind[KindDate] = timeConverter{layout: "2006-01-02"}
	r.byKind[KindEnum] = stringConverter{}
	r.byKind[KindSet] = setConverter{}
	r.byKind[KindBytes] = bytesConverter{}
	return r
}

// RegisterKind replaces the converter for a kind.
func (r *ConverterRegistry) RegisterKind(k Kind, c Converter) {
	r.mu.Lock()
	r.byKind[k] = c
	r.mu.Unlock()
}

// For returns the converter serving the given field.
func (r *ConverterRegistry) For(f *Field) Converter {
	r.mu.RLock()
	c, ok := r.byKind[f.Kind]
	r.mu.RUnlock()
	if !ok {
		return stringConverter{}
	}
	return c
}

// ZeroValue returns the type-appropriate empty value for a kind, used when a
// non-nullable field has no declared default.
func ZeroValue(k Kind) any {
	switch k {
	case KindInt:
		return int64(0)
	case KindFloat:
		return float64(0)
	case KindBool:
		return false
	case KindTime, KindDate:
		return time.Time{}
	case KindSet:
		return []string(nil)
	case KindBytes:
		return []byte(nil)
	default:
		return ""
	}
}

// DefaultConverters is the registry used when none is supplied explicitly.
var DefaultConverters = NewConverterRegistry()

type stringConverter struct{}

func (stringConverter) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (stringConverter) Encode(v any) (any, error) { return v, nil }

type intConverter struct{}

func (intConverter) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return nil, fmt.Errorf("schema: cannot convert %T to int", raw)
	}
}

func (intConverter) Encode(v any) (any, error) { return v, nil }

type floatConverter struct{}

func (floatConverter) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return nil, fmt.Errorf("schema: cannot convert %T to float", raw)
	}
}

func (floatConverter) Encode(v any) (any, error) { return v, nil }

type boolConverter struct{}

func (boolConverter) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	default:
		return nil, fmt.Errorf("schema: cannot convert %T to bool", raw)
	}
}

func (boolConverter) Encode(v any) (any, error) { return v, nil }

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "on":
		return true, nil
	case "0", "f", "false", "no", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("schema: invalid boolean literal %q", s)
}

// timeConverter parses the textual forms drivers emit for temporal columns.
// Values that already arrive as time.Time pass through untouched.
type timeConverter struct {
	layout string
}

func (c timeConverter) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v, nil
	case []byte:
		return c.parse(string(v))
	case string:
		return c.parse(v)
	default:
		return nil, fmt.Errorf("schema: cannot convert %T to time", raw)
	}
}

func (c timeConverter) parse(s string) (any, error) {
	// Schema defaults like CURRENT_TIMESTAMP are not literal values.
	switch strings.ToUpper(s) {
	case "CURRENT_TIMESTAMP", "NOW()", "CURRENT_TIMESTAMP()":
		return nil, fmt.Errorf("schema: non-literal time default %q", s)
	}
	for _, layout := range []string{c.layout, time.RFC3339, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("schema: cannot parse time %q", s)
}

func (c timeConverter) Encode(v any) (any, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	return v, nil
}

// setConverter maps MySQL SET columns between their comma-joined storage
// form and string slices.
type setConverter struct{}

func (setConverter) Decode(raw any) (any, error) {
	var s string
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, fmt.Errorf("schema: cannot convert %T to set", raw)
	}
	if s == "" {
		return []string{}, nil
	}
	return strings.Split(s, ","), nil
}

func (setConverter) Encode(v any) (any, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return strings.Join(m, ","), nil
	case string:
		return m, nil
	default:
		return nil, fmt.Errorf("schema: cannot encode %T as set", v)
	}
}

type bytesConverter struct{}

func (bytesConverter) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("schema: cannot convert %T to bytes", raw)
	}
}

func (bytesConverter) Encode(v any) (any, error) { return v, nil }

package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.Config{UseNumber: true, SortMapKeys: true}.Froze()

// ErrInvalidArgument is returned when an argument cannot be coerced to the
// declared parameter type or a required one is missing.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError names the parameter that failed to bind.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string { return e.Param + ": " + e.Reason }
func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// ParamType is the JSON-schema type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// Param describes one tool argument.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
}

// Args are the arguments of one call after coercion: string parameters hold
// string, integer parameters int, number parameters float64 and boolean
// parameters bool.
type Args map[string]any

// DecodeArgs parses a JSON object of arguments.
func DecodeArgs(raw []byte) (Args, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Args{}, nil
	}
	var m map[string]any
	if err := jsonAPI.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return Args(m), nil
}

func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// bind fills defaults, checks required parameters and coerces every declared
// parameter to its type. Undeclared arguments are dropped.
func bind(params []Param, in Args) (Args, error) {
	out := make(Args, len(params))
	for _, p := range params {
		v, ok := in[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, &ArgumentError{Param: p.Name, Reason: "missing required argument"}
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		c, err := coerce(p.Type, v)
		if err != nil {
			return nil, &ArgumentError{Param: p.Name, Reason: err.Error()}
		}
		out[p.Name] = c
	}
	return out, nil
}

func coerce(t ParamType, v any) (any, error) {
	switch t {
	case TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		case float64, float32, int, int64, bool:
			return fmt.Sprint(x), nil
		}
	case TypeInteger:
		switch x := v.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case float64:
			if x != math.Trunc(x) || math.Abs(x) >= 1<<63 {
				return nil, fmt.Errorf("%v is not a whole number", x)
			}
			return int(x), nil
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return int(n), nil
			}
			return coerce(t, mustFloat(x))
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("%q is not a whole number", x)
			}
			return n, nil
		}
	case TypeNumber:
		var f float64
		switch x := v.(type) {
		case float64:
			f = x
		case int:
			f = float64(x)
		case int64:
			f = float64(x)
		case json.Number:
			n, err := x.Float64()
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", x.String())
			}
			f = n
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", x)
			}
			f = n
		default:
			return nil, fmt.Errorf("expected %s, got %T", t, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v is not a finite number", v)
		}
		return f, nil
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("%q is not a boolean", x)
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %T", t, v)
}

// mustFloat returns NaN for unparseable numbers so coerce rejects them.
func mustFloat(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return math.NaN()
	}
	return f
}

// redacted renders args for the journal with long strings (screenshots)
// replaced by their length.
func redacted(args Args) string {
	const maxLen = 256
	clean := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > maxLen {
			v = fmt.Sprintf("<%d bytes>", len(s))
		}
		clean[k] = v
	}
	b, err := jsonAPI.Marshal(clean)
	if err != nil {
		return "{}"
	}
	return string(b)
}

package rule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the value kinds a form field can hold.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindText
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Value is a closed sum over the supported field value kinds. The zero Value
// is absent.
type Value struct {
	kind Kind
	text string
	num  float64
	b    bool
}

func Text(s string) Value    { return Value{kind: KindText, text: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Null() Value            { return Value{kind: KindNull} }
func Absent() Value          { return Value{} }

func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the field has not been filled at all.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsEmpty is true for absent, null and whitespace-only text values.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindAbsent, KindNull:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	default:
		return false
	}
}

// AsText returns the text payload; ok is false for non-text kinds.
func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// AsNumber returns the numeric payload. Text that parses as a float is
// accepted, since form inputs often arrive as strings.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// String renders the value for display in messages.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Interface returns the value as a plain Go value (nil for absent and null).
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Equal compares two values. Numbers compare numerically even when one side
// is numeric text; text comparison honours caseSensitive.
func (v Value) Equal(other Value, caseSensitive bool) bool {
	if v.kind == KindNumber || other.kind == KindNumber {
		a, okA := v.AsNumber()
		b, okB := other.AsNumber()
		return okA && okB && a == b
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		if caseSensitive {
			return v.text == other.text
		}
		return strings.EqualFold(v.text, other.text)
	case KindBool:
		return v.b == other.b
	default:
		return true
	}
}

// FromInterface converts a decoded JSON/YAML scalar into a Value.
func FromInterface(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return Text(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", x.String(), err)
		}
		return Number(n), nil
	case Value:
		return x, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

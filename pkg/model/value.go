package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	valueAbsent valueKind = iota
	valueString
	valueBool
)

// Value is the scalar held by a ConfigItem. The zero Value is absent, which is
// a valid state (for example an unset secret) and encodes as JSON null.
// Values are comparable with ==.
type Value struct {
	kind valueKind
	str  string
	b    bool
}

// Absent is the absent value.
var Absent = Value{}

// StringValue returns a present string value.
func StringValue(s string) Value {
	return Value{kind: valueString, str: s}
}

// BoolValue returns a present boolean value.
func BoolValue(b bool) Value {
	return Value{kind: valueBool, b: b}
}

// IsAbsent reports whether no value is set.
func (v Value) IsAbsent() bool {
	return v.kind == valueAbsent
}

// IsBool reports whether the value holds a native boolean.
func (v Value) IsBool() bool {
	return v.kind == valueBool
}

// String returns the value's string form, or "" when absent.
func (v Value) String() string {
	switch v.kind {
	case valueString:
		return v.str
	case valueBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Bool reads the value leniently: a native boolean is returned as is, the
// strings "true" and "false" parse case-insensitively, and anything else
// (including absent) is false.
func (v Value) Bool() bool {
	switch v.kind {
	case valueBool:
		return v.b
	case valueString:
		return strings.EqualFold(strings.TrimSpace(v.str), "true")
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueString:
		return json.Marshal(v.str)
	case valueBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers keep their literal text
// as a string value; objects and arrays decay to absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Absent
		return nil
	}

	switch data[0] {
	case 'n':
		*v = Absent
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case '{', '[':
		*v = Absent
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = StringValue(n.String())
		return nil
	}
}

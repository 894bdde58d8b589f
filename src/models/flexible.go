package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Flag is a bool-like field decoded from TradingView alert payloads, which
// deliver booleans as true/false, 0/1, or string tokens depending on how the
// alert template was written. Unrecognized tokens and empty strings leave the
// flag unset so the caller's default applies.
type Flag struct {
	Known bool
	Value bool
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("Flag.UnmarshalJSON: %w", err)
	}

	switch t := v.(type) {
	case nil:
		f.Known = false
	case bool:
		f.Known = true
		f.Value = t
	case float64:
		f.Known = true
		f.Value = t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y", "on":
			f.Known = true
			f.Value = true
		case "false", "0", "no", "n", "off":
			f.Known = true
			f.Value = false
		default:
			f.Known = false
		}
	default:
		f.Known = false
	}

	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.Known {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// BoolOr returns the flag's value, or def if the field was absent, null, or
// not a recognizable boolean token.
func (f Flag) BoolOr(def bool) bool {
	if !f.Known {
		return def
	}
	return f.Value
}

// Decimal is a numeric field that accepts a JSON number or a numeric string.
// Null and empty string both mean unset.
type Decimal struct {
	Known bool
	Value float64
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("Decimal.UnmarshalJSON: %w", err)
	}

	switch t := v.(type) {
	case nil:
		d.Known = false
	case float64:
		d.Known = true
		d.Value = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			d.Known = false
			return nil
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("Decimal.UnmarshalJSON: failed to parse %q: %w", t, err)
		}

		d.Known = true
		d.Value = f
	default:
		return fmt.Errorf("Decimal.UnmarshalJSON: unsupported type %T", v)
	}

	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	if !d.Known {
		return []byte("null"), nil
	}
	return json.Marshal(d.Value)
}

// FloatOr returns the value, or def when unset.
func (d Decimal) FloatOr(def float64) float64 {
	if !d.Known {
		return def
	}
	return d.Value
}

// Ptr returns the value as a pointer, or nil when unset.
func (d Decimal) Ptr() *float64 {
	if !d.Known {
		return nil
	}
	v := d.Value
	return &v
}

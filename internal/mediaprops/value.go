package mediaprops

import (
	"fmt"
	"math"
	"strconv"
)

// coerce checks v against the kind of d and returns it in the form the
// engine accessor takes: string for KindString, uint32 for KindUint.
func coerce(d *Descriptor, v any) (any, error) {
	switch d.kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(d, v)
		}
		return s, nil

	case KindUint:
		var n int64
		switch x := v.(type) {
		case int:
			n = int64(x)
		case int8:
			n = int64(x)
		case int16:
			n = int64(x)
		case int32:
			n = int64(x)
		case int64:
			n = x
		case uint:
			if uint64(x) > math.MaxUint32 {
				return nil, tooLarge(d, v)
			}
			n = int64(x)
		case uint8:
			n = int64(x)
		case uint16:
			n = int64(x)
		case uint32:
			n = int64(x)
		case uint64:
			if x > math.MaxUint32 {
				return nil, tooLarge(d, v)
			}
			n = int64(x)
		default:
			return nil, mismatch(d, v)
		}
		if n < 0 {
			return nil, &InvalidArgumentError{Property: d, Value: v, Reason: "a negative value"}
		}
		if n > math.MaxUint32 {
			return nil, tooLarge(d, v)
		}
		return uint32(n), nil
	}

	return nil, fmt.Errorf("property %s has unknown kind %d", d.ident, d.kind)
}

func mismatch(d *Descriptor, v any) error {
	return &InvalidArgumentError{
		Property: d,
		Value:    v,
		Reason:   fmt.Sprintf("a value of type %T (expects %s)", v, d.kind),
	}
}

func tooLarge(d *Descriptor, v any) error {
	return &InvalidArgumentError{Property: d, Value: v, Reason: "a value above 4294967295"}
}

// ParseValue converts the text form of a value into the Go type used for d:
// the text itself for string properties, a decimal int for unsigned ones.
// Range checks happen on write, so "-1" parses.
func ParseValue(d *Descriptor, text string) (any, error) {
	if d.kind == KindString {
		return text, nil
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &InvalidArgumentError{Property: d, Value: text, Reason: "a non-numeric value"}
	}
	if n > math.MaxUint32 {
		return nil, tooLarge(d, text)
	}
	return int(n), nil
}

// FormatValue renders a value read from d as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(v)
	}
}

// fromEngine normalizes a value reported by an engine's bulk read.
// ok is false for absent or ill-typed values.
func fromEngine(d *Descriptor, v any) (any, bool) {
	switch d.kind {
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindUint:
		var n int64
		switch x := v.(type) {
		case int:
			n = int64(x)
		case int64:
			n = x
		case uint32:
			n = int64(x)
		case uint64:
			if x > math.MaxUint32 {
				return nil, false
			}
			n = int64(x)
		default:
			return nil, false
		}
		if n < 0 || n > math.MaxUint32 {
			return nil, false
		}
		return int(n), true
	}
	return nil, false
}

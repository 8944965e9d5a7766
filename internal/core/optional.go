package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// FlexBool decodes the loose boolean encodings browsers and forms send:
// true, 1, "1", "true" and "on" are true, anything else is false.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	v := strings.ToLower(strings.Trim(string(bytes.TrimSpace(data)), `"`))
	switch v {
	case "true", "1", "on":
		*b = true
	default:
		*b = false
	}
	return nil
}

// Bool returns a *bool for b, nil when b is nil.
func (b *FlexBool) Bool() *bool {
	if b == nil {
		return nil
	}
	v := bool(*b)
	return &v
}

// Nullable distinguishes an absent JSON key (Set false) from an explicit
// null or empty string (Set true, Value nil).
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable explicitly set to null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		n.Value = nil
		return nil
	}

	var v T
	err := json.Unmarshal(data, &v)
	if err != nil && !errors.Is(err, ErrValidation) && len(data) > 0 && data[0] == '"' {
		// numeric ids posted as strings
		unquoted, uerr := strconv.Unquote(string(data))
		if uerr == nil {
			err = json.Unmarshal([]byte(unquoted), &v)
		}
	}
	if err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

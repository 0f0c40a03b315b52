package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrNotArray is returned when a key holds a value that cannot be read as a list.
var ErrNotArray = errors.New("configuration value is not an array")

// Getter reads raw configuration values by key, without decoding them into Config.
// Keys are case-insensitive.
type Getter struct {
	v *viper.Viper
}

// NewGetter wraps a viper instance. A nil instance behaves as an empty configuration.
func NewGetter(v *viper.Viper) *Getter {
	if v == nil {
		v = viper.New()
	}
	return &Getter{v: v}
}

// Has reports whether key is set (including defaults).
func (g *Getter) Has(key string) bool {
	return g.v.IsSet(key)
}

// GetString returns the value of key as a string.
func (g *Getter) GetString(key string) string {
	return g.v.GetString(key)
}

// GetInt returns the value of key as an int.
func (g *Getter) GetInt(key string) int {
	return g.v.GetInt(key)
}

// GetBool returns the value of key as a bool.
func (g *Getter) GetBool(key string) bool {
	return g.v.GetBool(key)
}

// GetArray returns the elements of a list value without converting them.
// A missing key yields an empty list. A string (as read from an environment
// variable) is split on commas and whitespace.
func (g *Getter) GetArray(key string) ([]any, error) {
	raw := g.v.Get(key)
	switch value := raw.(type) {
	case nil:
		return []any{}, nil
	case []any:
		out := make([]any, len(value))
		copy(out, value)
		return out, nil
	case []string:
		out := make([]any, len(value))
		for i, s := range value {
			out[i] = s
		}
		return out, nil
	case string:
		fields := strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
		out := make([]any, len(fields))
		for i, s := range fields {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s is %T", ErrNotArray, key, raw)
	}
}

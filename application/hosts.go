package application

import (
	"errors"
	"fmt"

	"appshell/config"
)

// ErrUnexpectedValue is returned when the host allowlist holds a non-string entry.
var ErrUnexpectedValue = errors.New("value is not a string")

// ConfigurationGetter reads list values from configuration.
type ConfigurationGetter interface {
	GetArray(key string) ([]any, error)
}

// AllowedHosts reads the ALLOWED_HOSTS list. Every entry must be a string.
func AllowedHosts(getter ConfigurationGetter) ([]string, error) {
	data, err := getter.GetArray(config.KeyAllowedHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.KeyAllowedHosts, err)
	}

	result := make([]string, 0, len(data))
	for i, value := range data {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: %w (got %T)", config.KeyAllowedHosts, i, ErrUnexpectedValue, value)
		}
		result = append(result, s)
	}
	return result, nil
}

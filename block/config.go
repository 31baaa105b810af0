package block

import (
	"fmt"
	"strconv"
)

// ConfigError is returned when block configuration is invalid. It names
// the block and the offending key.
type ConfigError struct {
	Block  string
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Block == "" {
		return fmt.Sprintf("config -> key=%q: %s", e.Key, e.Reason)
	}
	if e.Key == "" {
		return fmt.Sprintf("device=%q: %s", e.Block, e.Reason)
	}
	return fmt.Sprintf("device=%q -> key=%q: %s", e.Block, e.Key, e.Reason)
}

// Unwrap returns the underlying error if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Params is an arbitrary key/value configuration of the block.
type Params map[string]interface{}

// Config is the configuration of a single block.
type Config struct {
	Name           string
	Type           string
	InputChannels  []string
	OutputChannels []string
	Segments       Segments
	Params         Params
}

// Errorf returns a ConfigError for provided key.
func (c *Config) Errorf(key, format string, args ...interface{}) error {
	return &ConfigError{
		Block:  c.Name,
		Key:    key,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Wrap returns a ConfigError for provided key which wraps err.
func (c *Config) Wrap(key string, err error) error {
	return &ConfigError{
		Block:  c.Name,
		Key:    key,
		Reason: err.Error(),
		Err:    err,
	}
}

func (c *Config) value(key string) (interface{}, bool) {
	v, ok := c.Params[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns required string parameter.
func (c *Config) String(key string) (string, error) {
	v, ok := c.value(key)
	if !ok {
		return "", c.Errorf(key, "missing required parameter")
	}
	s, ok := v.(string)
	if !ok {
		return "", c.Errorf(key, "expected a string value")
	}
	return s, nil
}

// StringDefault returns optional string parameter.
func (c *Config) StringDefault(key, def string) (string, error) {
	if _, ok := c.value(key); !ok {
		return def, nil
	}
	return c.String(key)
}

// Int returns required int parameter.
func (c *Config) Int(key string) (int, error) {
	v, ok := c.value(key)
	if !ok {
		return 0, c.Errorf(key, "missing required parameter")
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, c.Errorf(key, "expected an integer, got %v", n)
		}
		return int(n), nil
	}
	return 0, c.Errorf(key, "expected a number")
}

// IntDefault returns optional int parameter.
func (c *Config) IntDefault(key string, def int) (int, error) {
	if _, ok := c.value(key); !ok {
		return def, nil
	}
	return c.Int(key)
}

// Float returns required float parameter.
func (c *Config) Float(key string) (float64, error) {
	v, ok := c.value(key)
	if !ok {
		return 0, c.Errorf(key, "missing required parameter")
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, c.Errorf(key, "expected a number")
	}
	return f, nil
}

// FloatDefault returns optional float parameter.
func (c *Config) FloatDefault(key string, def float64) (float64, error) {
	if _, ok := c.value(key); !ok {
		return def, nil
	}
	return c.Float(key)
}

// BoolDefault returns optional bool parameter.
func (c *Config) BoolDefault(key string, def bool) (bool, error) {
	v, ok := c.value(key)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed, nil
		}
	}
	return false, c.Errorf(key, "expected a boolean")
}

// Strings returns required list of strings.
func (c *Config) Strings(key string) ([]string, error) {
	v, ok := c.value(key)
	if !ok {
		return nil, c.Errorf(key, "missing required parameter")
	}
	list, ok := v.([]interface{})
	if !ok {
		if s, ok := v.([]string); ok {
			return s, nil
		}
		return nil, c.Errorf(key, "expected a list of strings")
	}
	result := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, c.Errorf(key, "expected a list of strings")
		}
		result = append(result, s)
	}
	return result, nil
}

// Floats returns required list of numbers.
func (c *Config) Floats(key string) ([]float64, error) {
	v, ok := c.value(key)
	if !ok {
		return nil, c.Errorf(key, "missing required parameter")
	}
	list, ok := v.([]interface{})
	if !ok {
		if f, ok := v.([]float64); ok {
			return f, nil
		}
		return nil, c.Errorf(key, "expected a list of numbers")
	}
	result := make([]float64, 0, len(list))
	for _, item := range list {
		f, ok := toFloat(item)
		if !ok {
			return nil, c.Errorf(key, "expected a list of numbers")
		}
		result = append(result, f)
	}
	return result, nil
}

// FloatsDefault returns optional list of numbers.
func (c *Config) FloatsDefault(key string, def []float64) ([]float64, error) {
	if _, ok := c.value(key); !ok {
		return def, nil
	}
	return c.Floats(key)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

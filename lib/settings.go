package lib

import "fmt"

// Settings map of settings parameters.
type Settings map[string]interface{}

// Mixin settings to override `setts` with `settings`, later arguments
// take precedence.
func (setts Settings) Mixin(settings ...interface{}) Settings {
	update := func(arg map[string]interface{}) {
		for key, value := range arg {
			setts[key] = value
		}
	}
	for _, arg := range settings {
		switch cnf := arg.(type) {
		case Settings:
			update(map[string]interface{}(cnf))
		case map[string]interface{}:
			update(cnf)
		}
	}
	return setts
}

// Bool return the boolean value for key.
func (setts Settings) Bool(key string) bool {
	value, ok := setts[key]
	if !ok {
		panicerr("missing settings %q", key)
	}
	val, ok := value.(bool)
	if !ok {
		panicerr("settings %v not a bool: %T", key, value)
	}
	return val
}

// Int64 return the int64 value for key.
func (setts Settings) Int64(key string) int64 {
	value, ok := setts[key]
	if !ok {
		panicerr("missing settings %q", key)
	}
	switch val := value.(type) {
	case float64:
		return int64(val)
	case float32:
		return int64(val)
	case uint:
		return int64(val)
	case uint64:
		return int64(val)
	case uint32:
		return int64(val)
	case int:
		return int64(val)
	case int64:
		return val
	case int32:
		return int64(val)
	}
	panicerr("settings %v not a number: %T", key, value)
	return 0
}

// String return the string value for key.
func (setts Settings) String(key string) string {
	value, ok := setts[key]
	if !ok {
		panicerr("missing settings %q", key)
	}
	val, ok := value.(string)
	if !ok {
		panicerr("settings %v not a string: %T", key, value)
	}
	return val
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

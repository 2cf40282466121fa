package utils

import (
	"os"

	"github.com/pkg/errors"
)

// AttributeMap is a loosely typed set of driver attributes, as decoded from JSON.
type AttributeMap map[string]interface{}

// Has reports whether name is set.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// String returns the string at name, or "" when unset.
func (am AttributeMap) String(name string) (string, error) {
	x := am[name]
	if x == nil {
		return "", nil
	}
	s, ok := x.(string)
	if !ok {
		return "", errors.Errorf("wanted a string for (%s) but got (%v) %T", name, x, x)
	}
	return s, nil
}

// Bool returns the bool at name, or def when unset.
func (am AttributeMap) Bool(name string, def bool) (bool, error) {
	x, has := am[name]
	if !has {
		return def, nil
	}
	v, ok := x.(bool)
	if !ok {
		return def, errors.Errorf("wanted a bool for (%s) but got (%v) %T", name, x, x)
	}
	return v, nil
}

// ExpandEnv replaces ${var} references in every top level string attribute.
func (am AttributeMap) ExpandEnv() {
	for k, v := range am {
		if s, ok := v.(string); ok {
			am[k] = os.ExpandEnv(s)
		}
	}
}

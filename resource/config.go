package resource

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/fittrack/utils"
)

// A Config describes which driver backs a sensor and how it is set up.
type Config struct {
	Name       string             `json:"name"`
	API        API                `json:"api"`
	Model      Model              `json:"model"`
	Attributes utils.AttributeMap `json:"attributes,omitempty"`

	ConvertedAttributes ConfigValidator `json:"-"`
}

// A ConfigValidator validates a native driver configuration.
type ConfigValidator interface {
	Validate(path string) error
}

// NoNativeConfig is used by drivers that take no attributes.
type NoNativeConfig struct{}

// Validate always succeeds.
func (NoNativeConfig) Validate(path string) error {
	return nil
}

// NativeConfig returns the converted attributes of conf as a T.
func NativeConfig[T any](conf Config) (T, error) {
	var zero T
	if conf.ConvertedAttributes == nil {
		return zero, errors.Errorf("config %q has not been converted", conf.Name)
	}
	native, ok := conf.ConvertedAttributes.(T)
	if !ok {
		return zero, errors.Errorf("expected config of type %T but got %T", zero, conf.ConvertedAttributes)
	}
	return native, nil
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if err := ContainsReservedCharacter(conf.Name); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if conf.API.Subtype == "" {
		conf.API = NewSensorAPI(SubtypeName(conf.Name))
	}
	if err := conf.API.Validate(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if conf.Model.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if err := conf.Model.Validate(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if conf.ConvertedAttributes != nil {
		if err := conf.ConvertedAttributes.Validate(path + ".attributes"); err != nil {
			return err
		}
	}
	return nil
}

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
func TransformAttributeMap[T any](attributes utils.AttributeMap) (T, error) {
	var out T

	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT == nil {
		// nothing to transform
		return out, nil
	}
	if toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate default config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           forResult,
		Metadata:         &md,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return out, err
	}
	if len(md.Unused) != 0 {
		return out, errors.Errorf("unknown attributes %q", md.Unused)
	}
	return out, nil
}

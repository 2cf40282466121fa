package resource

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/fittrack/logging"
	"go.viam.com/fittrack/utils"
)

type (
	// An APIModel is the tuple that identifies a model implementing an API.
	APIModel struct {
		API   API
		Model Model
	}

	// A Create builds a driver from its config.
	Create[DriverT any] func(ctx context.Context, conf Config, logger logging.Logger) (DriverT, error)

	// An AttributeMapConverter converts an attribute map into a native config type for a driver.
	AttributeMapConverter[ConfigT any] func(attributes utils.AttributeMap) (ConfigT, error)

	// A Probe reports whether the hardware behind a config is present.
	Probe func(ctx context.Context, conf Config) bool
)

// A Registration describes how to build one model of an API.
type Registration[DriverT any, ConfigT ConfigValidator] struct {
	Constructor           Create[DriverT]
	AttributeMapConverter AttributeMapConverter[ConfigT]

	// Simulated marks generators that need neither hardware nor permission.
	Simulated bool
	// Probe is optional; models without one are assumed present.
	Probe Probe

	configType reflect.Type
}

// ConfigReflectType returns the native config type of the registration.
func (r Registration[DriverT, ConfigT]) ConfigReflectType() reflect.Type {
	return r.configType
}

var (
	registryMu sync.RWMutex
	registry   = map[APIModel]Registration[any, ConfigValidator]{}

	noNativeConfigType = reflect.TypeOf(NoNativeConfig{})
)

// Register registers a model for an API with its construction info. Registering the same pair
// twice panics.
func Register[DriverT any, ConfigT ConfigValidator](api API, model Model, reg Registration[DriverT, ConfigT]) {
	registryMu.Lock()
	defer registryMu.Unlock()

	apiModel := APIModel{api, model}
	if _, old := registry[apiModel]; old {
		panic(errors.Errorf("trying to register two drivers with same api: %q, model: %q", api, model))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for api: %q, model: %q", api, model))
	}
	var zero ConfigT
	zeroT := reflect.TypeOf(zero)
	if reg.AttributeMapConverter == nil && zeroT != nil && zeroT != noNativeConfigType {
		// provide one for free
		reg.AttributeMapConverter = TransformAttributeMap[ConfigT]
	}
	reg.configType = zeroT
	registry[apiModel] = makeGenericRegistration(reg)
}

// Deregister removes a registration. It exists for tests.
func Deregister(api API, model Model) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, APIModel{api, model})
}

func makeGenericRegistration[DriverT any, ConfigT ConfigValidator](
	typed Registration[DriverT, ConfigT],
) Registration[any, ConfigValidator] {
	reg := Registration[any, ConfigValidator]{
		Simulated:  typed.Simulated,
		Probe:      typed.Probe,
		configType: typed.configType,
		Constructor: func(ctx context.Context, conf Config, logger logging.Logger) (any, error) {
			return typed.Constructor(ctx, conf, logger)
		},
	}
	if typed.AttributeMapConverter != nil {
		reg.AttributeMapConverter = func(attributes utils.AttributeMap) (ConfigValidator, error) {
			return typed.AttributeMapConverter(attributes)
		}
	}
	return reg
}

// LookupRegistration returns the registration for an API and model, with the constructor typed to
// build a DriverT.
func LookupRegistration[DriverT any](api API, model Model) (Registration[DriverT, ConfigValidator], bool) {
	registryMu.RLock()
	generic, ok := registry[APIModel{api, model}]
	registryMu.RUnlock()
	if !ok {
		return Registration[DriverT, ConfigValidator]{}, false
	}
	return Registration[DriverT, ConfigValidator]{
		Simulated:             generic.Simulated,
		Probe:                 generic.Probe,
		configType:            generic.configType,
		AttributeMapConverter: generic.AttributeMapConverter,
		Constructor: func(ctx context.Context, conf Config, logger logging.Logger) (DriverT, error) {
			var zero DriverT
			res, err := generic.Constructor(ctx, conf, logger)
			if err != nil {
				return zero, err
			}
			typed, ok := res.(DriverT)
			if !ok {
				return zero, errors.Errorf("model %q of api %q built a %T, not a %T", model, api, res, zero)
			}
			return typed, nil
		},
	}, true
}

// RegisteredModels returns the models registered for api, sorted by name.
func RegisteredModels(api API) []Model {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var models []Model
	for apiModel := range registry {
		if apiModel.API == api {
			models = append(models, apiModel.Model)
		}
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].String() < models[j].String()
	})
	return models
}

// Convert fills in conf.ConvertedAttributes using the registration for conf's API and model.
func Convert(conf *Config) error {
	registryMu.RLock()
	reg, ok := registry[APIModel{conf.API, conf.Model}]
	registryMu.RUnlock()
	if !ok {
		return errors.Errorf("no driver registered for api %q model %q", conf.API, conf.Model)
	}
	if reg.AttributeMapConverter == nil {
		conf.ConvertedAttributes = NoNativeConfig{}
		return nil
	}
	attrs := conf.Attributes
	if attrs == nil {
		attrs = utils.AttributeMap{}
	}
	converted, err := reg.AttributeMapConverter(attrs)
	if err != nil {
		return errors.Wrapf(err, "error converting attributes for %q", conf.Name)
	}
	conf.ConvertedAttributes = converted
	return nil
}

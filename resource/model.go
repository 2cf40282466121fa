package resource

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

type (
	// ModelFamilyName is the model family.
	ModelFamilyName string

	// ModelName is the name of a specific model within a family.
	ModelName string
)

// DefaultModelFamilyName is the family of the built in drivers.
const DefaultModelFamilyName = ModelFamilyName("builtin")

var (
	// DefaultModelFamily is fittrack:builtin.
	DefaultModelFamily = ModelFamily{APINamespaceFitTrack, DefaultModelFamilyName}

	modelRegexValidator     = regexp.MustCompile(`^([\w-]+):([\w-]+):([\w-]+)$`)
	shortNameRegexValidator = regexp.MustCompile(`^([\w-]+)$`)
)

// ModelFamily is a family of related models.
type ModelFamily struct {
	Namespace Namespace
	Family    ModelFamilyName
}

// Validate ensures that important fields exist and are valid.
func (f ModelFamily) Validate() error {
	if f.Namespace == "" {
		return errors.New("model namespace field for resource missing")
	}
	if f.Family == "" {
		return errors.New("model family field for resource missing")
	}
	if err := ContainsReservedCharacter(string(f.Namespace)); err != nil {
		return err
	}
	return ContainsReservedCharacter(string(f.Family))
}

// String returns the model family string.
func (f ModelFamily) String() string {
	return fmt.Sprintf("%s:%s", f.Namespace, f.Family)
}

// WithModel returns a model in this family.
func (f ModelFamily) WithModel(name ModelName) Model {
	return Model{Family: f, Name: name}
}

// Model represents an individual model within a family.
type Model struct {
	Family ModelFamily
	Name   ModelName
}

// NewModel creates a new Model based on parameters passed in.
func NewModel(namespace Namespace, family ModelFamilyName, name ModelName) Model {
	return Model{ModelFamily{namespace, family}, name}
}

// NewModelFromString parses "namespace:family:name". A bare name is taken to be a builtin model.
func NewModelFromString(modelStr string) (Model, error) {
	if matches := modelRegexValidator.FindStringSubmatch(modelStr); matches != nil {
		return NewModel(Namespace(matches[1]), ModelFamilyName(matches[2]), ModelName(matches[3])), nil
	}
	if shortNameRegexValidator.MatchString(modelStr) {
		return DefaultModelFamily.WithModel(ModelName(modelStr)), nil
	}
	return Model{}, errors.Errorf("string %q is not a valid model name", modelStr)
}

// Validate ensures that important fields exist and are valid.
func (m Model) Validate() error {
	if err := m.Family.Validate(); err != nil {
		return err
	}
	if m.Name == "" {
		return errors.New("model name field for resource missing")
	}
	return ContainsReservedCharacter(string(m.Name))
}

// String returns the resource model string.
func (m Model) String() string {
	return fmt.Sprintf("%s:%s", m.Family, m.Name)
}

// MarshalJSON encodes the model as its string form.
func (m Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a model from its string form.
func (m *Model) UnmarshalJSON(data []byte) error {
	var modelStr string
	if err := json.Unmarshal(data, &modelStr); err != nil {
		return err
	}
	parsed, err := NewModelFromString(modelStr)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

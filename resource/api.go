package resource

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Namespace identifies the owner of APIs and models.
	Namespace string

	// TypeName is the broad kind of an API, such as "sensor".
	TypeName string

	// SubtypeName names a specific API within a type, such as "motion".
	SubtypeName string
)

const (
	// APINamespaceFitTrack is the namespace of every built in API and model.
	APINamespaceFitTrack = Namespace("fittrack")

	// APITypeSensorName is the type shared by all sensor APIs.
	APITypeSensorName = TypeName("sensor")
)

var (
	reservedChars     = [...]string{":", "+"}
	apiRegexValidator = regexp.MustCompile(`^([\w-]+):([\w-]+):([\w-]+)$`)
)

// An API names a kind of sensor that drivers can implement.
type API struct {
	Namespace Namespace
	Type      TypeName
	Subtype   SubtypeName
}

// NewSensorAPI returns the fittrack sensor API with the given subtype.
func NewSensorAPI(subtype SubtypeName) API {
	return API{Namespace: APINamespaceFitTrack, Type: APITypeSensorName, Subtype: subtype}
}

// NewAPIFromString parses "namespace:type:subtype". A bare subtype is taken to be a fittrack sensor.
func NewAPIFromString(apiStr string) (API, error) {
	if matches := apiRegexValidator.FindStringSubmatch(apiStr); matches != nil {
		api := API{Namespace(matches[1]), TypeName(matches[2]), SubtypeName(matches[3])}
		return api, api.Validate()
	}
	if shortNameRegexValidator.MatchString(apiStr) {
		return NewSensorAPI(SubtypeName(apiStr)), nil
	}
	return API{}, errors.Errorf("string %q is not a valid api name", apiStr)
}

// Validate ensures that important fields exist and are valid.
func (a API) Validate() error {
	if a.Namespace == "" {
		return errors.New("namespace field for api missing")
	}
	if a.Type == "" {
		return errors.New("type field for api missing")
	}
	if a.Subtype == "" {
		return errors.New("subtype field for api missing")
	}
	for _, part := range []string{string(a.Namespace), string(a.Type), string(a.Subtype)} {
		if err := ContainsReservedCharacter(part); err != nil {
			return err
		}
	}
	return nil
}

// String returns the "namespace:type:subtype" form of the API.
func (a API) String() string {
	return fmt.Sprintf("%s:%s:%s", a.Namespace, a.Type, a.Subtype)
}

// MarshalJSON encodes the API as its string form.
func (a API) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an API from its string form.
func (a *API) UnmarshalJSON(data []byte) error {
	var apiStr string
	if err := json.Unmarshal(data, &apiStr); err != nil {
		return err
	}
	parsed, err := NewAPIFromString(apiStr)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ContainsReservedCharacter returns an error if val contains a character that separates name parts.
func ContainsReservedCharacter(val string) error {
	for _, char := range reservedChars {
		if strings.Contains(val, char) {
			return errors.Errorf("reserved character %s used in name:%q", char, val)
		}
	}
	return nil
}

package dto

import (
	"encoding/json"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// OptionalString records whether a JSON key was present at all. A present
// null leaves Value nil with Set true.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Resolve returns nil when the field was absent. A null clears to "".
func (o OptionalString) Resolve() *string {
	if !o.Set {
		return nil
	}
	if o.Value == nil {
		empty := ""
		return &empty
	}
	return o.Value
}

// optionalStringValue lets validator tags apply to the wrapped string.
func optionalStringValue(field reflect.Value) any {
	if o, ok := field.Interface().(OptionalString); ok && o.Value != nil {
		return *o.Value
	}
	return ""
}

func RegisterValidators(v *validator.Validate) {
	v.RegisterCustomTypeFunc(optionalStringValue, OptionalString{})
}

package search

import (
	"encoding/json"
	"fmt"
)

// ParseInputs decodes the bound inputs of a declarative query. The value must be
// a JSON array; its elements keep their JSON types (numbers decode as float64).
func ParseInputs(raw string) ([]any, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("%w: inputs are not valid JSON: %w", ErrInvalidInputFormat, err)
	}
	inputs, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: inputs must be a JSON array", ErrInvalidInputFormat)
	}
	return inputs, nil
}

package model

import (
	"errors"
	"fmt"
	"strings"
)

// Reserved scenario ids. Older clients rendered list states as fake scenarios
// with these ids, so they are never valid for a real scenario.
const (
	SentinelLoading = "loading"
	SentinelError   = "error"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Scenario is a named operational context. Identity is ScenarioID alone.
type Scenario struct {
	ScenarioID  string `json:"scenarioId"`
	Description string `json:"description"`
}

// Equal reports whether both scenarios are the same entity.
func (s Scenario) Equal(other Scenario) bool {
	return s.ScenarioID == other.ScenarioID
}

// Key is the identity key, suitable for maps.
func (s Scenario) Key() string {
	return s.ScenarioID
}

// IsSentinel reports whether the id is one of the reserved placeholder ids.
func (s Scenario) IsSentinel() bool {
	return IsSentinelID(s.ScenarioID)
}

// String returns the display text.
func (s Scenario) String() string {
	if s.Description == "" {
		return s.ScenarioID
	}
	return s.Description
}

// Validate checks a scenario before it may be created.
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.ScenarioID) == "" {
		return &ValidationError{Field: "scenarioId", Reason: "must not be empty"}
	}
	if s.IsSentinel() {
		return &ValidationError{Field: "scenarioId", Reason: fmt.Sprintf("%q is reserved", s.ScenarioID)}
	}
	if strings.TrimSpace(s.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	return nil
}

// IsSentinelID reports whether id is reserved.
func IsSentinelID(id string) bool {
	return id == SentinelLoading || id == SentinelError
}

// IndexOf returns the position of the scenario with id, or -1.
func IndexOf(scenarios []Scenario, id string) int {
	for i, s := range scenarios {
		if s.ScenarioID == id {
			return i
		}
	}
	return -1
}

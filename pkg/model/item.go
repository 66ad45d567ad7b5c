package model

import (
	"fmt"
	"strings"
)

// ItemType is the lowercase type discriminator of a ConfigItem.
type ItemType string

const (
	TypeString   ItemType = "string"
	TypePassword ItemType = "password"
	TypeBoolean  ItemType = "boolean"
)

// Kind is the editing class an ItemType maps to. Every ItemType maps to
// exactly one Kind; unrecognized types edit as text.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindSecret
	KindToggle
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSecret:
		return "secret"
	case KindToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Normalize lowercases and trims the discriminator.
func (t ItemType) Normalize() ItemType {
	return ItemType(strings.ToLower(strings.TrimSpace(string(t))))
}

// Kind returns the editing class for the type.
func (t ItemType) Kind() Kind {
	switch t.Normalize() {
	case TypePassword:
		return KindSecret
	case TypeBoolean:
		return KindToggle
	default:
		return KindText
	}
}

// ConfigItem is one typed entry of a configuration set. Name is unique within
// its set; there is no identity across sets.
type ConfigItem struct {
	Name        string   `json:"name"`
	Type        ItemType `json:"type"`
	Value       Value    `json:"value"`
	Description string   `json:"description"`
}

// NewConfigItem builds an item.
func NewConfigItem(name string, t ItemType, v Value, description string) ConfigItem {
	return ConfigItem{Name: name, Type: t, Value: v, Description: description}
}

// WithDescriptions returns a copy of items with each description taken from
// the item of the same name in schema. Items missing from schema keep theirs.
func WithDescriptions(items, schema []ConfigItem) []ConfigItem {
	labels := make(map[string]string, len(schema))
	for _, s := range schema {
		labels[s.Name] = s.Description
	}
	out := make([]ConfigItem, len(items))
	for i, item := range items {
		if d, ok := labels[item.Name]; ok {
			item.Description = d
		}
		out[i] = item
	}
	return out
}

// ValidateSet checks that every item has a name and that names are unique.
func ValidateSet(items []ConfigItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.Name == "" {
			return &ValidationError{Field: "name", Reason: fmt.Sprintf("item %d has no name", i)}
		}
		if _, dup := seen[item.Name]; dup {
			return &ValidationError{Field: "name", Reason: fmt.Sprintf("duplicate item %q", item.Name)}
		}
		seen[item.Name] = struct{}{}
	}
	return nil
}

// RedactedValue replaces secret values in output meant for people.
const RedactedValue = "********"

// Redact returns a copy of items with every present secret value masked.
func Redact(items []ConfigItem) []ConfigItem {
	out := make([]ConfigItem, len(items))
	for i, item := range items {
		if item.Type.Kind() == KindSecret && !item.Value.IsAbsent() {
			item.Value = StringValue(RedactedValue)
		}
		out[i] = item
	}
	return out
}

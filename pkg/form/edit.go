package form

import (
	"fmt"
	"strings"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

// Edit assigns a raw value to the item called Name.
type Edit struct {
	Name  string
	Value string
}

// ParseEdit parses "name=value". The value may be empty or contain '='.
func ParseEdit(s string) (Edit, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Edit{}, &model.ValidationError{Field: "edit", Reason: fmt.Sprintf("%q is not name=value", s)}
	}
	return Edit{Name: name, Value: value}, nil
}

// Apply binds items, applies edits in order, and collects the result with
// descriptions re-attached. Items not named by an edit come back unchanged.
// Any failing edit aborts with no result.
func Apply(items []model.ConfigItem, edits ...Edit) ([]model.ConfigItem, error) {
	fields := Bind(items)
	defer Wipe(fields)

	for _, e := range edits {
		if err := Set(fields, e.Name, e.Value); err != nil {
			return nil, err
		}
	}

	out, err := Collect(fields)
	if err != nil {
		return nil, err
	}
	return model.WithDescriptions(out, items), nil
}

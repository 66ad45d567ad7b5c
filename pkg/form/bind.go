package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

// Bind returns one field per item, in order.
func Bind(items []model.ConfigItem) []Field {
	fields := make([]Field, 0, len(items))
	for _, item := range items {
		display := model.ToDisplayValue(item)
		f := Field{
			Name:        item.Name,
			Type:        item.Type,
			Kind:        display.Kind,
			Label:       item.Description,
			orig:        item.Value,
			origDisplay: display,
		}
		f.Reset()
		fields = append(fields, f)
	}
	return fields
}

// Collect converts fields back into items, in order. Fields whose kind cannot
// be mapped are dropped; the returned error then lists them (each matching
// ErrUnmappableField) while items still holds every well-formed field.
func Collect(fields []Field) ([]model.ConfigItem, error) {
	items := make([]model.ConfigItem, 0, len(fields))
	var dropped []error
	for _, f := range fields {
		item, err := f.ConfigItem()
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		items = append(items, item)
	}
	return items, errors.Join(dropped...)
}

// Set applies a textual edit to the named field. Toggle fields accept only
// "true" or "false" (any case); anything else is rejected.
func Set(fields []Field, name, raw string) error {
	for i := range fields {
		if fields[i].Name != name {
			continue
		}
		f := &fields[i]
		switch f.Kind {
		case model.KindToggle:
			b, ok := parseStrictBool(raw)
			if !ok {
				return &model.ValidationError{Field: name, Reason: fmt.Sprintf("%q is not true or false", raw)}
			}
			f.Checked = b
		case model.KindSecret:
			clear(f.Secret)
			f.Secret = []byte(raw)
		case model.KindText:
			f.Text = raw
		default:
			return &UnmappableFieldError{Name: f.Name, Kind: f.Kind}
		}
		return nil
	}
	return &model.ValidationError{Field: name, Reason: "no such configuration item"}
}

func parseStrictBool(raw string) (bool, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(raw), "true"):
		return true, true
	case strings.EqualFold(strings.TrimSpace(raw), "false"):
		return false, true
	default:
		return false, false
	}
}

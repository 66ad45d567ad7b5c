// Package form maps configuration sets to editable field descriptors and back.
//
// A Field is independent of any widget technology: a surface renders it by
// Kind and writes edits into Text, Secret or Checked.
package form

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

// ErrUnmappableField is matched by every *UnmappableFieldError.
var ErrUnmappableField = errors.New("unmappable field")

// UnmappableFieldError reports a field whose kind has no write-back mapping.
type UnmappableFieldError struct {
	Name string
	Kind model.Kind
}

func (e *UnmappableFieldError) Error() string {
	return fmt.Sprintf("field %q: no mapping for kind %s", e.Name, e.Kind)
}

func (e *UnmappableFieldError) Is(target error) bool {
	return target == ErrUnmappableField
}

// Field is the editable representation of one ConfigItem.
type Field struct {
	Name  string
	Type  model.ItemType
	Kind  model.Kind
	Label string

	// Edit state. Only the member matching Kind is meaningful.
	Text    string
	Secret  []byte
	Checked bool

	orig        model.Value
	origDisplay model.DisplayValue
}

// Edited reports whether the edit state differs from the bound value.
func (f Field) Edited() bool {
	switch f.Kind {
	case model.KindToggle:
		return f.Checked != f.origDisplay.Checked
	case model.KindSecret:
		return !bytes.Equal(f.Secret, []byte(f.origDisplay.Text))
	default:
		return f.Text != f.origDisplay.Text
	}
}

// Display returns the current edit state as a display value.
func (f Field) Display() model.DisplayValue {
	switch f.Kind {
	case model.KindToggle:
		return model.DisplayValue{Kind: f.Kind, Checked: f.Checked}
	case model.KindSecret:
		return model.DisplayValue{Kind: f.Kind, Text: string(f.Secret)}
	default:
		return model.DisplayValue{Kind: f.Kind, Text: f.Text}
	}
}

// Reset restores the bound value, discarding edits.
func (f *Field) Reset() {
	f.Text = ""
	f.Checked = false
	f.Secret = nil
	switch f.Kind {
	case model.KindToggle:
		f.Checked = f.origDisplay.Checked
	case model.KindSecret:
		f.Secret = []byte(f.origDisplay.Text)
	default:
		f.Text = f.origDisplay.Text
	}
}

// ConfigItem converts the field back into an item. An unedited field yields
// its bound value unchanged, so absent values stay absent. The description is
// not carried.
func (f Field) ConfigItem() (model.ConfigItem, error) {
	switch f.Kind {
	case model.KindText, model.KindSecret, model.KindToggle:
	default:
		return model.ConfigItem{}, &UnmappableFieldError{Name: f.Name, Kind: f.Kind}
	}

	if !f.Edited() {
		return model.ConfigItem{Name: f.Name, Type: f.Type, Value: f.orig}, nil
	}
	return model.ToConfigItem(f.Name, f.Type, f.Display()), nil
}

// Clone returns a copy that shares no edit buffer with f.
func (f Field) Clone() Field {
	if f.Secret != nil {
		f.Secret = bytes.Clone(f.Secret)
	}
	return f
}

// Wipe zeroes every secret buffer in fields.
func Wipe(fields []Field) {
	for i := range fields {
		clear(fields[i].Secret)
		fields[i].Secret = nil
	}
}

package model

// DisplayValue is the editable rendering of a value. Toggle kinds use Checked;
// text and secret kinds use Text.
type DisplayValue struct {
	Kind    Kind
	Text    string
	Checked bool
}

// ToDisplayValue reads an item leniently into its editable form. Absent or
// garbled values decay to the kind's default ("" or false).
func ToDisplayValue(item ConfigItem) DisplayValue {
	kind := item.Type.Kind()
	switch kind {
	case KindToggle:
		return DisplayValue{Kind: kind, Checked: item.Value.Bool()}
	case KindSecret, KindText:
		return DisplayValue{Kind: kind, Text: item.Value.String()}
	default:
		return DisplayValue{Kind: KindText, Text: item.Value.String()}
	}
}

// ToConfigItem converts an edited value back into an item of type t. Only the
// member selected by t's kind is read, so a toggle always yields a native
// boolean and text always yields a string. The description is left empty.
//
// For secrets the result holds a copy of edited.Text; callers should discard
// their edit buffer once converted.
func ToConfigItem(name string, t ItemType, edited DisplayValue) ConfigItem {
	switch t.Kind() {
	case KindToggle:
		return ConfigItem{Name: name, Type: t, Value: BoolValue(edited.Checked)}
	default:
		return ConfigItem{Name: name, Type: t, Value: StringValue(edited.Text)}
	}
}

package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestToDisplayValue_Boolean(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"native true", BoolValue(true), true},
		{"native false", BoolValue(false), false},
		{"mixed case string", StringValue("TrUe"), true},
		{"false string", StringValue("FALSE"), false},
		{"yes is not true", StringValue("yes"), false},
		{"garbled", StringValue("1"), false},
		{"absent", Absent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDisplayValue(NewConfigItem("x", TypeBoolean, tt.value, ""))
			if got.Kind != KindToggle {
				t.Fatalf("kind = %v, want toggle", got.Kind)
			}
			if got.Checked != tt.want {
				t.Errorf("Checked = %v, want %v", got.Checked, tt.want)
			}
		})
	}
}

func TestToDisplayValue_Text(t *testing.T) {
	tests := []struct {
		name     string
		itemType ItemType
		value    Value
		wantKind Kind
		wantText string
	}{
		{"string", TypeString, StringValue("1000"), KindText, "1000"},
		{"absent string", TypeString, Absent, KindText, ""},
		{"password", TypePassword, StringValue("s3cret"), KindSecret, "s3cret"},
		{"absent password", TypePassword, Absent, KindSecret, ""},
		{"unknown type edits as text", ItemType("integer"), StringValue("3"), KindText, "3"},
		{"bool value shown as text", TypeString, BoolValue(true), KindText, "true"},
		{"upper case type", ItemType("PASSWORD"), StringValue("x"), KindSecret, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDisplayValue(NewConfigItem("x", tt.itemType, tt.value, ""))
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestToConfigItem(t *testing.T) {
	got := ToConfigItem("debug", TypeBoolean, DisplayValue{Checked: true, Text: "ignored"})
	want := ConfigItem{Name: "debug", Type: TypeBoolean, Value: BoolValue(true)}
	if got != want {
		t.Errorf("ToConfigItem() = %+v, want %+v", got, want)
	}

	got = ToConfigItem("batchSize", TypeString, DisplayValue{Text: "500", Checked: true})
	want = ConfigItem{Name: "batchSize", Type: TypeString, Value: StringValue("500")}
	if got != want {
		t.Errorf("ToConfigItem() = %+v, want %+v", got, want)
	}
}

func TestConfigItem_JSON(t *testing.T) {
	payload := `[
		{"name":"debug","type":"boolean","value":false,"description":"Debug"},
		{"name":"password","type":"password","value":null,"description":"Password"},
		{"name":"retryCount","type":"string","value":3,"description":"Retry count"},
		{"name":"missing","type":"string","description":"No value"},
		{"name":"nested","type":"string","value":{"a":1},"description":"Nested"}
	]`

	var items []ConfigItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := []ConfigItem{
		{Name: "debug", Type: TypeBoolean, Value: BoolValue(false), Description: "Debug"},
		{Name: "password", Type: TypePassword, Value: Absent, Description: "Password"},
		{Name: "retryCount", Type: TypeString, Value: StringValue("3"), Description: "Retry count"},
		{Name: "missing", Type: TypeString, Value: Absent, Description: "No value"},
		{Name: "nested", Type: TypeString, Value: Absent, Description: "Nested"},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, items[i], want[i])
		}
	}

	out, err := json.Marshal(items[:2])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	wantJSON := `[{"name":"debug","type":"boolean","value":false,"description":"Debug"},{"name":"password","type":"password","value":null,"description":"Password"}]`
	if string(out) != wantJSON {
		t.Errorf("Marshal = %s, want %s", out, wantJSON)
	}
}

func TestScenario_Identity(t *testing.T) {
	a := Scenario{ScenarioID: "Standard_LDL_M1000", Description: "Production run Client 1000"}
	b := Scenario{ScenarioID: "Standard_LDL_M1000", Description: "renamed"}
	c := Scenario{ScenarioID: "Test_Mandant_3000", Description: "Production run Client 1000"}

	if !a.Equal(b) {
		t.Error("scenarios with the same id should be equal")
	}
	if a.Equal(c) {
		t.Error("scenarios with different ids should not be equal")
	}

	set := map[string]Scenario{a.Key(): a}
	if _, ok := set[b.Key()]; !ok {
		t.Error("key lookup should ignore description")
	}
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		field    string
	}{
		{"valid", Scenario{ScenarioID: "S1", Description: "First"}, ""},
		{"empty id", Scenario{Description: "First"}, "scenarioId"},
		{"blank id", Scenario{ScenarioID: "  ", Description: "First"}, "scenarioId"},
		{"empty description", Scenario{ScenarioID: "S1"}, "description"},
		{"loading sentinel", Scenario{ScenarioID: SentinelLoading, Description: "x"}, "scenarioId"},
		{"error sentinel", Scenario{ScenarioID: SentinelError, Description: "x"}, "scenarioId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scenario.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestWithDescriptions(t *testing.T) {
	schema := []ConfigItem{
		NewConfigItem("a", TypeString, StringValue("1"), "Alpha"),
		NewConfigItem("b", TypeBoolean, BoolValue(true), "Beta"),
	}
	edited := []ConfigItem{
		{Name: "b", Type: TypeBoolean, Value: BoolValue(false)},
		{Name: "c", Type: TypeString, Value: StringValue("x"), Description: "kept"},
	}

	got := WithDescriptions(edited, schema)
	if got[0].Description != "Beta" {
		t.Errorf("description = %q, want Beta", got[0].Description)
	}
	if got[1].Description != "kept" {
		t.Errorf("description = %q, want kept", got[1].Description)
	}
	if edited[0].Description != "" {
		t.Error("input slice must not be modified")
	}
}

func TestValidateSet(t *testing.T) {
	ok := []ConfigItem{{Name: "a"}, {Name: "b"}}
	if err := ValidateSet(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateSet(nil); err != nil {
		t.Fatalf("unexpected error for empty set: %v", err)
	}
	if err := ValidateSet([]ConfigItem{{Name: "a"}, {Name: "a"}}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for duplicate, got %v", err)
	}
	if err := ValidateSet([]ConfigItem{{Name: ""}}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for missing name, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	items := []ConfigItem{
		NewConfigItem("user", TypeString, StringValue("admin"), ""),
		NewConfigItem("pw", TypePassword, StringValue("hunter2"), "Password"),
		NewConfigItem("unsetPw", TypePassword, Absent, ""),
	}

	got := Redact(items)
	if got[0].Value != StringValue("admin") {
		t.Errorf("string value changed: %+v", got[0])
	}
	if got[1].Value != StringValue(RedactedValue) || got[1].Description != "Password" {
		t.Errorf("secret not redacted: %+v", got[1])
	}
	if !got[2].Value.IsAbsent() {
		t.Errorf("absent secret should stay absent: %+v", got[2])
	}
	if items[1].Value != StringValue("hunter2") {
		t.Errorf("input modified: %+v", items[1])
	}
}

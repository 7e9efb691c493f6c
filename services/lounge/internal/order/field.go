package order

import "strings"

type Field string

const (
	FieldTable    Field = "table"
	FieldStrength Field = "strength"
	FieldAroma    Field = "aroma"
	FieldStops    Field = "stops"
	FieldBowl     Field = "bowl"
	FieldDraft    Field = "draft"
	FieldTea      Field = "tea"
)

// Fields lists every order field in the order questions are asked and
// summaries are rendered.
var Fields = []Field{
	FieldTable,
	FieldStrength,
	FieldAroma,
	FieldStops,
	FieldBowl,
	FieldDraft,
	FieldTea,
}

const (
	NotSelected = "❌ Не выбрано"
	Skipped     = "—"
)

var labels = map[Field]string{
	FieldTable:    "Стол",
	FieldStrength: "Крепость",
	FieldAroma:    "Ароматика",
	FieldStops:    "Стопы",
	FieldBowl:     "Чаша",
	FieldDraft:    "Тяга",
	FieldTea:      "Чай",
}

func (f Field) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

// ParseField returns the field for a name, or false if unknown.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Values holds collected answers. A missing key is unset; a present empty
// string was skipped.
type Values map[Field]string

func (v Values) Get(f Field) (string, bool) {
	val, ok := v[f]
	return val, ok
}

// Known reports whether the field holds a non-empty value.
func (v Values) Known(f Field) bool {
	val, ok := v[f]
	return ok && strings.TrimSpace(val) != ""
}

func (v Values) Set(f Field, val string) {
	v[f] = val
}

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Display renders a field for humans, never returning an empty string.
func (v Values) Display(f Field) string {
	val, ok := v[f]
	if !ok {
		return NotSelected
	}
	if strings.TrimSpace(val) == "" {
		return Skipped
	}
	return val
}

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ValueKind names a FieldValue variant on the wire.
type ValueKind string

const (
	KindText       ValueKind = "text"
	KindNumber     ValueKind = "number"
	KindBool       ValueKind = "bool"
	KindFile       ValueKind = "file"
	KindStringList ValueKind = "string_list"
	KindBranchSet  ValueKind = "branch_set"
)

// FieldValue is the value a user entered for one element. The set of variants is
// closed: Text, Number, Bool, FileRef, StringList and BranchSet.
type FieldValue interface {
	Kind() ValueKind
	isFieldValue()
}

// Text is a free-form or single-choice value.
type Text string

// Number is a numeric value.
type Number float64

// Bool is a toggle or single checkbox value.
type Bool bool

// FileRef points at an uploaded file.
type FileRef struct {
	Name        string `json:"name"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	URL         string `json:"url,omitempty"`
}

// StringList is a multi-choice value or a list of screening questions.
type StringList []string

// BranchSet is the value of a condition module: its branches in display order.
type BranchSet struct {
	Branches []ConditionBranch `json:"branches"`
}

func (Text) Kind() ValueKind       { return KindText }
func (Number) Kind() ValueKind     { return KindNumber }
func (Bool) Kind() ValueKind       { return KindBool }
func (FileRef) Kind() ValueKind    { return KindFile }
func (StringList) Kind() ValueKind { return KindStringList }
func (BranchSet) Kind() ValueKind  { return KindBranchSet }

func (Text) isFieldValue()       {}
func (Number) isFieldValue()     {}
func (Bool) isFieldValue()       {}
func (FileRef) isFieldValue()    {}
func (StringList) isFieldValue() {}
func (BranchSet) isFieldValue()  {}

// IsEmpty reports whether v carries no user-visible value.
func IsEmpty(v FieldValue) bool {
	switch value := v.(type) {
	case nil:
		return true
	case Text:
		return strings.TrimSpace(string(value)) == ""
	case Number, Bool:
		return false
	case FileRef:
		return value.Name == "" && value.URL == ""
	case StringList:
		return len(value) == 0
	case BranchSet:
		return len(value.Branches) == 0
	default:
		panic(fmt.Sprintf("models: unhandled field value %T", v))
	}
}

// String renders v with plain string coercion.
func String(v FieldValue) string {
	switch value := v.(type) {
	case nil:
		return ""
	case Text:
		return string(value)
	case Number:
		return strconv.FormatFloat(float64(value), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(value))
	case FileRef:
		return value.Name
	case StringList:
		return strings.Join(value, ", ")
	case BranchSet:
		names := make([]string, 0, len(value.Branches))
		for _, branch := range value.Branches {
			names = append(names, branch.Name)
		}

		return strings.Join(names, ", ")
	default:
		panic(fmt.Sprintf("models: unhandled field value %T", v))
	}
}

// CloneValue returns a deep copy of v.
func CloneValue(v FieldValue) FieldValue {
	switch value := v.(type) {
	case nil:
		return nil
	case Text, Number, Bool, FileRef:
		return value
	case StringList:
		return slices.Clone(value)
	case BranchSet:
		return BranchSet{Branches: CloneBranches(value.Branches)}
	default:
		panic(fmt.Sprintf("models: unhandled field value %T", v))
	}
}

var ErrValueKindMismatch = errors.New("value kind does not match element type")

// ExpectedKind returns the value kind an element of this shape stores, and false for
// presentational elements that store nothing.
func ExpectedKind(e *UIElement) (ValueKind, bool) {
	switch e.Type {
	case ElementText, ElementTextarea, ElementRadio, ElementDate:
		return KindText, true
	case ElementDropdown:
		if e.Multiselect {
			return KindStringList, true
		}

		return KindText, true
	case ElementCheckbox:
		if len(e.Options) > 0 {
			return KindStringList, true
		}

		return KindBool, true
	case ElementToggle:
		return KindBool, true
	case ElementNumber:
		return KindNumber, true
	case ElementFileUpload:
		return KindFile, true
	case ElementScreeningQuestions, ElementEventsModule:
		return KindStringList, true
	case ElementConditionsModule, ElementTriggerConditionsModule:
		return KindBranchSet, true
	case ElementButton, ElementSectionDivider, ElementTextBlock:
		return "", false
	default:
		return "", false
	}
}

// CheckValueKind reports an error when v cannot be stored on element e.
func CheckValueKind(e *UIElement, v FieldValue) error {
	if v == nil {
		return nil
	}

	want, ok := ExpectedKind(e)
	if !ok {
		return fmt.Errorf("%w: %s elements carry no value", ErrValueKindMismatch, e.Type)
	}

	if v.Kind() != want {
		return fmt.Errorf("%w: %s element expects %s, got %s", ErrValueKindMismatch, e.Type, want, v.Kind())
	}

	return nil
}

type valueEnvelope struct {
	Kind  ValueKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalValue encodes v as a {"kind", "value"} envelope.
func MarshalValue(v FieldValue) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return json.Marshal(valueEnvelope{Kind: v.Kind(), Value: raw})
}

// UnmarshalValue decodes a {"kind", "value"} envelope.
func UnmarshalValue(data []byte) (FieldValue, error) {
	if string(data) == "null" {
		return nil, nil
	}

	var envelope valueEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode field value: %w", err)
	}

	return decodeKind(envelope.Kind, envelope.Value)
}

func decodeKind(kind ValueKind, raw json.RawMessage) (FieldValue, error) {
	var err error

	switch kind {
	case KindText:
		var v Text
		err = json.Unmarshal(raw, &v)

		return v, err
	case KindNumber:
		var v Number
		err = json.Unmarshal(raw, &v)

		return v, err
	case KindBool:
		var v Bool
		err = json.Unmarshal(raw, &v)

		return v, err
	case KindFile:
		var v FileRef
		err = json.Unmarshal(raw, &v)

		return v, err
	case KindStringList:
		var v StringList
		err = json.Unmarshal(raw, &v)

		return v, err
	case KindBranchSet:
		var v BranchSet
		err = json.Unmarshal(raw, &v)

		return v, err
	default:
		return nil, fmt.Errorf("unknown field value kind %q", kind)
	}
}

// DecodeForElement decodes a bare JSON scalar or array into the value kind element e
// stores. Used for template default values and API value edits where the element
// type is known.
func DecodeForElement(e *UIElement, raw json.RawMessage) (FieldValue, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	kind, ok := ExpectedKind(e)
	if !ok {
		return nil, fmt.Errorf("%w: %s elements carry no value", ErrValueKindMismatch, e.Type)
	}

	v, err := decodeKind(kind, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValueKindMismatch, err)
	}

	return v, nil
}

// Values maps element ids to their current values.
type Values map[string]FieldValue

// Clone returns a deep copy of the value bag.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}

	out := make(Values, len(v))
	for id, value := range v {
		out[id] = CloneValue(value)
	}

	return out
}

// MarshalJSON encodes every value as a kind envelope.
func (v Values) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(v))

	for _, id := range slices.Sorted(maps.Keys(v)) {
		raw, err := MarshalValue(v[id])
		if err != nil {
			return nil, fmt.Errorf("failed to encode value %s: %w", id, err)
		}

		out[id] = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes a map of kind envelopes.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Values, len(raw))

	for id, encoded := range raw {
		value, err := UnmarshalValue(encoded)
		if err != nil {
			return fmt.Errorf("value %s: %w", id, err)
		}

		if value != nil {
			out[id] = value
		}
	}

	*v = out

	return nil
}

// FollowUpValue is the string-or-boolean value a conditional follow-up is keyed on.
type FollowUpValue struct {
	text   string
	flag   bool
	isBool bool
}

// FollowUpText returns a string follow-up key.
func FollowUpText(s string) FollowUpValue {
	return FollowUpValue{text: s}
}

// FollowUpBool returns a boolean follow-up key.
func FollowUpBool(b bool) FollowUpValue {
	return FollowUpValue{flag: b, isBool: true}
}

// IsBool reports whether the key is a boolean.
func (f FollowUpValue) IsBool() bool {
	return f.isBool
}

// Text returns the string key; empty for boolean keys.
func (f FollowUpValue) Text() string {
	return f.text
}

// Bool returns the boolean key; false for string keys.
func (f FollowUpValue) Bool() bool {
	return f.flag
}

// Matches compares the key to a field value strictly: booleans only match Bool and
// strings only match Text. No coercion is applied.
func (f FollowUpValue) Matches(v FieldValue) bool {
	switch value := v.(type) {
	case Bool:
		return f.isBool && f.flag == bool(value)
	case Text:
		return !f.isBool && f.text == string(value)
	default:
		return false
	}
}

func (f FollowUpValue) String() string {
	if f.isBool {
		return strconv.FormatBool(f.flag)
	}

	return f.text
}

func (f FollowUpValue) MarshalJSON() ([]byte, error) {
	if f.isBool {
		return json.Marshal(f.flag)
	}

	return json.Marshal(f.text)
}

func (f *FollowUpValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FollowUpBool(b)

		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("conditionValue must be a string or boolean: %w", err)
	}

	*f = FollowUpText(s)

	return nil
}

// MarshalJSON writes the default value as a bare scalar next to the other attributes.
func (e UIElement) MarshalJSON() ([]byte, error) {
	type alias UIElement

	aux := struct {
		alias

		DefaultValue any `json:"defaultValue,omitempty"`
	}{alias: alias(e)}

	if e.DefaultValue != nil {
		aux.DefaultValue = e.DefaultValue
	}

	return json.Marshal(aux)
}

// UnmarshalJSON decodes the default value according to the element's type.
func (e *UIElement) UnmarshalJSON(data []byte) error {
	type alias UIElement

	aux := struct {
		*alias

		DefaultValue json.RawMessage `json:"defaultValue,omitempty"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.DefaultValue) == 0 {
		return nil
	}

	value, err := DecodeForElement(e, aux.DefaultValue)
	if err != nil {
		return fmt.Errorf("element %s default value: %w", e.ID, err)
	}

	e.DefaultValue = value

	return nil
}

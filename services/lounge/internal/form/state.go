package form

import "github.com/appetiteclub/lounge/services/lounge/internal/order"

type State int

const (
	StateIdle State = iota
	StateTemplateMenu
	StateTable
	StateStrength
	StateAroma
	StateStops
	StateBowl
	StateBowlManual
	StateDraft
	StateTea
	StateConfirm
	StateSaveTemplateLabel
)

var stateNames = map[State]string{
	StateIdle:              "IDLE",
	StateTemplateMenu:      "TEMPLATE_MENU",
	StateTable:             "TABLE",
	StateStrength:          "STRENGTH",
	StateAroma:             "AROMA",
	StateStops:             "STOPS",
	StateBowl:              "BOWL",
	StateBowlManual:        "BOWL_MANUAL",
	StateDraft:             "DRAFT",
	StateTea:               "TEA",
	StateConfirm:           "CONFIRM",
	StateSaveTemplateLabel: "SAVE_TEMPLATE_LABEL",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// questionStates maps each question state to the field it collects.
var questionStates = map[State]order.Field{
	StateTable:      order.FieldTable,
	StateStrength:   order.FieldStrength,
	StateAroma:      order.FieldAroma,
	StateStops:      order.FieldStops,
	StateBowl:       order.FieldBowl,
	StateBowlManual: order.FieldBowl,
	StateDraft:      order.FieldDraft,
	StateTea:        order.FieldTea,
}

// fieldStates is the entry state for each field.
var fieldStates = map[order.Field]State{
	order.FieldTable:    StateTable,
	order.FieldStrength: StateStrength,
	order.FieldAroma:    StateAroma,
	order.FieldStops:    StateStops,
	order.FieldBowl:     StateBowl,
	order.FieldDraft:    StateDraft,
	order.FieldTea:      StateTea,
}

// Field returns the field collected in s.
func (s State) Field() (order.Field, bool) {
	f, ok := questionStates[s]
	return f, ok
}

// IsQuestion reports whether s asks the user for a field value.
func (s State) IsQuestion() bool {
	_, ok := questionStates[s]
	return ok
}

// next follows the nominal question order. The last question leads to CONFIRM.
func next(f order.Field) State {
	for i, field := range order.Fields {
		if field == f && i+1 < len(order.Fields) {
			return fieldStates[order.Fields[i+1]]
		}
	}
	return StateConfirm
}

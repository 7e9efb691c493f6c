package form

import "context"

// anyState keys transitions valid in every state. An exact (state, kind)
// entry takes precedence.
const anyState State = -1

type transitionKey struct {
	state State
	kind  ActionKind
}

type transitionFunc func(m *Machine, ctx context.Context, s *Session, act Action) outcome

func newTransitions() map[transitionKey]transitionFunc {
	t := map[transitionKey]transitionFunc{
		{anyState, ActStart}:         (*Machine).start,
		{anyState, ActCancel}:        (*Machine).cancel,
		{anyState, ActMenu}:          (*Machine).cancel,
		{anyState, ActStartOrder}:    (*Machine).startOrder,
		{anyState, ActTemplateMenu}:  (*Machine).openTemplateMenu,
		{anyState, ActApplyTemplate}: (*Machine).applyTemplate,

		{StateBowl, ActBowlManual}: (*Machine).bowlManual,

		{StateConfirm, ActEdit}:         (*Machine).edit,
		{StateConfirm, ActConfirm}:      (*Machine).submit,
		{StateConfirm, ActFastOrder}:    (*Machine).submit,
		{StateConfirm, ActSaveTemplate}: (*Machine).saveTemplate,

		{StateIdle, ActSaveTemplate}: (*Machine).saveTemplate,

		{StateSaveTemplateLabel, ActText}: (*Machine).saveLabel,
	}

	for state := range questionStates {
		t[transitionKey{state, ActText}] = (*Machine).answer
		t[transitionKey{state, ActChoice}] = (*Machine).answer
		t[transitionKey{state, ActSkip}] = (*Machine).skip
		t[transitionKey{state, ActFastOrder}] = (*Machine).submit
	}
	return t
}

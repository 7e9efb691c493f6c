package form

import (
	"strings"

	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/appetiteclub/lounge/services/lounge/internal/ticket"
)

type ActionKind int

const (
	ActUnknown ActionKind = iota
	ActText
	ActSkip
	ActFastOrder
	ActEdit
	ActChoice
	ActBowlManual
	ActConfirm
	ActMarkReady
	ActApplyTemplate
	ActSaveTemplate
	ActCancel
	ActStartOrder
	ActTemplateMenu
	ActMenu
	ActStart
)

// Button tokens.
const (
	TokenSkip          = "skip"
	TokenFastOrder     = "fast_order"
	TokenEditPrefix    = "edit_"
	TokenBowlPrefix    = "bowl_"
	TokenBowlManual    = "bowl_manual"
	TokenStrength      = "strength_"
	TokenDraft         = "draft_"
	TokenConfirm       = "confirm_order"
	TokenApplyTemplate = "apply_template:"
	TokenSaveTemplate  = "save_template"
	TokenCancel        = "cancel"
	TokenStartOrder    = "start_order"
	TokenTemplateMenu  = "template_menu"
	TokenMenu          = "menu"
)

// Action is a decoded inbound event.
type Action struct {
	Kind       ActionKind
	Field      order.Field
	Value      string
	TemplateID string
	TicketID   ticket.ID
}

// ParseAction decodes an inbound event into an action.
func ParseAction(ev chat.Event) Action {
	switch ev.Kind {
	case chat.EventText:
		return Action{Kind: ActText, Value: ev.Text}
	case chat.EventCommand:
		switch strings.ToLower(strings.TrimSpace(ev.Text)) {
		case "start":
			return Action{Kind: ActStart}
		case "menu":
			return Action{Kind: ActMenu}
		case "cancel":
			return Action{Kind: ActCancel}
		}
		return Action{Kind: ActUnknown}
	case chat.EventButton:
		return parseToken(ev.Text)
	}
	return Action{Kind: ActUnknown}
}

func parseToken(token string) Action {
	switch token {
	case TokenSkip:
		return Action{Kind: ActSkip}
	case TokenFastOrder:
		return Action{Kind: ActFastOrder}
	case TokenBowlManual:
		return Action{Kind: ActBowlManual}
	case TokenConfirm:
		return Action{Kind: ActConfirm}
	case TokenSaveTemplate:
		return Action{Kind: ActSaveTemplate}
	case TokenCancel:
		return Action{Kind: ActCancel}
	case TokenStartOrder:
		return Action{Kind: ActStartOrder}
	case TokenTemplateMenu:
		return Action{Kind: ActTemplateMenu}
	case TokenMenu:
		return Action{Kind: ActMenu}
	}

	if id, ok := ticket.ParseReadyToken(token); ok {
		return Action{Kind: ActMarkReady, TicketID: id}
	}

	switch {
	case strings.HasPrefix(token, TokenApplyTemplate):
		return Action{Kind: ActApplyTemplate, TemplateID: strings.TrimPrefix(token, TokenApplyTemplate)}
	case strings.HasPrefix(token, TokenEditPrefix):
		if f, ok := order.ParseField(strings.TrimPrefix(token, TokenEditPrefix)); ok {
			return Action{Kind: ActEdit, Field: f}
		}
	case strings.HasPrefix(token, TokenBowlPrefix):
		return choice(order.FieldBowl, strings.TrimPrefix(token, TokenBowlPrefix))
	case strings.HasPrefix(token, TokenStrength):
		return choice(order.FieldStrength, strings.TrimPrefix(token, TokenStrength))
	case strings.HasPrefix(token, TokenDraft):
		return choice(order.FieldDraft, strings.TrimPrefix(token, TokenDraft))
	}
	return Action{Kind: ActUnknown}
}

func choice(f order.Field, value string) Action {
	if strings.TrimSpace(value) == "" {
		return Action{Kind: ActUnknown}
	}
	return Action{Kind: ActChoice, Field: f, Value: value}
}

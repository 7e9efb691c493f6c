package form

import (
	"fmt"
	"strings"

	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/appetiteclub/lounge/services/lounge/internal/template"
)

const (
	textMainMenu       = "Главное меню:"
	textOrderSent      = "Спасибо! Ваш заказ отправлен."
	textOrderFailed    = "⚠️ Не удалось отправить заказ. Попробуйте ещё раз."
	textTemplateLost   = "Шаблон не найден."
	textNoTemplates    = "Нет сохранённых быстрых заказов."
	textTemplatesDown  = "⚠️ Быстрые заказы сейчас недоступны."
	textPickTemplate   = "Выберите быстрый заказ:"
	textLabelPrompt    = "Введите подпись для шаблона (например, ФИО гостя):"
	textLabelEmpty     = "Подпись не может быть пустой."
	textNothingToSave  = "Нет заказа для сохранения."
	textTemplateFailed = "⚠️ Не удалось сохранить шаблон."
	textTableEmpty     = "Номер стола не может быть пустым."
	textConfirm        = "Проверьте заказ. Нажмите на поле, чтобы изменить его:"
	textUseButtons     = "Воспользуйтесь кнопками ниже."
)

var prompts = map[State]string{
	StateTable:      "Введите номер стола:",
	StateStrength:   "Выберите крепость или введите свою:",
	StateAroma:      "Введите ароматику:",
	StateStops:      "Введите стопы (чего не добавлять):",
	StateBowl:       "Выберите чашу:",
	StateBowlManual: "Введите чашу вручную:",
	StateDraft:      "Выберите тягу:",
	StateTea:        "Какой чай подать?",
}

func btn(text, token string) chat.Button {
	return chat.Button{Text: text, Token: token}
}

func withNotice(notice, text string) string {
	if notice == "" {
		return text
	}
	return notice + "\n\n" + text
}

func idleView(s *Session, notice string) chat.View {
	var kb [][]chat.Button
	if s.LastOrder != nil {
		kb = append(kb, []chat.Button{btn("💾 Сохранить как шаблон", TokenSaveTemplate)})
	}
	kb = append(kb,
		[]chat.Button{btn("📝 Сделать заказ", TokenStartOrder)},
		[]chat.Button{btn("⚡ Быстрый заказ", TokenTemplateMenu)},
	)
	return chat.View{Text: withNotice(notice, textMainMenu), Keyboard: kb}
}

func templateMenuView(templates []template.Template, notice string) chat.View {
	back := []chat.Button{btn("🔙 В меню", TokenMenu)}
	if len(templates) == 0 {
		return chat.View{Text: withNotice(notice, textNoTemplates), Keyboard: [][]chat.Button{back}}
	}

	kb := make([][]chat.Button, 0, len(templates)+1)
	for _, tpl := range templates {
		kb = append(kb, []chat.Button{btn(tpl.Label, TokenApplyTemplate+tpl.ID.String())})
	}
	kb = append(kb, back)
	return chat.View{Text: withNotice(notice, textPickTemplate), Keyboard: kb}
}

func choiceRows(rows [][]string, prefix string) [][]chat.Button {
	kb := make([][]chat.Button, 0, len(rows))
	for _, row := range rows {
		line := make([]chat.Button, 0, len(row))
		for _, text := range row {
			line = append(line, btn(text, prefix+text))
		}
		kb = append(kb, line)
	}
	return kb
}

func questionView(s *Session, notice string) chat.View {
	var kb [][]chat.Button
	switch s.State {
	case StateStrength:
		kb = choiceRows(order.StrengthChoices, TokenStrength)
	case StateBowl:
		kb = choiceRows(order.BowlChoices, TokenBowlPrefix)
		kb = append(kb, []chat.Button{btn("Ввести вручную", TokenBowlManual)})
	case StateDraft:
		kb = choiceRows([][]string{order.DraftChoices}, TokenDraft)
	}
	kb = append(kb,
		[]chat.Button{btn("⏭ Пропустить", TokenSkip), btn("⚡ Отправить сейчас", TokenFastOrder)},
		[]chat.Button{btn("❌ Отмена", TokenCancel)},
	)

	text := prompts[s.State]
	if collected := progress(s.Values); collected != "" {
		text = collected + "\n\n" + text
	}
	return chat.View{Text: withNotice(notice, text), Keyboard: kb}
}

// progress lists the answers collected so far.
func progress(values order.Values) string {
	var lines []string
	for _, f := range order.Fields {
		if _, ok := values.Get(f); ok {
			lines = append(lines, fmt.Sprintf("%s: %s", f.Label(), values.Display(f)))
		}
	}
	return strings.Join(lines, "\n")
}

func confirmView(s *Session, notice string) chat.View {
	kb := make([][]chat.Button, 0, len(order.Fields)+3)
	for _, f := range order.Fields {
		kb = append(kb, []chat.Button{btn(fmt.Sprintf("%s: %s", f.Label(), s.Values.Display(f)), TokenEditPrefix+string(f))})
	}
	kb = append(kb,
		[]chat.Button{btn("✅ Отправить заказ", TokenConfirm)},
		[]chat.Button{btn("💾 Сохранить как шаблон", TokenSaveTemplate)},
		[]chat.Button{btn("❌ Отмена", TokenCancel)},
	)

	text := textConfirm
	if s.Zone != nil {
		text = fmt.Sprintf("Зона: %s\n%s", s.Zone.Zone, text)
	}
	return chat.View{Text: withNotice(notice, text), Keyboard: kb}
}

func saveLabelView(notice string) chat.View {
	return chat.View{
		Text:     withNotice(notice, textLabelPrompt),
		Keyboard: [][]chat.Button{{btn("❌ Отмена", TokenCancel)}},
	}
}

package ticket

import (
	"strings"
	"testing"

	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/appetiteclub/lounge/services/lounge/internal/zone"
)

func TestSummaryFixedOrder(t *testing.T) {
	values := order.Values{
		order.FieldTable: "5",
		order.FieldAroma: "Mint",
		order.FieldStops: "",
	}
	z := zone.Result{Zone: "1 Зона", TopicID: 2, Resolved: true}

	got := Summary("guest", 7, values, z)
	want := strings.Join([]string{
		"Новый заказ от пользователя @guest:",
		"Зона: 1 Зона",
		"Стол: 5",
		"Крепость: ❌ Не выбрано",
		"Ароматика: Mint",
		"Стопы: —",
		"Чаша: ❌ Не выбрано",
		"Тяга: ❌ Не выбрано",
		"Чай: ❌ Не выбрано",
	}, "\n")

	if got != want {
		t.Errorf("Summary() =\n%s\nwant\n%s", got, want)
	}
}

func TestSummaryStableLineCount(t *testing.T) {
	z := zone.Result{Zone: "2 Зона", TopicID: 3, Resolved: true}
	empty := Summary("a", 1, order.Values{}, z)
	full := Summary("a", 1, order.Values{
		order.FieldTable:    "20",
		order.FieldStrength: "Крепкий",
		order.FieldAroma:    "Mint",
		order.FieldStops:    "нет",
		order.FieldBowl:     "Фольга",
		order.FieldDraft:    "Union",
		order.FieldTea:      "Пуэр",
	}, z)

	if strings.Count(empty, "\n") != strings.Count(full, "\n") {
		t.Errorf("line count differs: %d vs %d", strings.Count(empty, "\n"), strings.Count(full, "\n"))
	}
}

func TestSummaryUnresolved(t *testing.T) {
	got := Summary("", 42, order.Values{order.FieldTable: "99"}, zone.Result{Zone: zone.UnresolvedZone})

	lines := strings.Split(got, "\n")
	if lines[0] != "(Не определена зона для стола 99)" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[1] != "Новый заказ от пользователя id42:" {
		t.Errorf("header = %q", lines[1])
	}
}

func TestParseReadyToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		want   ID
		wantOK bool
	}{
		{name: "valid", token: "mark_ready:123", want: "123", wantOK: true},
		{name: "empty", token: "mark_ready:", wantOK: false},
		{name: "otherToken", token: "confirm_order", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReadyToken(tt.token)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseReadyToken(%q) = %q, %v", tt.token, got, ok)
			}
		})
	}

	if id, _ := ParseReadyToken(ReadyToken("999")); id != "999" {
		t.Errorf("round trip id = %q", id)
	}
}

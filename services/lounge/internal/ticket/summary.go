package ticket

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
	"github.com/appetiteclub/lounge/services/lounge/internal/order"
	"github.com/appetiteclub/lounge/services/lounge/internal/zone"
)

const (
	ReadyButtonText = "✅ Кальян отдан"
	readyHeadline   = "✅ Кальян отдан!"
	readyWaitPrefix = "⏱ Время ожидания: "
	MarkReadyPrefix = "mark_ready:"
)

// Summary renders every field in fixed order so two orders always produce
// the same set of lines.
func Summary(username string, userID int64, values order.Values, z zone.Result) string {
	var b strings.Builder

	if !z.Resolved {
		fmt.Fprintf(&b, "(Не определена зона для стола %s)\n", values.Display(order.FieldTable))
	}
	fmt.Fprintf(&b, "Новый заказ от пользователя %s:\n", displayName(username, userID))
	fmt.Fprintf(&b, "Зона: %s\n", z.Zone)
	for i, f := range order.Fields {
		fmt.Fprintf(&b, "%s: %s", f.Label(), values.Display(f))
		if i < len(order.Fields)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func displayName(username string, userID int64) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return "id" + strconv.FormatInt(userID, 10)
	}
	return "@" + username
}

// ReadyText is the ticket message after the order was handed over.
func ReadyText(summary string, elapsed string) string {
	return summary + "\n\n" + readyHeadline + "\n" + readyWaitPrefix + elapsed
}

// ReadyToken is the button payload carried by ticket messages.
func ReadyToken(id ID) string {
	return MarkReadyPrefix + string(id)
}

// ParseReadyToken extracts the ticket id from a mark_ready token.
func ParseReadyToken(token string) (ID, bool) {
	if !strings.HasPrefix(token, MarkReadyPrefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(token, MarkReadyPrefix))
	if id == "" {
		return "", false
	}
	return ID(id), true
}

func pendingView(t Ticket) chat.View {
	return chat.View{
		Text:     t.Summary,
		Keyboard: [][]chat.Button{{{Text: ReadyButtonText, Token: ReadyToken(t.ID)}}},
	}
}

// readyView keeps the control so a repeated press re-displays the elapsed time.
func readyView(t Ticket) chat.View {
	elapsed := FormatElapsed(t.Elapsed)
	return chat.View{
		Text:     ReadyText(t.Summary, elapsed),
		Keyboard: [][]chat.Button{{{Text: "⏱ " + elapsed, Token: ReadyToken(t.ID)}}},
	}
}

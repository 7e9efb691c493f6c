package event

import (
	"testing"
	"time"
)

func TestType(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{name: "created", data: `{"event_type":"order.ticket.created","ticket_id":"1"}`, want: EventOrderTicketCreated},
		{name: "missing", data: `{"ticket_id":"1"}`, want: ""},
		{name: "invalid", data: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Type([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Type() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Type() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeFlattensMetadata(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := Encode(OrderTicketReadyEvent{
		OrderTicketEventMetadata: OrderTicketEventMetadata{
			EventType:  EventOrderTicketReady,
			OccurredAt: now,
			TicketID:   "42",
		},
		ElapsedSeconds: 65,
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	typ, err := Type(data)
	if err != nil || typ != EventOrderTicketReady {
		t.Fatalf("Type() = %q, %v", typ, err)
	}

	var got OrderTicketReadyEvent
	if err := Decode(data, &got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.TicketID != "42" || got.ElapsedSeconds != 65 {
		t.Errorf("Decode() = %+v", got)
	}
}

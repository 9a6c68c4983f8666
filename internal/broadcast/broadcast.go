package broadcast

import (
	"chinchi/internal/game"
	"chinchi/internal/wshub"
	"log"
)

// Sender delivers one encoded frame to one connection.
type Sender interface {
	Send(connID string, data []byte) bool
}

// Broadcaster executes the commands returned by game transitions.
type Broadcaster struct {
	out Sender
}

func NewBroadcaster(out Sender) *Broadcaster {
	return &Broadcaster{out: out}
}

// Execute encodes each command once and hands it to every recipient.
// Delivery is fire-and-forget.
func (b *Broadcaster) Execute(cmds []game.Command) {
	for _, cmd := range cmds {
		if len(cmd.To) == 0 {
			continue
		}
		data, err := wshub.Encode(cmd.Event, cmd.Payload)
		if err != nil {
			log.Printf("[Broadcast] encoding %s: %v\n", cmd.Event, err)
			continue
		}
		for _, id := range cmd.To {
			b.out.Send(id, data)
		}
	}
}

// Unicast sends a single event to one connection.
func (b *Broadcaster) Unicast(connID, event string, payload any) {
	b.Execute([]game.Command{{To: []string{connID}, Event: event, Payload: payload}})
}

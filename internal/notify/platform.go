package notify

import (
	"time"

	"github.com/dmaia/echochat/internal/bus"
)

// BusPlatform is the default Platform: it forwards requests onto the event
// bus for whatever front-end is attached.
type BusPlatform struct {
	bus *bus.Bus
}

func NewBusPlatform(b *bus.Bus) *BusPlatform {
	return &BusPlatform{bus: b}
}

func (p *BusPlatform) Notify(n Notification) {
	p.bus.Publish(bus.Event{
		Kind:      bus.KindNotification,
		Timestamp: time.Now(),
		Payload:   n,
	})
}

func (p *BusPlatform) Cancel(id int) {
	p.bus.Publish(bus.Event{
		Kind:      bus.KindNotificationGone,
		Timestamp: time.Now(),
		Payload:   id,
	})
}

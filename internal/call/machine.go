// Package call tracks the single in-progress call and the pending inbound
// invitations. Signaling events arrive on the receive loop; UI-triggered
// accepts/hangups come from other goroutines, so the machine locks.
package call

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dmaia/echochat/internal/bus"
	"github.com/dmaia/echochat/internal/chat"
)

// State is a call signaling state.
type State string

const (
	Idle           State = "IDLE"
	Invited        State = "INVITED"
	OfferSent      State = "OFFER_SENT"
	OfferReceived  State = "OFFER_RECEIVED"
	AnswerSent     State = "ANSWER_SENT"
	AnswerReceived State = "ANSWER_RECEIVED"
	Connected      State = "CONNECTED"
	Ended          State = "ENDED"
)

// validTransitions defines allowed signaling transitions. Ended is reachable
// from every non-idle state so a hangup always lands.
var validTransitions = map[State][]State{
	Idle:           {Invited},
	Invited:        {OfferSent, OfferReceived, Ended},
	OfferSent:      {AnswerReceived, Ended},
	OfferReceived:  {AnswerSent, Ended},
	AnswerSent:     {Connected, Ended},
	AnswerReceived: {Connected, Ended},
	Connected:      {Ended},
	Ended:          {},
}

// Call is the single active call.
type Call struct {
	Contact   chat.Contact
	State     State
	Media     chat.CallMediaType
	SharedKey string
}

// Machine enforces the at-most-one-active-call invariant: while a call is
// in progress, signaling for any other contact is ignored and logged.
type Machine struct {
	mu          sync.RWMutex
	active      *Call
	invitations map[int64]chat.RcvCallInvitation

	bus *bus.Bus
	log *zap.Logger
}

func NewMachine(b *bus.Bus, log *zap.Logger) *Machine {
	return &Machine{
		invitations: make(map[int64]chat.RcvCallInvitation),
		bus:         b,
		log:         log,
	}
}

// Active returns a copy of the in-progress call, or nil.
func (m *Machine) Active() *Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil
	}
	c := *m.active
	return &c
}

// Invitations returns the pending inbound invitations.
func (m *Machine) Invitations() []chat.RcvCallInvitation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chat.RcvCallInvitation, 0, len(m.invitations))
	for _, inv := range m.invitations {
		out = append(out, inv)
	}
	return out
}

// Invitation returns the pending invitation from a contact, if any.
func (m *Machine) Invitation(contactID int64) (chat.RcvCallInvitation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invitations[contactID]
	return inv, ok
}

// Invite records an inbound invitation and, when no call is in progress,
// makes it the active call. A second caller never displaces the first.
func (m *Machine) Invite(inv chat.RcvCallInvitation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invitations[inv.Contact.ContactID] = inv

	if m.active != nil {
		if m.active.Contact.ContactID != inv.Contact.ContactID {
			m.log.Info("call invitation while busy",
				zap.Int64("contactId", inv.Contact.ContactID),
				zap.Int64("activeContactId", m.active.Contact.ContactID))
		}
		return
	}
	m.active = &Call{
		Contact:   inv.Contact,
		State:     Invited,
		Media:     inv.CallType.Media,
		SharedKey: inv.SharedKey,
	}
	m.publishState()
}

// StartOutgoing makes an outbound invitation the active call. It fails if
// another call is already in progress.
func (m *Machine) StartOutgoing(ct chat.Contact, media chat.CallMediaType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return fmt.Errorf("call already in progress with contact %d", m.active.Contact.ContactID)
	}
	m.active = &Call{Contact: ct, State: Invited, Media: media}
	m.publishState()
	return nil
}

// Transition applies a signaling step for the given contact. Steps naming a
// contact other than the active call's are ignored and logged; invalid
// transitions for the right contact are errors.
func (m *Machine) Transition(contactID int64, to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		m.log.Info("call signaling with no active call",
			zap.Int64("contactId", contactID), zap.String("to", string(to)))
		return nil
	}
	if m.active.Contact.ContactID != contactID {
		m.log.Info("call signaling for wrong contact, ignoring",
			zap.Int64("contactId", contactID),
			zap.Int64("activeContactId", m.active.Contact.ContactID),
			zap.String("to", string(to)))
		return nil
	}

	allowed := validTransitions[m.active.State]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid call transition from %s to %s", m.active.State, to)
	}

	if to == Ended {
		m.endLocked(contactID)
		return nil
	}
	m.active.State = to
	m.publishState()
	return nil
}

// End terminates the call with the given contact, clearing the active call
// and its invitation. Ending an already-ended or foreign call is a no-op.
func (m *Machine) End(contactID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.Contact.ContactID != contactID {
		m.removeInvitationLocked(contactID)
		return
	}
	m.endLocked(contactID)
}

// RemoveInvitation drops a pending invitation without touching the call.
func (m *Machine) RemoveInvitation(contactID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeInvitationLocked(contactID)
}

// endLocked requires the lock held and a matching active call.
func (m *Machine) endLocked(contactID int64) {
	m.active.State = Ended
	m.publishState()
	m.active = nil
	m.removeInvitationLocked(contactID)
}

func (m *Machine) removeInvitationLocked(contactID int64) {
	if _, ok := m.invitations[contactID]; ok {
		delete(m.invitations, contactID)
	}
}

func (m *Machine) publishState() {
	if m.bus == nil || m.active == nil {
		return
	}
	m.bus.Publish(bus.Event{
		Kind:      bus.KindCallStateChanged,
		Timestamp: time.Now(),
		Payload:   *m.active,
	})
}

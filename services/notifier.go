package services

import (
	"fmt"

	pubnub "github.com/pubnub/go"

	"eventpass/models"
)

// Notifier pushes realtime ticketing updates over PubNub: the buyer's
// personal channel and the host channel for the event. A nil PubNub
// client turns every publish into a no-op, so the core works without
// realtime configured.
type Notifier struct {
	pubnub *pubnub.PubNub
}

func NewNotifier(pn *pubnub.PubNub) *Notifier {
	return &Notifier{pubnub: pn}
}

func (n *Notifier) publish(channel string, message map[string]any) {
	if n == nil || n.pubnub == nil {
		return
	}
	n.pubnub.Publish().
		Channel(channel).
		Message(message).
		Execute()
}

func (n *Notifier) TicketIssued(ticket *models.Ticket) {
	message := map[string]any{
		"type":      "ticket_issued",
		"ticket_id": ticket.ID,
		"event_id":  ticket.EventID,
		"seat":      ticket.SeatNumber,
	}
	n.publish(fmt.Sprintf("user-%s", ticket.UserID), message)
	n.publish(fmt.Sprintf("host-%s", ticket.EventID), message)
}

func (n *Notifier) CheckinConfirmed(ticket *models.Ticket) {
	message := map[string]any{
		"type":      "checkin_confirmed",
		"ticket_id": ticket.ID,
		"event_id":  ticket.EventID,
		"seat":      ticket.SeatNumber,
		"guest":     ticket.UserName,
	}
	n.publish(fmt.Sprintf("host-%s", ticket.EventID), message)
}

// Package channel implements the delivery transports used by the
// notification dispatcher: Redis real-time fan-out, SNS device push and SES
// e-mail.
package channel

import "time"

// Message is the rendered notification handed to every transport.
type Message struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Icon        string    `json:"icon"`
	Type        string    `json:"type"`
	ClaimID     string    `json:"claim_id,omitempty"`
	ClickAction string    `json:"click_action"`
	Timestamp   time.Time `json:"timestamp"`
}

// Data is the string map attached to device pushes for client deep-linking.
func (m Message) Data() map[string]string {
	return map[string]string{
		"type":         m.Type,
		"claim_id":     m.ClaimID,
		"click_action": m.ClickAction,
	}
}

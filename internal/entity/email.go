package entity

import "time"

// EmailData is an inbound email candidate for invoice processing. It is owned
// by the caller and never persisted; the pipeline only reads it.
type EmailData struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	From       string    `json:"from"`
	ReceivedAt time.Time `json:"received_at"`
}

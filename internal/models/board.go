package models

import "time"

// MessagePreview is the last inbound/outbound message for a contact, shown
// on the board card. This core only reads previews, it never sends.
type MessagePreview struct {
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// DealCard is a deal joined with the display fields the board needs.
type DealCard struct {
	Deal
	ContactName     string          `json:"contact_name"`
	ContactPhone    string          `json:"contact_phone"`
	Temperature     Temperature     `json:"lead_temperature"`
	ResponsibleName string          `json:"responsible_name"`
	LastMessage     *MessagePreview `json:"last_message,omitempty"`
}

type BoardColumn struct {
	Stage Stage      `json:"stage"`
	Deals []DealCard `json:"deals"`
}

// Board is a read-only projection of one pipeline; it enforces nothing.
type Board struct {
	Pipeline Pipeline      `json:"pipeline"`
	Columns  []BoardColumn `json:"columns"`
}

package models

import "time"

// Attachment is a media item delivered with an inbound message
type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// InboundEvent is one message delivered by the channel
type InboundEvent struct {
	MessageID   string       `json:"message_id"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReceivedAt  time.Time    `json:"received_at"`
}

// HasAttachments reports whether media came with the message
func (e *InboundEvent) HasAttachments() bool {
	return len(e.Attachments) > 0
}

// Media is a downloaded attachment
type Media struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Extraction is what the document extractor returned for one file
type Extraction struct {
	Text       string `json:"text"`
	Key        string `json:"chave,omitempty"`
	StorageRef string `json:"temp_path,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ConversationEntry is one logged exchange
type ConversationEntry struct {
	TenantID  int64
	Sender    string
	Inbound   string
	Outbound  string
	MediaLink string
}

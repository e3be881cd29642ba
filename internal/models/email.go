package models

// NotificationEmail is the fully built outbound message handed to the mail
// transport. To is set for a single recipient; multiple recipients go on Bcc
// so they stay hidden from each other.
type NotificationEmail struct {
	Subject      string   `json:"subject"`
	TextBody     string   `json:"text_body"`
	HTMLBody     string   `json:"html_body"`
	To           string   `json:"to,omitempty"`
	Bcc          []string `json:"bcc,omitempty"`
	ReplyTo      string   `json:"reply_to,omitempty"`
	HighPriority bool     `json:"high_priority,omitempty"`
}

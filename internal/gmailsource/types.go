package gmailsource

import "time"

// Attachment is one inline part of a message, keyed by its content id.
type Attachment struct {
	ContentID   string
	ContentType string
	Data        []byte
}

// Message holds the parts of a Gmail message this system consumes.
type Message struct {
	ID          string
	Subject     string
	From        string
	To          string
	Cc          string
	Date        time.Time
	PlainBody   string
	HTMLBody    string
	Attachments []Attachment
}

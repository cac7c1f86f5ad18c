package models

// Message is a single outbound notification handed to a mail channel.
type Message struct {
	ID      string
	From    string
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

package common

// EmailSender delivers transactional mail: password resets, order and
// payment notifications. The worker binary owns real delivery; handlers
// only ever see this interface.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is one captured message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail collects messages instead of delivering them, so tests can
// assert on the outbox.
type InMemoryEmail struct {
	Outbox []Email
}

func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender drops every message. Used when mail is disabled.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }

package notify

import "github.com/rs/zerolog"

// LogEmailSender writes outgoing mail to the log instead of an SMTP relay.
// It stands in for a real delivery integration in development environments.
type LogEmailSender struct {
	Logger *zerolog.Logger
	From   string
}

// Send implements common.EmailSender.
func (s LogEmailSender) Send(to, subject, html string) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info().
		Str("from", s.From).
		Str("to", to).
		Str("subject", subject).
		Str("body", html).
		Msg("email dispatched")
	return nil
}

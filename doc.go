// Package smtpkit is a thin convenience SDK for sending email through the
// SMTP endpoints of well-known providers (Gmail, Outlook, Yahoo).
//
// It wraps a single authenticated SMTP session with send helpers: plain and
// HTML sends, per-recipient bulk delivery, literal {{key}} template
// substitution, and retry with exponential backoff. There is no queueing,
// no delivery tracking and no connection pooling; one Mailer owns one
// session.
//
// # Usage
//
// Credentials come from the Config or from MAILER_EMAIL, MAILER_PASSWORD
// and MAILER_PROVIDER:
//
//	m, err := smtpkit.New(smtpkit.Config{
//		Email:    "you@gmail.com",
//		Password: "app-password",
//		Provider: smtpkit.ProviderGmail,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = m.Session(ctx, func(m *smtpkit.Mailer) error {
//		return m.Send(ctx, smtpkit.Message{
//			To:      "friend@example.com",
//			Subject: "Hi",
//			Body:    "Hello!",
//		})
//	})
//
// Session connects, runs the function and always closes the session, even
// when the function returns an error. Manual lifecycle management with
// Connect and Close is equally supported.
//
// # Providers
//
// The provider table is fixed: gmail (smtp.gmail.com), outlook
// (smtp.office365.com) and yahoo (smtp.mail.yahoo.com), all on port 587
// with STARTTLS. An unknown provider name fails New with a validation
// error before any network activity.
//
// # Errors
//
// Every failure is an *Error carrying a kind, a numeric code and a
// message. The four kinds are matched with errors.Is against the
// sentinels ErrValidation, ErrAuth, ErrConnect and ErrSend. Connect and
// send failures are transient and retried by SendWithRetry; validation
// and auth failures never are.
//
// # Logging
//
// The Mailer is silent by default. Pass WithLogger to receive structured
// diagnostics through log/slog at debug through error levels.
package smtpkit

// Package notifier delivers the publication report by email.
//
// # Drivers
//
// Three drivers implement check.Mailer:
//
//   - ses: Amazon SES v2 SendEmail, the production channel.
//   - smtp: plain SMTP with optional STARTTLS and PLAIN auth.
//   - stdout: writes "Subject: ..." and the body to a writer. It is what the
//     local runner uses for dry runs.
//
// A report is sent exactly once. Failures are returned to the caller and not
// retried here.
package notifier

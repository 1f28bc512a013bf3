// Package mail delivers digests over SMTP. Each Send opens one session
// (implicit TLS on port 465, STARTTLS otherwise) under a single deadline,
// authenticates whenever credentials are configured, submits one multipart
// message built with gomail and closes the session. Failures are classified
// into an ErrorKind instead of being returned to the caller.
package mail

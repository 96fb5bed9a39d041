// Package timeouts defines shared timeout constants used across LMS processes.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Request caps the time allowed for a single API request, uploads included.
const Request = 2 * time.Minute

// Idle limits how long keep-alive connections stay open between requests.
const Idle = 2 * time.Minute

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// MailSend caps one SMTP dial-and-send exchange.
const MailSend = 30 * time.Second

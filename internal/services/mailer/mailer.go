// Package mailer abstracts the SMTP transport used by the email service.
package mailer

import (
	"sync"

	"gopkg.in/mail.v2"
)

// Sender delivers composed messages. *mail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

var _ Sender = (*mail.Dialer)(nil)

// NewSMTPSender returns a dialer for the given SMTP server
func NewSMTPSender(host string, port int, username, password string) *mail.Dialer {
	return mail.NewDialer(host, port, username, password)
}

// RecordingSender keeps every message instead of delivering it
type RecordingSender struct {
	mu       sync.Mutex
	messages []*mail.Message
	Err      error
}

// DialAndSend records the messages, or returns Err when set
func (r *RecordingSender) DialAndSend(m ...*mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, m...)
	return nil
}

// Messages returns the recorded messages
func (r *RecordingSender) Messages() []*mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*mail.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

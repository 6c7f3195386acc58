// Package notify sends guardian arrival messages over WhatsApp. The provider
// is chosen once at boot from a Config value and never re-read from the
// environment.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderOff    = "off"
	ProviderWappie = "wappie"
	ProviderMeta   = "meta"
	ProviderTwilio = "twilio"
)

var ErrUnknownProvider = errors.New("unknown whatsapp provider")

type Config struct {
	Provider string
	Wappie   WappieConfig
	Meta     MetaConfig
	Twilio   TwilioConfig
}

type Arrival struct {
	To          string
	StudentName string
	SchoolName  string
	At          time.Time
	PhotoURL    string
}

type Result struct {
	Provider string
	Skipped  bool
	Reason   string
}

type Sender interface {
	Send(ctx context.Context, arrival Arrival) (Result, error)
}

// New builds the configured sender. A nil client falls back to one with a
// conservative timeout.
func New(cfg Config, client *http.Client) (Sender, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	var inner Sender
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOff:
		return Off{}, nil
	case ProviderWappie:
		sender, err := NewWappie(cfg.Wappie, client)
		if err != nil {
			return nil, err
		}
		inner = sender
	case ProviderMeta:
		sender, err := NewMeta(cfg.Meta, client)
		if err != nil {
			return nil, err
		}
		inner = sender
	case ProviderTwilio:
		sender, err := NewTwilio(cfg.Twilio)
		if err != nil {
			return nil, err
		}
		inner = sender
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	return recipientGuard{next: inner}, nil
}

type Off struct{}

func (Off) Send(context.Context, Arrival) (Result, error) {
	return Result{Provider: ProviderOff, Skipped: true, Reason: "provider off"}, nil
}

// recipientGuard turns a missing guardian number into a skip.
type recipientGuard struct {
	next Sender
}

func (g recipientGuard) Send(ctx context.Context, arrival Arrival) (Result, error) {
	arrival.To = normalizePhone(arrival.To)
	if arrival.To == "" {
		return Result{Skipped: true, Reason: "missing guardian whatsapp"}, nil
	}
	return g.next.Send(ctx, arrival)
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func arrivalMessage(a Arrival) string {
	var b strings.Builder
	b.WriteString("✅ Attendance marked\n")
	fmt.Fprintf(&b, "Student: %s\n", a.StudentName)
	fmt.Fprintf(&b, "Time: %s\n", a.At.Format("02 Jan 2006, 03:04 PM"))
	if a.SchoolName != "" {
		fmt.Fprintf(&b, "School: %s\n", a.SchoolName)
	}
	return b.String()
}

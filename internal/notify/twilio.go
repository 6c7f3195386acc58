package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	// From is the WhatsApp-enabled sender number, with or without "+".
	From string
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type Twilio struct {
	from string
	api  messageCreator
}

func NewTwilio(cfg TwilioConfig) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, errors.New("missing env: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_FROM are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Twilio{from: whatsappAddress(cfg.From), api: client.Api}, nil
}

func (t *Twilio) Send(ctx context.Context, arrival Arrival) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(whatsappAddress(arrival.To))
	params.SetFrom(t.from)
	params.SetBody(arrivalMessage(arrival))
	if arrival.PhotoURL != "" {
		params.SetMediaUrl([]string{arrival.PhotoURL})
	}
	if _, err := t.api.CreateMessage(params); err != nil {
		return Result{}, err
	}
	return Result{Provider: ProviderTwilio}, nil
}

func whatsappAddress(number string) string {
	number = strings.TrimPrefix(strings.TrimSpace(number), "whatsapp:")
	return "whatsapp:+" + normalizePhone(number)
}

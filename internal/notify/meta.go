package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const defaultGraphURL = "https://graph.facebook.com"

// MetaConfig targets the WhatsApp Cloud API.
type MetaConfig struct {
	Token         string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string
}

type Meta struct {
	cfg    MetaConfig
	client *http.Client
}

func NewMeta(cfg MetaConfig, client *http.Client) (*Meta, error) {
	if cfg.Token == "" || cfg.PhoneNumberID == "" {
		return nil, errors.New("missing env: META_ACCESS_TOKEN and META_PHONE_NUMBER_ID are required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v19.0"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGraphURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Meta{cfg: cfg, client: client}, nil
}

type metaText struct {
	Body string `json:"body"`
}

type metaImage struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type metaMessage struct {
	MessagingProduct string     `json:"messaging_product"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Text             *metaText  `json:"text,omitempty"`
	Image            *metaImage `json:"image,omitempty"`
}

func (m *Meta) Send(ctx context.Context, arrival Arrival) (Result, error) {
	msg := metaMessage{MessagingProduct: "whatsapp", To: arrival.To}
	if arrival.PhotoURL != "" {
		msg.Type = "image"
		msg.Image = &metaImage{Link: arrival.PhotoURL, Caption: arrivalMessage(arrival)}
	} else {
		msg.Type = "text"
		msg.Text = &metaText{Body: arrivalMessage(arrival)}
	}
	url := fmt.Sprintf("%s/%s/%s/messages", m.cfg.BaseURL, m.cfg.APIVersion, m.cfg.PhoneNumberID)
	headers := map[string]string{"Authorization": "Bearer " + m.cfg.Token}
	if err := postJSON(ctx, m.client, url, headers, msg); err != nil {
		return Result{}, err
	}
	return Result{Provider: ProviderMeta}, nil
}

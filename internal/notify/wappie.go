package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// WappieConfig describes a generic JSON messaging API. Field names, auth
// header and endpoint paths vary per account and are all configurable.
type WappieConfig struct {
	BaseURL       string
	APIKey        string
	AuthHeader    string
	AuthPrefix    string
	TextPath      string
	ImagePath     string
	FieldTo       string
	FieldText     string
	FieldImageURL string
	FieldCaption  string
}

type Wappie struct {
	cfg    WappieConfig
	client *http.Client
}

func NewWappie(cfg WappieConfig, client *http.Client) (*Wappie, error) {
	switch {
	case cfg.BaseURL == "":
		return nil, errors.New("missing env: WAPPIE_BASE_URL")
	case cfg.APIKey == "":
		return nil, errors.New("missing env: WAPPIE_API_KEY")
	case cfg.TextPath == "":
		return nil, errors.New("missing env: WAPPIE_SEND_TEXT_PATH")
	case cfg.ImagePath == "":
		return nil, errors.New("missing env: WAPPIE_SEND_IMAGE_PATH")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = "x-api-key"
	}
	if cfg.FieldTo == "" {
		cfg.FieldTo = "to"
	}
	if cfg.FieldText == "" {
		cfg.FieldText = "message"
	}
	if cfg.FieldImageURL == "" {
		cfg.FieldImageURL = "imageUrl"
	}
	if cfg.FieldCaption == "" {
		cfg.FieldCaption = "caption"
	}
	return &Wappie{cfg: cfg, client: client}, nil
}

func (w *Wappie) Send(ctx context.Context, arrival Arrival) (Result, error) {
	msg := arrivalMessage(arrival)
	path := w.cfg.TextPath
	body := map[string]string{
		w.cfg.FieldTo:   arrival.To,
		w.cfg.FieldText: msg,
	}
	if arrival.PhotoURL != "" {
		path = w.cfg.ImagePath
		body = map[string]string{
			w.cfg.FieldTo:       arrival.To,
			w.cfg.FieldImageURL: arrival.PhotoURL,
			w.cfg.FieldCaption:  msg,
		}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	headers := map[string]string{w.cfg.AuthHeader: w.cfg.AuthPrefix + w.cfg.APIKey}
	if err := postJSON(ctx, w.client, w.cfg.BaseURL+path, headers, body); err != nil {
		return Result{}, err
	}
	return Result{Provider: ProviderWappie}, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp provider error (%d): %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

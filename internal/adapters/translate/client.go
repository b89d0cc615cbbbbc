package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"review_pulse/internal/adapters/observability"
)

const translatePath = "/language/translate/v2"

// Client talks to a Google Translate v2 compatible endpoint.
type Client struct {
	rc  *resty.Client
	key string
	rl  *rate.Limiter // nil: unlimited
}

// New returns a translation client. rps <= 0 disables client-side rate limiting.
func New(base, key string, timeout time.Duration, rps int) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		rc: resty.New().
			SetBaseURL(strings.TrimRight(base, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "review-pulse/1.0"),
		key: key,
	}
	if rps > 0 {
		c.rl = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return c
}

type translateRequest struct {
	Q      string `json:"q"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

var ErrEmptyTranslation = errors.New("translate: empty response")

// Translate returns text rendered in the target language.
func (c *Client) Translate(ctx context.Context, text, target string) (string, error) {
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return "", err
		}
	}

	start := time.Now()
	req := c.rc.R().
		SetContext(ctx).
		SetBody(translateRequest{Q: text, Target: target, Format: "text"})
	if c.key != "" {
		req.SetQueryParam("key", c.key)
	}
	resp, err := req.Post(translatePath)
	if err != nil {
		observability.ObserveExternal("translate", "translate_v2", 0, time.Since(start))
		return "", fmt.Errorf("translate request: %w", err)
	}
	observability.ObserveExternal("translate", "translate_v2", resp.StatusCode(), time.Since(start))

	if resp.StatusCode() != 200 {
		body := resp.String()
		if len(body) > 512 {
			body = body[:512]
		}
		return "", fmt.Errorf("translate status %d: %s", resp.StatusCode(), strings.TrimSpace(body))
	}

	var out translateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}
	if len(out.Data.Translations) == 0 {
		return "", ErrEmptyTranslation
	}
	return out.Data.Translations[0].TranslatedText, nil
}

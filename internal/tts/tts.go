// Package tts synthesizes narration audio through the Google Translate
// text-to-speech endpoint. No API key is required, but the server
// rate-limits aggressively, so callers should bound their concurrency.
package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
	"unicode/utf8"
)

const DefaultEndpoint = "https://translate.google.com/translate_tts"

// MaxPhraseLen is the longest text the endpoint accepts per request.
const MaxPhraseLen = 200

type Client struct {
	Endpoint string
	Lang     string
	HTTP     *http.Client
}

func New(lang string) *Client {
	return &Client{
		Endpoint: DefaultEndpoint,
		Lang:     lang,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// RequestURL builds the synthesis URL for a single phrase.
func (c *Client) RequestURL(text string) string {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", c.Lang)
	q.Set("q", text)
	return c.Endpoint + "?" + q.Encode()
}

// Synthesize fetches speech audio for text and writes the MP3 to outPath.
func (c *Client) Synthesize(ctx context.Context, text, outPath string) error {
	if text == "" {
		return fmt.Errorf("empty phrase")
	}
	if utf8.RuneCountInString(text) > MaxPhraseLen {
		return fmt.Errorf("phrase too long for TTS (%d runes, max %d)", utf8.RuneCountInString(text), MaxPhraseLen)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(text), nil)
	if err != nil {
		return err
	}
	// The endpoint rejects requests without a browser-looking agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts request failed: status %d", resp.StatusCode)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("tts save failed: %w", err)
	}
	return nil
}

package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"unicode/utf8"

	"autopost/config"
	"autopost/httpclient"
)

const (
	tweetsPath       = "/2/tweets"
	maxErrorBodySize = 512
)

// XClient 는 X API v2 로 게시한다. 인증은 X_ACCESS_TOKEN 의 OAuth2 Bearer 토큰이다.
type XClient struct {
	base      *httpclient.BaseClient
	token     string
	maxLength int
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func NewXClient(cfg config.PostingConfig) (*XClient, error) {
	token := os.Getenv("X_ACCESS_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("X_ACCESS_TOKEN environment variable is not set")
	}
	return &XClient{
		base:      httpclient.NewBaseClient(cfg.BaseURL, httpclient.Config{Timeout: cfg.Timeout}),
		token:     token,
		maxLength: cfg.MaxLength,
	}, nil
}

func (c *XClient) MaxLength() int { return c.maxLength }

func (c *XClient) Post(ctx context.Context, text string) (*PostResult, error) {
	if c.maxLength > 0 && utf8.RuneCountInString(text) > c.maxLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrTextTooLong, utf8.RuneCountInString(text), c.maxLength)
	}

	body, err := json.Marshal(createTweetRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := c.base.NewRequest(ctx, http.MethodPost, tweetsPath, nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to post to x: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var out createTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode x response: %w", err)
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("x response has no post id")
	}
	return &PostResult{ExternalID: out.Data.ID, Text: out.Data.Text}, nil
}

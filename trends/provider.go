package trends

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"autopost/models"
)

// Provider 는 순위가 매겨진 트렌드 키워드를 최대 count 건 반환한다.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, count int) ([]models.TrendItem, error)
}

// FeedProvider 는 RSS/Atom 형식의 급상승 검색어 피드를 트렌드로 읽는다.
// 피드의 항목 순서를 순위로 사용한다.
type FeedProvider struct {
	name    string
	feedURL string
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewFeedProvider 는 주어진 피드 URL 에서 트렌드를 가져온다.
func NewFeedProvider(name, feedURL string, timeout time.Duration) *FeedProvider {
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}

	fp := gofeed.NewParser()
	fp.Client = httpClient
	fp.UserAgent = "autopost-trends/1.0"

	return &FeedProvider{
		name:    name,
		feedURL: feedURL,
		parser:  fp,
		timeout: timeout,
	}
}

func (p *FeedProvider) Name() string { return p.name }

func (p *FeedProvider) Fetch(ctx context.Context, count int) ([]models.TrendItem, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	feed, err := p.parser.ParseURLWithContext(p.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trend feed %s: %w", p.name, err)
	}

	items := make([]models.TrendItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		keyword := strings.TrimSpace(item.Title)
		if keyword == "" {
			continue
		}
		var category string
		if len(item.Categories) > 0 {
			category = strings.TrimSpace(item.Categories[0])
		}
		items = append(items, models.TrendItem{
			Keyword:  keyword,
			Rank:     len(items) + 1,
			Category: category,
			Source:   p.name,
		})
		if count > 0 && len(items) >= count {
			break
		}
	}
	return items, nil
}

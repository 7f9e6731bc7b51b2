package service

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"subscriber-journey/internal/domain"
	"subscriber-journey/pkg/datetime"
	"subscriber-journey/pkg/email"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
)

const (
	defaultDigestItems = 5
	maxDigestItems     = 20
	maxSummaryLength   = 300
)

// FeedCampaignRequest describes a campaign built from the latest items of a feed.
type FeedCampaignRequest struct {
	Name     string   `json:"name"`
	FeedURL  string   `json:"feedUrl"`
	ListIDs  []string `json:"listIds"`
	Subject  string   `json:"subject"`
	MaxItems int      `json:"maxItems"`
}

// FeedService turns RSS and Atom feeds into campaign drafts.
type FeedService struct {
	campaigns     *CampaignService
	parser        *gofeed.Parser
	dateFormatter *datetime.Formatter
	timeout       time.Duration
}

func NewFeedService(campaigns *CampaignService, dateFormatter *datetime.Formatter) *FeedService {
	return &FeedService{
		campaigns:     campaigns,
		parser:        gofeed.NewParser(),
		dateFormatter: dateFormatter,
		timeout:       15 * time.Second,
	}
}

func (s *FeedService) CreateCampaignFromFeed(ctx context.Context, req FeedCampaignRequest) (*domain.Campaign, error) {
	u, err := url.Parse(strings.TrimSpace(req.FeedURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.ErrInvalidFeedURL
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.Info().Str("url", u.String()).Msg("Fetching feed for campaign")

	feed, err := s.parser.ParseURLWithContext(u.String(), fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", u.String(), err)
	}
	if len(feed.Items) == 0 {
		return nil, domain.ErrEmptyFeed
	}

	limit := req.MaxItems
	if limit <= 0 {
		limit = defaultDigestItems
	}
	if limit > maxDigestItems {
		limit = maxDigestItems
	}
	items := feed.Items
	if len(items) > limit {
		items = items[:limit]
	}

	subject := req.Subject
	if strings.TrimSpace(subject) == "" {
		subject = strings.Trim(strings.NewReplacer("{", "", "}", "").Replace(feed.Title), " ") + " digest"
	}

	name := req.Name
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSpace(feed.Title)
	}

	return s.campaigns.CreateCampaign(ctx, name, req.ListIDs, subject, s.buildDigest(feed, items))
}

func (s *FeedService) buildDigest(feed *gofeed.Feed, items []*gofeed.Item) string {
	var b strings.Builder

	b.WriteString("<p>Hello {{ name | escape }},</p>\n")
	fmt.Fprintf(&b, "<p>Here are the latest updates from <strong>%s</strong>:</p>\n", escapeFeedText(feed.Title))
	b.WriteString("<ul>\n")

	for _, item := range items {
		b.WriteString("<li>")
		if item.Link != "" {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, escapeFeedText(item.Link), escapeFeedText(item.Title))
		} else {
			b.WriteString(escapeFeedText(item.Title))
		}

		if published, ok := s.publishedAt(item); ok {
			fmt.Fprintf(&b, " <em>(%s)</em>", s.dateFormatter.FormatForDisplay(published))
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		if summary = email.StripHTML(summary); summary != "" {
			fmt.Fprintf(&b, "<br>%s", escapeFeedText(truncate(summary, maxSummaryLength)))
		}
		b.WriteString("</li>\n")
	}

	b.WriteString("</ul>\n")
	b.WriteString(signature)
	return b.String()
}

func (s *FeedService) publishedAt(item *gofeed.Item) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, true
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, true
	}
	return s.dateFormatter.ParseFeedDate(item.Published)
}

// liquidSafe keeps feed text from being read as template markup.
func liquidSafe(s string) string {
	return strings.NewReplacer("{", "&#123;", "}", "&#125;").Replace(s)
}

func escapeFeedText(s string) string {
	return liquidSafe(html.EscapeString(strings.TrimSpace(s)))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}

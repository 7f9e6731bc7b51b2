package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"subscriber-journey/internal/domain"
	"subscriber-journey/pkg/datetime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCampaignService(env *testEnv) *CampaignService {
	return NewCampaignService(env.store.Campaigns(), env.store.Lists(), env.store.Subscribers(), env.mailer, env.renderer, 0)
}

func seedAudience(t *testing.T, env *testEnv) (string, string) {
	t.Helper()
	ctx := context.Background()
	lists := NewListService(env.store.Lists(), env.store.Subscribers())

	a, err := lists.CreateList(ctx, "A", "")
	require.NoError(t, err)
	b, err := lists.CreateList(ctx, "B", "")
	require.NoError(t, err)

	_, err = lists.AddSubscriberToList(ctx, "ann@example.com", "Ann", a.ID)
	require.NoError(t, err)
	_, err = lists.AddSubscriberToList(ctx, "ann@example.com", "Ann", b.ID)
	require.NoError(t, err)
	_, err = lists.AddSubscriberToList(ctx, "bob@example.com", "Bob", b.ID)
	require.NoError(t, err)

	pending := &domain.Subscriber{ID: "pending", Email: "pat@example.com", Name: "Pat", UserID: "u9", ListID: b.ID, VerificationCode: "123456"}
	require.NoError(t, env.store.Subscribers().Create(ctx, pending))
	require.NoError(t, env.store.Lists().AddSubscriber(ctx, b.ID, pending.ID))

	return a.ID, b.ID
}

func TestCampaignService_SendCampaign(t *testing.T) {
	env := newTestEnv(t)
	svc := newCampaignService(env)
	ctx := context.Background()
	listA, listB := seedAudience(t, env)

	campaign, err := svc.CreateCampaign(ctx, "Launch", []string{listA, listB}, "News for {{ name }}", "<p>Hi {{ name }} ({{ email }})</p>")
	require.NoError(t, err)

	result, err := svc.SendCampaign(ctx, campaign.ID, []string{"boss@example.com", "Boss@example.com"}, []string{"archive@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Recipients)
	assert.Equal(t, 2, result.Sent)
	assert.Zero(t, result.Failed)

	require.Equal(t, 2, env.sender.count())
	first := env.sender.sent[0]
	assert.Equal(t, "ann@example.com", first.To)
	assert.Equal(t, "News for Ann", first.Subject)
	assert.Equal(t, "<p>Hi Ann (ann@example.com)</p>", first.HTML)
	assert.Equal(t, []string{"boss@example.com"}, first.Cc)
	assert.Equal(t, []string{"archive@example.com"}, first.Bcc)
	assert.Equal(t, "bob@example.com", env.sender.sent[1].To)

	stored, err := svc.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"boss@example.com"}, stored.CC)
	assert.Equal(t, 2, stored.SentCount)
	assert.NotNil(t, stored.LastSentAt)
}

func TestCampaignService_SendCountsFailures(t *testing.T) {
	env := newTestEnv(t)
	svc := newCampaignService(env)
	ctx := context.Background()
	listA, _ := seedAudience(t, env)

	campaign, err := svc.CreateCampaign(ctx, "Launch", []string{listA}, "Hello", "<p>Hi</p>")
	require.NoError(t, err)

	env.sender.err = assert.AnError
	result, err := svc.SendCampaign(ctx, campaign.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Sent)
}

func TestCampaignService_SendPacing(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCampaignService(env.store.Campaigns(), env.store.Lists(), env.store.Subscribers(), env.mailer, env.renderer, 20*time.Millisecond)
	ctx := context.Background()
	_, listB := seedAudience(t, env)

	campaign, err := svc.CreateCampaign(ctx, "Launch", []string{listB}, "Hello", "<p>Hi</p>")
	require.NoError(t, err)

	start := time.Now()
	result, err := svc.SendCampaign(ctx, campaign.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestCampaignService_Errors(t *testing.T) {
	env := newTestEnv(t)
	svc := newCampaignService(env)
	ctx := context.Background()

	_, err := svc.SendCampaign(ctx, "missing", nil, nil)
	require.ErrorIs(t, err, domain.ErrCampaignNotFound)
	assert.Equal(t, "Campaign not found", err.Error())

	_, err = svc.CreateCampaign(ctx, "Broken", nil, "Hello", "{% if name %}unclosed")
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

	_, err = svc.CreateCampaign(ctx, "Orphan", []string{"missing"}, "Hello", "Body")
	assert.ErrorIs(t, err, domain.ErrListNotFound)

	_, err = svc.CreateCampaign(ctx, "", nil, "Hello", "Body")
	assert.ErrorIs(t, err, domain.ErrInvalidCampaignName)

	c, err := svc.CreateCampaign(ctx, "Ok", nil, "Hello", "Body")
	require.NoError(t, err)
	_, err = svc.SendCampaign(ctx, c.ID, []string{"not an address"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestCampaignService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := newCampaignService(env)
	ctx := context.Background()

	c, err := svc.CreateCampaign(ctx, "Draft", nil, "Hello", "Body")
	require.NoError(t, err)

	subject := "Updated"
	updated, err := svc.UpdateCampaign(ctx, c.ID, domain.CampaignUpdate{Subject: &subject})
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Subject)
	assert.Equal(t, "Draft", updated.Name)

	empty := ""
	_, err = svc.UpdateCampaign(ctx, c.ID, domain.CampaignUpdate{Content: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidContent)

	require.NoError(t, svc.DeleteCampaign(ctx, c.ID))
	assert.ErrorIs(t, svc.DeleteCampaign(ctx, c.ID), domain.ErrCampaignNotFound)

	all, err := svc.GetCampaigns(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Engineering {Blog}</title>
  <link>https://blog.example.com</link>
  <item>
    <title>Shipping &lt;fast&gt;</title>
    <link>https://blog.example.com/fast</link>
    <description>&lt;p&gt;We ship {{ often }}.&lt;/p&gt;</description>
    <pubDate>Mon, 19 Oct 2026 08:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Second post</title>
    <link>https://blog.example.com/second</link>
    <description>Plain text</description>
    <pubDate>Sun, 18 Oct 2026 08:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Third post</title>
    <link>https://blog.example.com/third</link>
  </item>
</channel>
</rss>`

func TestFeedService_CreateCampaignFromFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	env := newTestEnv(t)
	campaigns := newCampaignService(env)
	formatter := datetime.NewFormatterAt(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), time.UTC)
	svc := NewFeedService(campaigns, formatter)
	ctx := context.Background()

	c, err := svc.CreateCampaignFromFeed(ctx, FeedCampaignRequest{FeedURL: srv.URL, MaxItems: 2})
	require.NoError(t, err)

	assert.Equal(t, "Engineering {Blog}", c.Name)
	assert.Equal(t, "Engineering Blog digest", c.Subject)
	assert.Contains(t, c.Content, `<a href="https://blog.example.com/fast">Shipping &lt;fast&gt;</a>`)
	assert.Contains(t, c.Content, "(Today)")
	assert.Contains(t, c.Content, "(Yesterday)")
	assert.Contains(t, c.Content, "We ship &#123;&#123; often &#125;&#125;.")
	assert.NotContains(t, c.Content, "Third post")

	out, err := env.renderer.Render(c.Content, map[string]interface{}{"name": "Ann"})
	require.NoError(t, err)
	assert.Contains(t, out, "Hello Ann,")
	assert.Contains(t, out, "&#123;&#123; often &#125;&#125;")
}

func TestFeedService_InvalidURL(t *testing.T) {
	env := newTestEnv(t)
	svc := NewFeedService(newCampaignService(env), datetime.NewFormatter())

	for _, u := range []string{"", "ftp://example.com/feed", "not a url", "http://"} {
		_, err := svc.CreateCampaignFromFeed(context.Background(), FeedCampaignRequest{FeedURL: u})
		assert.ErrorIs(t, err, domain.ErrInvalidFeedURL, u)
	}
}

package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

const DefaultFromName = "Subscriber Journey"

// ErrRejected marks a send the provider answered and refused. Callers should not
// retry it through another transport.
var ErrRejected = errors.New("email rejected")

type Message struct {
	To      string
	Cc      []string
	Bcc     []string
	Subject string
	HTML    string
	Text    string
}

type Service interface {
	SendEmail(ctx context.Context, msg *Message) (string, error)
}

func (m *Message) Validate() error {
	if m.To == "" {
		return fmt.Errorf("recipient is required")
	}
	if m.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if m.HTML == "" && m.Text == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

// PlainText returns the text part, deriving it from the HTML part if unset.
func (m *Message) PlainText() string {
	if m.Text != "" {
		return m.Text
	}
	return StripHTML(m.HTML)
}

// StripHTML reduces an HTML fragment to its whitespace-normalised text.
func StripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("style, script, head").Remove()
	text := doc.Text()
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimSpace(text)
}

func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

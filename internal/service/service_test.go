package service

import (
	"context"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository/memory"
	"subscriber-journey/pkg/email"
	"subscriber-journey/pkg/render"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	sent []*email.Message
	err  error
}

func (c *captureSender) SendEmail(_ context.Context, msg *email.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.sent = append(c.sent, msg)
	return fmt.Sprintf("<%d@test>", len(c.sent)), nil
}

func (c *captureSender) last(t *testing.T) *email.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "no email sent")
	return c.sent[len(c.sent)-1]
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *captureSender) countSubject(subject string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, msg := range c.sent {
		if msg.Subject == subject {
			n++
		}
	}
	return n
}

// concurrently calls fn from n goroutines at once and returns how many calls
// succeeded.
func concurrently(n int, fn func() error) int {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if fn() == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()
	return succeeded
}

type fixedCodes struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (f *fixedCodes) Generate() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.codes) {
		return "", errors.New("out of codes")
	}
	code := f.codes[f.next]
	f.next++
	return code, nil
}

type testEnv struct {
	store    *memory.Store
	sender   *captureSender
	renderer *render.Renderer
	mailer   *Mailer
	codes    *fixedCodes
}

func newTestEnv(t *testing.T, codes ...string) *testEnv {
	t.Helper()
	store, err := memory.Open("")
	require.NoError(t, err)

	sender := &captureSender{}
	renderer := render.New()
	return &testEnv{
		store:    store,
		sender:   sender,
		renderer: renderer,
		mailer:   NewMailer(sender, renderer),
		codes:    &fixedCodes{codes: codes},
	}
}

func (e *testEnv) createUser(t *testing.T, id, addr, name string) *domain.User {
	t.Helper()
	user := &domain.User{ID: id, Email: addr, Name: name, Role: domain.RoleUser}
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

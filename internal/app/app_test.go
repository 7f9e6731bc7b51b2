package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"subscriber-journey/config"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:              "8080",
		SessionSecret:        "session-secret-session-secret-00",
		CSRFSecret:           "csrf-secret-csrf-secret-csrf-sec",
		Environment:          "development",
		StoreDriver:          "memory",
		OTPStore:             "store",
		EmailProvider:        EmailModeSimulate,
		SMTPHost:             "smtp.example.com",
		SMTPPort:             465,
		SMTPUsername:         "alerts@example.com",
		SMTPEncryption:       "ssl",
		AdminEmail:           "admin@example.com",
		AdminPassword:        "admin123",
		CampaignSendInterval: 0,
		CouponOTPTTL:         24 * time.Hour,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func serve(app *Application, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestSeededAdminCanManageLists(t *testing.T) {
	app := newTestApp(t, testConfig())

	rec := serve(app, "POST", "/api/auth/login", `{"email":"admin@example.com","password":"admin123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = serve(app, "POST", "/api/admin/lists", `{"name":"Launch","description":"Launch news"}`, cookies...)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(app, "GET", "/api/admin/coupons", "", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WELCOME10")

	rec = serve(app, "GET", "/api/admin/settings/smtp", "", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "smtp.example.com")
}

func TestSecurityHeaders(t *testing.T) {
	app := newTestApp(t, testConfig())

	rec := serve(app, "GET", "/api/health-check", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHandlerLogsUnmatchedRoutes(t *testing.T) {
	app := newTestApp(t, testConfig())

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/does-not-exist", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	out := buf.String()
	assert.Contains(t, out, `"path":"/api/does-not-exist"`)
	assert.Contains(t, out, `"status":404`)
}

func TestLoginRateLimited(t *testing.T) {
	app := newTestApp(t, testConfig())

	var last *httptest.ResponseRecorder
	for i := 0; i <= loginRule.MaxAttempts; i++ {
		last = serve(app, "POST", "/api/auth/login", `{"email":"admin@example.com","password":"wrong"}`)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
}

func TestUnknownStoreDriver(t *testing.T) {
	cfg := testConfig()
	cfg.StoreDriver = "sqlite"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown STORE_DRIVER")
}

func TestRelayUnavailableFallsBackToSimulation(t *testing.T) {
	cfg := testConfig()
	cfg.EmailProvider = EmailModeRelay
	cfg.RelayURL = "http://127.0.0.1:1"

	app := newTestApp(t, cfg)
	assert.Equal(t, EmailModeSimulate, app.EmailMode)
}

func TestRelayProviderSendsCodesThroughRelay(t *testing.T) {
	var otpCalls atomic.Int32
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health-check":
			w.WriteHeader(http.StatusOK)
		case "/api/send-otp":
			assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
			otpCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "messageId": "<otp@relay>"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "messageId": "<mail@relay>"})
		}
	}))
	defer relay.Close()

	cfg := testConfig()
	cfg.EmailProvider = EmailModeRelay
	cfg.RelayURL = relay.URL
	cfg.RelaySecret = "relay-secret"

	app := newTestApp(t, cfg)
	require.Equal(t, EmailModeRelay, app.EmailMode)

	rec := serve(app, "POST", "/api/auth/register", `{"email":"reader@example.com","password":"secret1","name":"Reader"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(app, "POST", "/api/coupons/request", `{}`, rec.Result().Cookies()...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(1), otpCalls.Load())

	rec = serve(app, "GET", "/api/health-check", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "relay", body["emailMode"])
}

func TestRedisOTPStore(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.OTPStore = "redis"
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"

	app := newTestApp(t, cfg)

	rec := serve(app, "POST", "/api/auth/register", `{"email":"reader@example.com","password":"secret1","name":"Reader"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()

	rec = serve(app, "POST", "/api/coupons/request", `{}`, cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "otp:coupon:"))
	assert.True(t, mr.TTL(keys[0]) > 23*time.Hour)

	rec = serve(app, "POST", "/api/coupons/verify", `{"otp":"12345"}`, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte("6-digit")))
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"subscriber-journey/config"
	"subscriber-journey/internal/database"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/handler"
	"subscriber-journey/internal/middleware"
	"subscriber-journey/internal/repository"
	"subscriber-journey/internal/repository/memory"
	"subscriber-journey/internal/service"
	"subscriber-journey/pkg/datetime"
	"subscriber-journey/pkg/email"
	"subscriber-journey/pkg/ratelimit"
	"subscriber-journey/pkg/render"
	"subscriber-journey/pkg/security"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	EmailModeSimulate = "simulate"
	EmailModeSMTP     = "smtp"
	EmailModeResend   = "resend"
	EmailModeRelay    = "relay"
)

var (
	loginRule    = ratelimit.Rule{MaxAttempts: 5, Window: 15 * time.Minute}
	registerRule = ratelimit.Rule{MaxAttempts: 5, Window: time.Hour}
	codeRule     = ratelimit.Rule{MaxAttempts: 5, Window: 15 * time.Minute}
	verifyRule   = ratelimit.Rule{MaxAttempts: 10, Window: 15 * time.Minute}
)

type repositories struct {
	users       repository.UserRepository
	subscribers repository.SubscriberRepository
	lists       repository.ListRepository
	campaigns   repository.CampaignRepository
	coupons     repository.CouponRepository
	settings    repository.SettingsRepository
	otps        repository.OTPRepository
}

type Application struct {
	Router    *mux.Router
	Config    *config.Config
	DBManager *database.Manager
	EmailMode string

	AuthHandler         *handler.AuthHandler
	SubscriptionHandler *handler.SubscriptionHandler
	CouponHandler       *handler.CouponHandler
	ListHandler         *handler.ListHandler
	CampaignHandler     *handler.CampaignHandler
	SettingsHandler     *handler.SettingsHandler
	HealthHandler       *handler.HealthHandler
	AuthMiddleware      *middleware.AuthMiddleware

	redis   *redis.Client
	limiter *ratelimit.Limiter
	checks  map[string]handler.Pinger
}

func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	app := &Application{
		Router:  mux.NewRouter(),
		Config:  cfg,
		limiter: ratelimit.NewLimiter(),
		checks:  make(map[string]handler.Pinger),
	}

	repos, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	err = service.Seed(ctx, repos.users, repos.coupons, repos.settings, service.SeedConfig{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		SMTP: domain.SmtpSettings{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			Encryption: domain.Encryption(cfg.SMTPEncryption),
		},
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	renderer := render.New()
	sender, otpSender := app.setupEmail(ctx, repos.settings)
	mailer := service.NewMailer(sender, renderer)
	if otpSender != nil {
		mailer.WithOTPSender(otpSender)
	}

	otpGenerator := security.NewOTPGenerator()
	authService := service.NewAuthService(repos.users, mailer, otpGenerator)
	subscriptionService := service.NewSubscriptionService(repos.users, repos.subscribers, repos.lists, mailer, otpGenerator)
	couponService := service.NewCouponService(repos.coupons, repos.subscribers, repos.otps, mailer, otpGenerator, cfg.CouponOTPTTL)
	listService := service.NewListService(repos.lists, repos.subscribers)
	campaignService := service.NewCampaignService(repos.campaigns, repos.lists, repos.subscribers, mailer, renderer, cfg.CampaignSendInterval)
	feedService := service.NewFeedService(campaignService, datetime.NewFormatter())
	settingsService := service.NewSettingsService(repos.settings, mailer)

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	app.AuthMiddleware = middleware.NewAuthMiddleware(sessionStore)
	app.AuthHandler = handler.NewAuthHandler(authService, app.AuthMiddleware)
	app.SubscriptionHandler = handler.NewSubscriptionHandler(subscriptionService, authService)
	app.CouponHandler = handler.NewCouponHandler(couponService, authService)
	app.ListHandler = handler.NewListHandler(listService)
	app.CampaignHandler = handler.NewCampaignHandler(campaignService, feedService)
	app.SettingsHandler = handler.NewSettingsHandler(settingsService)
	app.HealthHandler = handler.NewHealthHandler(app.EmailMode, app.checks)

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

func (a *Application) openStore(ctx context.Context) (*repositories, error) {
	var repos *repositories

	switch a.Config.StoreDriver {
	case "postgres":
		dbManager, err := database.NewManager(ctx, database.Config{
			ConnectionString: a.Config.DatabaseURL,
			Host:             a.Config.DBHost,
			Port:             a.Config.DBPort,
			User:             a.Config.DBUser,
			Password:         a.Config.DBPassword,
			DBName:           a.Config.DBName,
		})
		if err != nil {
			return nil, err
		}
		a.DBManager = dbManager
		a.checks["database"] = dbManager.GetDB()

		db := dbManager.GetDB()
		repos = &repositories{
			users:       repository.NewUserRepository(db),
			subscribers: repository.NewSubscriberRepository(db),
			lists:       repository.NewListRepository(db),
			campaigns:   repository.NewCampaignRepository(db),
			coupons:     repository.NewCouponRepository(db),
			settings:    repository.NewSettingsRepository(db),
			otps:        repository.NewOTPRepository(db),
		}
	case "memory", "":
		store, err := memory.Open(a.Config.DataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open memory store: %w", err)
		}
		log.Info().Str("data_file", a.Config.DataFile).Msg("Using in-memory store")

		repos = &repositories{
			users:       store.Users(),
			subscribers: store.Subscribers(),
			lists:       store.Lists(),
			campaigns:   store.Campaigns(),
			coupons:     store.Coupons(),
			settings:    store.Settings(),
			otps:        store.OTPs(),
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", a.Config.StoreDriver)
	}

	if a.Config.OTPStore == "redis" {
		opts, err := redis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info().Str("addr", opts.Addr).Msg("Redis connected, OTPs expire by TTL")

		repos.otps = repository.NewRedisOTPRepository(a.redis)
		a.checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	return repos, nil
}

// setupEmail picks the transport named by EMAIL_PROVIDER. Any provider that
// cannot start leaves the app in simulation mode rather than failing.
func (a *Application) setupEmail(ctx context.Context, settings repository.SettingsRepository) (email.Service, service.OTPSender) {
	source := service.NewSMTPConfigSource(settings, email.DefaultFromName)
	simulated := email.NewSimulatedService(os.Stdout, source)
	a.EmailMode = EmailModeSimulate

	switch a.Config.EmailProvider {
	case EmailModeSMTP:
		a.EmailMode = EmailModeSMTP
		return email.NewSMTPService(source), nil

	case EmailModeResend:
		resendService, err := email.NewResendService(a.Config.ResendAPIKey, a.Config.EmailFrom)
		if err != nil {
			log.Warn().Err(err).Msg("Resend initialization failed, emails will be simulated")
			return simulated, nil
		}
		a.EmailMode = EmailModeResend
		return resendService, nil

	case EmailModeRelay:
		var signer email.TokenSigner
		if a.Config.RelaySecret != "" {
			signer = security.NewRelaySigner(a.Config.RelaySecret, 5*time.Minute)
		}
		relay := email.NewRelayClient(a.Config.RelayURL, signer)

		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := relay.Health(healthCtx); err != nil {
			log.Warn().Err(err).Str("relay_url", a.Config.RelayURL).Msg("Mail relay unavailable, emails will be simulated")
			return simulated, nil
		}

		log.Info().Str("relay_url", a.Config.RelayURL).Msg("Mail relay connected")
		a.EmailMode = EmailModeRelay
		a.checks["relay"] = handler.PingFunc(relay.Health)
		return email.NewFallbackService(relay, simulated), relay

	case EmailModeSimulate, "":
		return simulated, nil

	default:
		log.Warn().Str("provider", a.Config.EmailProvider).Msg("Unknown EMAIL_PROVIDER, emails will be simulated")
		return simulated, nil
	}
}

func (a *Application) setupMiddleware() {
	a.Router.Use(securityHeadersMiddleware(a.Config.IsProduction()))

	if a.Config.IsProduction() {
		log.Info().Msg("CSRF protection enabled")
		csrfOptions := []csrf.Option{
			csrf.Secure(true),
			csrf.HttpOnly(true),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.ErrorHandler(http.HandlerFunc(csrfFailureHandler)),
		}
		if a.Config.AppURL != "" {
			csrfOptions = append(csrfOptions, csrf.TrustedOrigins([]string{a.Config.AppURL}))
			log.Info().Str("origin", a.Config.AppURL).Msg("CSRF trusted origin")
		}
		a.Router.Use(csrf.Protect([]byte(a.Config.CSRFSecret), csrfOptions...))
		a.Router.Use(csrfTokenHeader)
	} else {
		log.Info().Msg("CSRF protection disabled in development mode")
	}
}

func securityHeadersMiddleware(isProduction bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if isProduction {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// csrfTokenHeader hands the masked token to API clients, which echo it back in
// the same header on unsafe requests.
func csrfTokenHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRF-Token", csrf.Token(r))
		next.ServeHTTP(w, r)
	})
}

func csrfFailureHandler(w http.ResponseWriter, r *http.Request) {
	log.Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("CSRF check failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"success":false,"error":"Invalid CSRF token"}`))
}

func (a *Application) limit(name string, rule ratelimit.Rule, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(a.limiter, name, rule)(h)
}

func (a *Application) setupRoutes() {
	api := a.Router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health-check", a.HealthHandler.Check).Methods("GET")

	api.Handle("/auth/register", a.limit("register", registerRule, a.AuthHandler.Register)).Methods("POST")
	api.Handle("/auth/login", a.limit("login", loginRule, a.AuthHandler.Login)).Methods("POST")
	api.HandleFunc("/auth/logout", a.AuthHandler.Logout).Methods("POST")
	api.Handle("/auth/password/reset", a.limit("password-reset", codeRule, a.AuthHandler.RequestPasswordReset)).Methods("POST")
	api.Handle("/auth/password/verify", a.limit("password-verify", verifyRule, a.AuthHandler.ResetPassword)).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(a.AuthMiddleware.RequireAuth)

	protected.HandleFunc("/auth/me", a.AuthHandler.Me).Methods("GET")
	protected.HandleFunc("/subscription", a.SubscriptionHandler.Status).Methods("GET")
	protected.Handle("/subscription/subscribe", a.limit("subscribe", codeRule, a.SubscriptionHandler.Subscribe)).Methods("POST")
	protected.Handle("/subscription/verify", a.limit("subscribe-verify", verifyRule, a.SubscriptionHandler.Verify)).Methods("POST")
	protected.Handle("/subscription/unsubscribe", a.limit("unsubscribe", codeRule, a.SubscriptionHandler.Unsubscribe)).Methods("POST")
	protected.Handle("/subscription/unsubscribe/verify", a.limit("unsubscribe-verify", verifyRule, a.SubscriptionHandler.VerifyUnsubscribe)).Methods("POST")
	protected.Handle("/coupons/request", a.limit("coupon", codeRule, a.CouponHandler.Request)).Methods("POST")
	protected.Handle("/coupons/verify", a.limit("coupon-verify", verifyRule, a.CouponHandler.Verify)).Methods("POST")

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(a.AuthMiddleware.RequireAdmin)

	admin.HandleFunc("/lists", a.ListHandler.GetLists).Methods("GET")
	admin.HandleFunc("/lists", a.ListHandler.CreateList).Methods("POST")
	admin.HandleFunc("/lists/{id}/subscribers", a.ListHandler.GetSubscribers).Methods("GET")
	admin.HandleFunc("/lists/{id}/subscribers", a.ListHandler.AddSubscriber).Methods("POST")
	admin.HandleFunc("/lists/{id}/subscribers/{subscriberId}", a.ListHandler.RemoveSubscriber).Methods("DELETE")

	admin.HandleFunc("/campaigns", a.CampaignHandler.GetCampaigns).Methods("GET")
	admin.HandleFunc("/campaigns", a.CampaignHandler.CreateCampaign).Methods("POST")
	admin.HandleFunc("/campaigns/feed", a.CampaignHandler.CreateFromFeed).Methods("POST")
	admin.HandleFunc("/campaigns/{id}", a.CampaignHandler.GetCampaign).Methods("GET")
	admin.HandleFunc("/campaigns/{id}", a.CampaignHandler.UpdateCampaign).Methods("PUT")
	admin.HandleFunc("/campaigns/{id}", a.CampaignHandler.DeleteCampaign).Methods("DELETE")
	admin.HandleFunc("/campaigns/{id}/send", a.CampaignHandler.SendCampaign).Methods("POST")

	admin.HandleFunc("/settings/smtp", a.SettingsHandler.GetSMTPSettings).Methods("GET")
	admin.HandleFunc("/settings/smtp", a.SettingsHandler.UpdateSMTPSettings).Methods("PUT")

	admin.HandleFunc("/coupons", a.CouponHandler.List).Methods("GET")
	admin.HandleFunc("/coupons", a.CouponHandler.Create).Methods("POST")
	admin.HandleFunc("/coupons/{id}/active", a.CouponHandler.SetActive).Methods("PUT")
}

// Handler wraps the router in the request logger. The logger sits outside mux
// so unmatched routes and method mismatches are logged too.
func (a *Application) Handler() http.Handler {
	return middleware.RequestLogger(a.Router)
}

func (a *Application) Close() error {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing redis client")
		}
	}
	if a.DBManager != nil {
		return a.DBManager.Close()
	}
	return nil
}

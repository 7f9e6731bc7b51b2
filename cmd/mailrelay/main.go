package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"subscriber-journey/config"
	"subscriber-journey/internal/logging"
	"subscriber-journey/internal/relay"
	"subscriber-journey/pkg/email"
	"subscriber-journey/pkg/render"
	"subscriber-journey/pkg/security"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadRelay()
	logging.Setup(cfg.LogLevel, cfg.Environment)

	encryption := "tls"
	if cfg.SMTPSecure {
		encryption = "ssl"
	}
	smtp := email.NewSMTPService(email.StaticConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUser,
		Password:   cfg.SMTPPass,
		Encryption: encryption,
		FromName:   email.DefaultFromName,
	})

	verifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := smtp.Verify(verifyCtx); err != nil {
		log.Error().Err(err).Msg("SMTP connection error")
	} else {
		log.Info().Msg("SMTP server is ready to send mail")
	}
	cancel()

	var verifier relay.TokenVerifier
	if cfg.Secret != "" {
		verifier = security.NewRelaySigner(cfg.Secret, 5*time.Minute)
	} else {
		log.Warn().Msg("RELAY_SECRET not set, send endpoints accept unauthenticated requests")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           relay.NewServer(smtp, render.New(), verifier).Handler(cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("smtp", cfg.SMTPHost).
			Int("smtp_port", cfg.SMTPPort).
			Msg("Email service running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Relay server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Relay shutdown failed")
	}
}

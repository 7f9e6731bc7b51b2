package relay

import (
	"encoding/json"
	"net/http"
	"strings"
	"subscriber-journey/pkg/email"
	"subscriber-journey/pkg/render"

	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	PurposeCoupon = "coupon"

	subjectCoupon      = "Your Coupon Code Request"
	subjectUnsubscribe = "Confirm Unsubscription"

	maxBodyBytes = 1 << 20
)

// TokenVerifier checks the bearer token on relay requests.
type TokenVerifier interface {
	Verify(token string) (*jwt.RegisteredClaims, error)
}

// Server accepts send requests over HTTP and hands them to an email.Service.
type Server struct {
	sender   email.Service
	renderer *render.Renderer
	verifier TokenVerifier
}

// NewServer builds a relay. A nil verifier leaves the send endpoints open.
func NewServer(sender email.Service, renderer *render.Renderer, verifier TokenVerifier) *Server {
	return &Server{sender: sender, renderer: renderer, verifier: verifier}
}

// Handler returns the relay routes behind CORS.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/health-check", s.HealthCheck).Methods("GET")

	send := r.PathPrefix("/api").Subrouter()
	send.Use(s.requireToken)
	send.HandleFunc("/send-email", s.SendEmail).Methods("POST")
	send.HandleFunc("/send-otp", s.SendOTP).Methods("POST")

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(r)
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeResponse(w, http.StatusUnauthorized, email.RelayResponse{Message: "Missing bearer token"})
			return
		}
		if _, err := s.verifier.Verify(token); err != nil {
			log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected relay token")
			writeResponse(w, http.StatusUnauthorized, email.RelayResponse{Message: "Invalid bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusOK, email.RelayResponse{Success: true, Message: "ok"})
}

func (s *Server) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req email.SendEmailRequest
	if err := decode(w, r, &req); err != nil || req.To == "" || req.Subject == "" || req.HTML == "" {
		writeResponse(w, http.StatusBadRequest, email.RelayResponse{Message: "Missing required fields: to, subject, or html"})
		return
	}

	s.deliver(w, r, &email.Message{
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: req.Subject,
		HTML:    req.HTML,
	})
}

func (s *Server) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req email.SendOTPRequest
	if err := decode(w, r, &req); err != nil || req.Email == "" || req.OTP == "" || req.Purpose == "" {
		writeResponse(w, http.StatusBadRequest, email.RelayResponse{Message: "Missing required fields: email, otp, or purpose"})
		return
	}

	subject := subjectUnsubscribe
	intro := "We received a request to unsubscribe from our newsletter."
	if req.Purpose == PurposeCoupon {
		subject = subjectCoupon
		intro = "You have requested a coupon code."
	}

	html, err := s.renderer.Render(otpTemplate, render.Bindings{
		"subject": subject,
		"intro":   intro,
		"purpose": formatPurpose(req.Purpose),
		"otp":     req.OTP,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to render OTP email")
		writeResponse(w, http.StatusInternalServerError, email.RelayResponse{Message: err.Error()})
		return
	}

	s.deliver(w, r, &email.Message{To: req.Email, Subject: subject, HTML: html})
}

func (s *Server) deliver(w http.ResponseWriter, r *http.Request, msg *email.Message) {
	messageID, err := s.sender.SendEmail(r.Context(), msg)
	if err != nil {
		log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("Failed to send email")
		writeResponse(w, http.StatusInternalServerError, email.RelayResponse{Message: err.Error()})
		return
	}

	log.Info().Str("to", msg.To).Str("message_id", messageID).Msg("Email sent successfully")
	writeResponse(w, http.StatusOK, email.RelayResponse{Success: true, MessageID: messageID})
}

func formatPurpose(purpose string) string {
	p := strings.ReplaceAll(purpose, "_", " ")
	return cases.Title(language.English).String(p)
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func writeResponse(w http.ResponseWriter, status int, resp email.RelayResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("Failed to encode relay response")
	}
}

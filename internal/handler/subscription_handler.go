package handler

import (
	"net/http"
	"strings"
	"subscriber-journey/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	authService         *service.AuthService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, authService *service.AuthService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		authService:         authService,
	}
}

type subscribeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type codeRequest struct {
	Code string `json:"code"`
	OTP  string `json:"otp"`
}

// value accepts either field name; forms send "code" for verification and "otp"
// for the OTP screens.
func (c codeRequest) value() string {
	if c.Code != "" {
		return strings.TrimSpace(c.Code)
	}
	return strings.TrimSpace(c.OTP)
}

func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.authService)
	if !ok {
		return
	}

	status, err := h.subscriptionService.Status(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", status)
}

func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.authService)
	if !ok {
		return
	}

	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		req.Email = user.Email
	}
	if req.Name == "" {
		req.Name = user.Name
	}

	if err := h.subscriptionService.Subscribe(r.Context(), user.ID, req.Email, req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Please check your email to verify subscription", nil)
}

func (h *SubscriptionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.authService)
	if !ok {
		return
	}

	var req codeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.subscriptionService.VerifySubscription(r.Context(), user.ID, req.value()); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Subscription verified successfully!", nil)
}

func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.authService)
	if !ok {
		return
	}

	if err := h.subscriptionService.Unsubscribe(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Please check your email for OTP to confirm unsubscription", nil)
}

func (h *SubscriptionHandler) VerifyUnsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.authService)
	if !ok {
		return
	}

	var req codeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.subscriptionService.VerifyUnsubscription(r.Context(), user.ID, req.value()); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "You have been unsubscribed successfully", nil)
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"subscriber-journey/internal/domain"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, response{Success: true, Message: message, Data: data})
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Error: message})
}

// errorStatuses maps the errors callers can act on. Anything else is logged and
// reported as an internal error.
var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrUserAlreadyExists, http.StatusConflict},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrInvalidResetCode, http.StatusBadRequest},
	{domain.ErrInvalidEmail, http.StatusBadRequest},
	{domain.ErrInvalidName, http.StatusBadRequest},
	{domain.ErrInvalidPassword, http.StatusBadRequest},
	{domain.ErrAlreadySubscribed, http.StatusConflict},
	{domain.ErrNotSubscribed, http.StatusBadRequest},
	{domain.ErrInvalidVerificationCode, http.StatusBadRequest},
	{domain.ErrSubscriberNotFound, http.StatusNotFound},
	{domain.ErrListNotFound, http.StatusNotFound},
	{domain.ErrInvalidListName, http.StatusBadRequest},
	{domain.ErrCampaignNotFound, http.StatusNotFound},
	{domain.ErrInvalidCampaignName, http.StatusBadRequest},
	{domain.ErrInvalidSubject, http.StatusBadRequest},
	{domain.ErrInvalidContent, http.StatusBadRequest},
	{domain.ErrInvalidTemplate, http.StatusBadRequest},
	{domain.ErrInvalidFeedURL, http.StatusBadRequest},
	{domain.ErrEmptyFeed, http.StatusUnprocessableEntity},
	{domain.ErrCouponNotFound, http.StatusNotFound},
	{domain.ErrNoActiveCoupon, http.StatusNotFound},
	{domain.ErrInvalidCouponCode, http.StatusBadRequest},
	{domain.ErrCouponAlreadyExists, http.StatusConflict},
	{domain.ErrInvalidSMTPHost, http.StatusBadRequest},
	{domain.ErrInvalidSMTPPort, http.StatusBadRequest},
	{domain.ErrInvalidSMTPUsername, http.StatusBadRequest},
	{domain.ErrInvalidSMTPEncryption, http.StatusBadRequest},
	{domain.ErrSettingsNotFound, http.StatusNotFound},
	{domain.ErrInvalidOTP, http.StatusBadRequest},
	{domain.ErrInvalidOTPFormat, http.StatusBadRequest},
	{domain.ErrOTPExpired, http.StatusBadRequest},
	{domain.ErrEmailDelivery, http.StatusBadGateway},
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
			}
			writeErrorMessage(w, e.status, e.err.Error())
			return
		}
	}

	log.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
	writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

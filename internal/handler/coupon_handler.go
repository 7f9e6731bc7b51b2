package handler

import (
	"net/http"
	"subscriber-journey/internal/service"

	"github.com/gorilla/mux"
)

type CouponHandler struct {
	couponService *service.CouponService
	authService   *service.AuthService
}

func NewCouponHandler(couponService *service.CouponService, authService *service.AuthService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
		authService:   authService,
	}
}

func (h *CouponHandler) Request(w http.ResponseWriter, r *http.Request) {
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

	if err := h.couponService.RequestCoupon(r.Context(), user.ID, req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Please check your email for OTP to get your coupon", nil)
}

func (h *CouponHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.authService)
	if !ok {
		return
	}

	var req codeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	coupon, err := h.couponService.VerifyCouponRequest(r.Context(), user.ID, req.value())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Coupon code sent to your email", map[string]string{"code": coupon.Code})
}

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.couponService.ListCoupons(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", coupons)
}

type couponRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	coupon, err := h.couponService.CreateCoupon(r.Context(), req.Code, req.Description, active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Coupon created successfully", coupon)
}

func (h *CouponHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeErrorMessage(w, http.StatusBadRequest, "isActive is required")
		return
	}

	if err := h.couponService.SetCouponActive(r.Context(), mux.Vars(r)["id"], *req.IsActive); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Coupon updated successfully", nil)
}

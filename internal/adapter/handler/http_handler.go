package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/service"
)

const maxBodyBytes = 1 << 20

type HTTPHandler struct {
	cartService *service.CartService
}

type ReconcileHTTPRequest struct {
	UserID   string                   `json:"userId"`
	Cart     []domain.CartLine        `json:"cart"`
	Products []domain.ProductSnapshot `json:"products"`
}

type ReconcileHTTPResponse struct {
	Valid    []domain.CartLine     `json:"valid"`
	Invalid  []domain.CartLine     `json:"invalid"`
	Warnings []domain.StockWarning `json:"warnings"`
}

type ArmHTTPRequest struct {
	UserID string            `json:"userId"`
	Cart   []domain.CartLine `json:"cart"`
}

type ArmHTTPResponse struct {
	Armed    bool                     `json:"armed"`
	Schedule *domain.ReminderSchedule `json:"schedule,omitempty"`
}

type UserHTTPRequest struct {
	UserID string `json:"userId"`
}

type BackInStockHTTPRequest struct {
	ProductID   domain.ProductRef `json:"productId"`
	ProductName string            `json:"productName"`
}

type WishlistHTTPRequest struct {
	Items    []domain.WishlistItem    `json:"items"`
	Products []domain.ProductSnapshot `json:"products,omitempty"`
}

type StatusHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(cartService *service.CartService) *HTTPHandler {
	return &HTTPHandler{cartService: cartService}
}

// Routes registers every endpoint on a new mux.
func (h *HTTPHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/cart/reconcile", h.Reconcile)
	mux.HandleFunc("/api/reminders/arm", h.ArmReminders)
	mux.HandleFunc("/api/reminders/cancel", h.CancelReminders)
	mux.HandleFunc("/api/checkout/complete", h.CompleteCheckout)
	mux.HandleFunc("/api/stock/back-in-stock", h.BackInStock)
	mux.HandleFunc("/api/stock/observe", h.ObserveStock)
	mux.HandleFunc("/api/wishlist/prices", h.WishlistPrices)
	return mux
}

func (h *HTTPHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileHTTPRequest
	if !decodePost(w, r, &req) {
		return
	}

	result, warnings := h.cartService.Reconcile(r.Context(), req.UserID, req.Cart, req.Products)
	writeJSON(w, http.StatusOK, ReconcileHTTPResponse{
		Valid:    result.Valid,
		Invalid:  result.Invalid,
		Warnings: warnings,
	})
}

func (h *HTTPHandler) ArmReminders(w http.ResponseWriter, r *http.Request) {
	var req ArmHTTPRequest
	if !decodePost(w, r, &req) {
		return
	}

	armed, err := h.cartService.Background(r.Context(), req.UserID, req.Cart)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ArmHTTPResponse{Armed: armed}
	if schedule, ok := h.cartService.Schedule(req.UserID); ok {
		resp.Schedule = &schedule
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) CancelReminders(w http.ResponseWriter, r *http.Request) {
	var req UserHTTPRequest
	if !decodePost(w, r, &req) {
		return
	}

	if err := h.cartService.Foreground(req.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusHTTPResponse{Success: true, Message: "reminders cancelled"})
}

func (h *HTTPHandler) CompleteCheckout(w http.ResponseWriter, r *http.Request) {
	var req UserHTTPRequest
	if !decodePost(w, r, &req) {
		return
	}

	if err := h.cartService.CompleteCheckout(r.Context(), req.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusHTTPResponse{Success: true, Message: "checkout completed"})
}

func (h *HTTPHandler) BackInStock(w http.ResponseWriter, r *http.Request) {
	var req BackInStockHTTPRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, StatusHTTPResponse{Message: "missing required fields"})
		return
	}

	sent := h.cartService.BackInStock(r.Context(), req.ProductID.String(), req.ProductName)
	writeJSON(w, http.StatusOK, map[string]bool{"sent": sent})
}

func (h *HTTPHandler) ObserveStock(w http.ResponseWriter, r *http.Request) {
	var req WishlistHTTPRequest
	if !decodePost(w, r, &req) {
		return
	}

	sent := h.cartService.ObserveStock(r.Context(), req.Items, req.Products)
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}

func (h *HTTPHandler) WishlistPrices(w http.ResponseWriter, r *http.Request) {
	var req WishlistHTTPRequest
	if !decodePost(w, r, &req) {
		return
	}

	drops := h.cartService.WishlistPrices(r.Context(), req.Items)
	writeJSON(w, http.StatusOK, map[string][]domain.PriceDrop{"drops": drops})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	if errors.Is(err, service.ErrMissingUser) {
		status = http.StatusBadRequest
		message = "missing required fields"
	} else {
		logrus.WithError(err).Error("request failed")
	}

	writeJSON(w, status, StatusHTTPResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/punchamoorthee/stayledger/internal/catalog"
	"github.com/punchamoorthee/stayledger/internal/domain"
	"github.com/punchamoorthee/stayledger/internal/gateway"
	"github.com/punchamoorthee/stayledger/internal/models"
	"github.com/punchamoorthee/stayledger/internal/money"
	"github.com/punchamoorthee/stayledger/internal/receipt"
	"github.com/punchamoorthee/stayledger/internal/service"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

type Handler struct {
	bookings *service.BookingService
	catalog  catalog.Catalog
	ledger   gateway.Gateway
}

func NewHandler(svc *service.BookingService, c catalog.Catalog, gw gateway.Gateway) *Handler {
	return &Handler{bookings: svc, catalog: c, ledger: gw}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListListingsHandler(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.Listings(r.Context())
	if err != nil {
		log.Printf("[api] list listings: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	respondWithJSON(w, http.StatusOK, listings)
}

func (h *Handler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.Listing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	q := r.URL.Query()
	checkIn, checkOut, err := parseStay(q.Get("checkIn"), q.Get("checkOut"))
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	quote, err := h.bookings.Quote(listing, checkIn, checkOut)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.QuoteResponse{
		ListingID:  listing.ID,
		PriceQuote: quote,
		Amount:     money.FormatLedgerAmount(quote.GrandTotal),
		Asset:      listing.AssetCode(),
	})
}

func (h *Handler) CreateReservationHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ReserveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	listing, err := h.catalog.Listing(r.Context(), req.ListingID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	res, err := h.bookings.Reserve(r.Context(), service.ReserveRequest{
		Listing:  listing,
		Payer:    req.Payer,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   req.Guests,
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/reservations/"+res.ID)
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *Handler) ListReservationsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		list []domain.Reservation
		err  error
	)
	switch {
	case q.Get("payer") != "":
		list, err = h.bookings.ForGuest(r.Context(), q.Get("payer"))
	case q.Get("payee") != "":
		list, err = h.bookings.ForHost(r.Context(), q.Get("payee"))
	default:
		list, err = h.bookings.List(r.Context())
	}
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) GetReservationHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.bookings.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) CancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.bookings.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) ReviewReservationHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.bookings.AttachReview(r.Context(), mux.Vars(r)["id"], req.Rating, req.Review)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) ReceiptHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.bookings.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+receipt.Filename(res.ID)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(receipt.Render(res)))
}

func (h *Handler) AccountSummaryHandler(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	role := r.URL.Query().Get("role")
	if role == "" {
		role = "guest"
	}

	var (
		list []domain.Reservation
		err  error
	)
	switch role {
	case "guest":
		list, err = h.bookings.ForGuest(r.Context(), address)
	case "host":
		list, err = h.bookings.ForHost(r.Context(), address)
	default:
		respondWithError(w, http.StatusUnprocessableEntity, "role must be guest or host")
		return
	}
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	resp := models.AccountSummary{
		Address:      address,
		Role:         role,
		Summary:      service.Summarize(list),
		Reservations: list,
	}
	if bal, err := h.ledger.Balance(r.Context(), address); err != nil {
		log.Printf("[api] balance for %s: %v", address, err)
	} else {
		resp.Balance = bal.Available.StringFixed(money.LedgerPrecision)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func parseStay(in, out string) (time.Time, time.Time, error) {
	checkIn, err := money.ParseDate(in)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := money.ParseDate(out)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	var (
		insufficient *domain.InsufficientFundsError
		failed       *domain.PaymentFailedError
		persist      *domain.PersistenceAfterPaymentError
	)
	switch {
	case errors.As(err, &persist):
		respondWithJSON(w, http.StatusInternalServerError, models.UnsavedPaymentResponse{
			Error:  "Payment settled but the reservation was not saved. Keep this transaction hash.",
			TxHash: persist.TxHash,
		})
	case errors.As(err, &insufficient):
		respondWithJSON(w, http.StatusPaymentRequired, models.InsufficientFundsResponse{
			Error:     "Insufficient funds",
			Required:  insufficient.Required.StringFixed(money.LedgerPrecision),
			Available: insufficient.Available.StringFixed(money.LedgerPrecision),
		})
	case errors.As(err, &failed):
		respondWithJSON(w, http.StatusBadGateway, models.PaymentFailedResponse{
			Error:  "Payment failed",
			Reason: failed.Reason,
		})
	case errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidGuests),
		errors.Is(err, domain.ErrGuestLimitExceeded),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidRating):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrListingNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateIdentifier),
		errors.Is(err, domain.ErrAlreadyCancelled),
		errors.Is(err, domain.ErrReviewNotAllowed):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("[api] unhandled error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// Package click implements the Click (redirect-style) payment callback
// protocol: a two-phase PREPARE/COMPLETE handshake over form-encoded POSTs,
// where the merchant-chosen order id is the transaction reference.
//
// Per the provider's calling convention every response, success or business
// fault, is HTTP 200 with a JSON body carrying a (error, error_note) pair.
// No PREPARE state is persisted; COMPLETE relies entirely on its own
// idempotency check against the order status.
package click

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-yoga-subscription/internal/config"
	"telegram-yoga-subscription/internal/domain"
	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/repository"
	"telegram-yoga-subscription/internal/infra/metrics"
	"telegram-yoga-subscription/internal/usecase"
)

// Click protocol error codes.
const (
	errSuccess         = 0
	errSignCheckFailed = -1
	errIncorrectAmount = -2
	errActionNotFound  = -3
	errAlreadyPaid     = -4
	errOrderNotFound   = -5
	errInternal        = -9
)

const (
	actionPrepare  = "0"
	actionComplete = "1"
)

type response struct {
	ClickTransID      string `json:"click_trans_id,omitempty"`
	MerchantTransID   string `json:"merchant_trans_id,omitempty"`
	MerchantPrepareID string `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID string `json:"merchant_confirm_id,omitempty"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}

type Handler struct {
	cfg      config.ClickConfig
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	grant    usecase.GrantUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewHandler(
	cfg config.ClickConfig,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	grant usecase.GrantUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *Handler {
	l := logger.With().Str("component", "ClickHandler").Logger()
	return &Handler{cfg: cfg, orders: orders, payments: payments, grant: grant, tm: tm, log: &l}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respond(w, response{Error: errInternal, ErrorNote: "INTERNAL ERROR"})
		return
	}

	transID := r.PostFormValue("click_trans_id")
	serviceID := r.PostFormValue("service_id")
	merchantTransID := r.PostFormValue("merchant_trans_id")
	amount := r.PostFormValue("amount")
	action := r.PostFormValue("action")
	callbackErr := r.PostFormValue("error")
	callbackErrNote := r.PostFormValue("error_note")
	signTime := r.PostFormValue("sign_time")
	signString := r.PostFormValue("sign_string")

	if !VerifySignature(h.cfg.SecretKey, transID, serviceID, merchantTransID, amount, action, signTime, signString) {
		h.log.Warn().Str("merchant_trans_id", merchantTransID).Msg("signature check failed")
		h.fault(w, errSignCheckFailed, "SIGN CHECK FAILED")
		return
	}

	ctx := r.Context()
	order, err := h.orders.FindByID(ctx, repository.NoTX, merchantTransID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.fault(w, errOrderNotFound, "ORDER NOT FOUND")
			return
		}
		h.log.Error().Err(err).Str("merchant_trans_id", merchantTransID).Msg("order lookup failed")
		h.fault(w, errInternal, "INTERNAL ERROR")
		return
	}

	// The amount asserted by the attempt must exactly equal the order's.
	got, err := strconv.ParseFloat(amount, 64)
	if err != nil || got != float64(order.AmountUzs) {
		h.fault(w, errIncorrectAmount, "INCORRECT AMOUNT")
		return
	}

	switch action {
	case actionPrepare:
		h.handlePrepare(w, transID, order)
	case actionComplete:
		h.handleComplete(ctx, w, r, transID, callbackErr, callbackErrNote, order)
	default:
		h.fault(w, errActionNotFound, "ACTION NOT FOUND")
	}
}

// handlePrepare validates preconditions only; it performs no mutation.
func (h *Handler) handlePrepare(w http.ResponseWriter, transID string, order *model.Order) {
	if order.Status == model.OrderStatusPaid {
		h.fault(w, errAlreadyPaid, "ALREADY PAID")
		return
	}
	metrics.IncWebhookRequest("click", "ok")
	h.respond(w, response{
		ClickTransID:      transID,
		MerchantTransID:   order.ID,
		MerchantPrepareID: order.ID,
		Error:             errSuccess,
		ErrorNote:         "Success",
	})
}

func (h *Handler) handleComplete(ctx context.Context, w http.ResponseWriter, r *http.Request, transID, callbackErr, callbackErrNote string, order *model.Order) {
	// An upstream provider-side failure: mark the order failed and echo the
	// error back verbatim. No payment or subscription is created.
	if code, err := strconv.Atoi(callbackErr); err == nil && code < 0 {
		if err := h.orders.MarkFailed(ctx, repository.NoTX, order.ID); err != nil {
			h.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to mark order failed")
		}
		metrics.IncPayment("click", string(model.PaymentStatusFailed))
		h.fault(w, code, callbackErrNote)
		return
	}

	if order.Status == model.OrderStatusPaid {
		h.confirm(w, transID, order.ID, "Already paid")
		return
	}

	// Mark order paid, record the payment and grant the entitlement as one
	// atomic unit. MarkPaidIfPending is the race guard: of two concurrent
	// COMPLETE deliveries exactly one wins the conditional update.
	won := false
	err := h.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ok, err := h.orders.MarkPaidIfPending(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !ok {
			return nil // other delivery won; idempotent success below
		}
		won = true

		now := time.Now()
		payload := make(map[string]interface{}, len(r.PostForm))
		for k := range r.PostForm {
			payload[k] = r.PostFormValue(k)
		}
		p := &model.Payment{
			ID:            uuid.NewString(),
			OrderID:       order.ID,
			Provider:      model.ProviderClick,
			TransactionID: transID,
			Status:        model.PaymentStatusPaid,
			CreatedAt:     now,
			UpdatedAt:     now,
			PaidAt:        &now,
			Payload:       payload,
		}
		if err := h.payments.Save(ctx, tx, p); err != nil {
			return err
		}

		_, err = h.grant.Grant(ctx, tx, order)
		return err
	})
	if err != nil {
		h.log.Error().Err(err).Str("order_id", order.ID).Msg("complete transaction failed")
		h.fault(w, errInternal, "INTERNAL ERROR")
		return
	}

	if won {
		metrics.IncPayment("click", string(model.PaymentStatusPaid))
		metrics.AddPaymentRevenue("click", order.AmountUzs)
	}
	h.confirm(w, transID, order.ID, "Success")
}

func (h *Handler) confirm(w http.ResponseWriter, transID, orderID, note string) {
	metrics.IncWebhookRequest("click", "ok")
	h.respond(w, response{
		ClickTransID:      transID,
		MerchantTransID:   orderID,
		MerchantConfirmID: orderID,
		Error:             errSuccess,
		ErrorNote:         note,
	})
}

func (h *Handler) fault(w http.ResponseWriter, code int, note string) {
	metrics.IncWebhookRequest("click", "fault")
	h.respond(w, response{Error: code, ErrorNote: note})
}

func (h *Handler) respond(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

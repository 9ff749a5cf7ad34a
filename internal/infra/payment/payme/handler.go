// Package payme implements the Payme (RPC-style) merchant API: a JSON-RPC
// shaped 5-method transaction protocol over HTTP Basic Auth, where the
// provider owns the transaction id and (provider, transaction id) is the
// idempotency key.
//
// Business faults are returned in the provider's own error envelope with
// HTTP 200; the transport never surfaces a 4xx/5xx for an expected fault.
package payme

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
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

// Payme fault codes.
const (
	codePermissionDenied      = -32504
	codeMethodNotFound        = -32601
	codeParseError            = -32400
	codeInvalidAmount         = -31001
	codeTransactionNotFound   = -31003
	codeOrderNotFound         = -31050
	codeAlreadyPaid           = -31051
	codeCanceled              = -31007
	codeInvalidState          = -31008
	codeTransactionInProgress = -31099
)

// basicAuthUser is the fixed username Payme sends with the shared secret.
const basicAuthUser = "Paycom"

type rpcRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     interface{}     `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result interface{} `json:"result,omitempty"`
	Error  *rpcError   `json:"error,omitempty"`
	ID     interface{} `json:"id"`
}

type accountParams struct {
	OrderID string `json:"order_id"`
}

type checkPerformParams struct {
	Amount  int64         `json:"amount"`
	Account accountParams `json:"account"`
}

type createParams struct {
	ID      string        `json:"id"`
	Time    int64         `json:"time"`
	Amount  int64         `json:"amount"`
	Account accountParams `json:"account"`
}

type transactionParams struct {
	ID string `json:"id"`
}

type Handler struct {
	cfg      config.PaymeConfig
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	grant    usecase.GrantUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewHandler(
	cfg config.PaymeConfig,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	grant usecase.GrantUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *Handler {
	l := logger.With().Str("component", "PaymeHandler").Logger()
	return &Handler{cfg: cfg, orders: orders, payments: payments, grant: grant, tm: tm, log: &l}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Credentials are checked before any method dispatch.
	if !h.checkAuth(r) {
		h.fault(w, nil, codePermissionDenied, "Permission denied")
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fault(w, nil, codeParseError, "Parse error")
		return
	}

	ctx := r.Context()
	switch req.Method {
	case "CheckPerformTransaction":
		h.checkPerform(ctx, w, req)
	case "CreateTransaction":
		h.create(ctx, w, req)
	case "PerformTransaction":
		h.perform(ctx, w, req)
	case "CancelTransaction":
		h.cancel(ctx, w, req)
	case "CheckTransaction":
		h.check(ctx, w, req)
	default:
		h.fault(w, req.ID, codeMethodNotFound, "Method not found")
	}
}

func (h *Handler) checkAuth(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Basic ") {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return false
	}
	user, key, found := strings.Cut(string(raw), ":")
	return found && user == basicAuthUser && key == h.cfg.SecretKey
}

// checkPerform validates that an order can be paid. No mutation.
func (h *Handler) checkPerform(ctx context.Context, w http.ResponseWriter, req rpcRequest) {
	var p checkPerformParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		h.fault(w, req.ID, codeParseError, "Parse error")
		return
	}

	order, err := h.orders.FindByID(ctx, repository.NoTX, p.Account.OrderID)
	if err != nil {
		h.orderFault(w, req.ID, err)
		return
	}
	if order.Status == model.OrderStatusPaid {
		h.fault(w, req.ID, codeAlreadyPaid, "Already paid")
		return
	}
	// Payme sends amounts in tiyin.
	if order.AmountUzs != p.Amount/100 {
		h.fault(w, req.ID, codeInvalidAmount, "Invalid amount")
		return
	}

	h.respond(w, req.ID, map[string]interface{}{"allow": true})
}

// create registers a provider-owned transaction against an order. The
// provider's id is the idempotency key: replaying a PENDING create returns
// the original creation data, any other replay is a state fault.
func (h *Handler) create(ctx context.Context, w http.ResponseWriter, req rpcRequest) {
	var p createParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		h.fault(w, req.ID, codeParseError, "Parse error")
		return
	}

	order, err := h.orders.FindByID(ctx, repository.NoTX, p.Account.OrderID)
	if err != nil {
		h.orderFault(w, req.ID, err)
		return
	}

	existing, err := h.payments.FindByProviderTransID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
	if err == nil {
		if existing.Status != model.PaymentStatusPending {
			h.fault(w, req.ID, codeInvalidState, "Transaction state invalid")
			return
		}
		h.respond(w, req.ID, map[string]interface{}{
			"create_time": existing.CreatedAt.UnixMilli(),
			"transaction": existing.ID,
			"state":       model.PaymeStateCreated,
		})
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		h.internal(w, req.ID, err, "payment lookup failed")
		return
	}

	// At most one live attempt per order, independent of the provider's own
	// idempotency.
	if other, err := h.payments.FindLiveByOrder(ctx, repository.NoTX, order.ID); err == nil && other != nil {
		h.fault(w, req.ID, codeTransactionInProgress, "Other transaction in progress")
		return
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.internal(w, req.ID, err, "live payment lookup failed")
		return
	}

	now := time.Now()
	payload := map[string]interface{}{
		"id":     p.ID,
		"time":   p.Time,
		"amount": p.Amount,
		"account": map[string]interface{}{
			"order_id": p.Account.OrderID,
		},
	}
	payment := &model.Payment{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		Provider:      model.ProviderPayme,
		TransactionID: p.ID,
		Status:        model.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Payload:       payload,
	}
	if err := h.payments.Save(ctx, repository.NoTX, payment); err != nil {
		h.internal(w, req.ID, err, "payment create failed")
		return
	}

	metrics.IncPayment("payme", string(model.PaymentStatusPending))
	h.respond(w, req.ID, map[string]interface{}{
		"create_time": payment.CreatedAt.UnixMilli(),
		"transaction": payment.ID,
		"state":       model.PaymeStateCreated,
	})
}

// perform settles a PENDING transaction: payment PAID, order PAID and the
// entitlement grant execute in one transaction. The conditional update on the
// payment row decides the winner of concurrent Perform deliveries; the loser
// re-reads and answers idempotently.
func (h *Handler) perform(ctx context.Context, w http.ResponseWriter, req rpcRequest) {
	var p transactionParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		h.fault(w, req.ID, codeParseError, "Parse error")
		return
	}

	payment, err := h.payments.FindByProviderTransID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
	if err != nil {
		h.transactionFault(w, req.ID, err)
		return
	}

	if payment.Status == model.PaymentStatusPaid {
		h.performed(w, req.ID, payment)
		return
	}
	if payment.Status != model.PaymentStatusPending {
		h.fault(w, req.ID, codeInvalidState, "Invalid state")
		return
	}

	now := time.Now()
	won := true
	err = h.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ok, err := h.payments.UpdateStatusIfPending(ctx, tx, payment.ID, model.PaymentStatusPaid, &now)
		if err != nil {
			return err
		}
		if !ok {
			won = false
			return nil
		}
		if _, err := h.orders.MarkPaidIfPending(ctx, tx, payment.OrderID); err != nil {
			return err
		}
		order, err := h.orders.FindByID(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}
		_, err = h.grant.Grant(ctx, tx, order)
		return err
	})
	if err != nil {
		h.internal(w, req.ID, err, "perform transaction failed")
		return
	}

	if !won {
		// Lost the race: report whatever terminal state the winner left.
		fresh, err := h.payments.FindByProviderTransID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
		if err != nil {
			h.transactionFault(w, req.ID, err)
			return
		}
		if fresh.Status == model.PaymentStatusPaid {
			h.performed(w, req.ID, fresh)
			return
		}
		h.fault(w, req.ID, codeInvalidState, "Invalid state")
		return
	}

	metrics.IncPayment("payme", string(model.PaymentStatusPaid))
	h.respond(w, req.ID, map[string]interface{}{
		"transaction":  payment.ID,
		"perform_time": now.UnixMilli(),
		"state":        model.PaymeStatePerformed,
	})
}

// cancel flips the transaction to CANCELED. A subscription already granted by
// a prior Perform is NOT revoked here; refunds are handled manually.
func (h *Handler) cancel(ctx context.Context, w http.ResponseWriter, req rpcRequest) {
	var p transactionParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		h.fault(w, req.ID, codeParseError, "Parse error")
		return
	}

	payment, err := h.payments.FindByProviderTransID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
	if err != nil {
		h.transactionFault(w, req.ID, err)
		return
	}

	now := time.Now()
	flipped, err := h.payments.CancelIfNotCanceled(ctx, repository.NoTX, payment.ID, now)
	if err != nil {
		h.internal(w, req.ID, err, "cancel transaction failed")
		return
	}
	cancelTime := now
	if !flipped {
		// Already canceled: acknowledge with the original cancel time.
		if payment.CanceledAt != nil {
			cancelTime = *payment.CanceledAt
		} else {
			cancelTime = payment.UpdatedAt
		}
	} else {
		metrics.IncPayment("payme", string(model.PaymentStatusCanceled))
	}

	h.respond(w, req.ID, map[string]interface{}{
		"transaction": payment.ID,
		"cancel_time": cancelTime.UnixMilli(),
		"state":       model.PaymeStateCanceled,
	})
}

// check is a read-only projection of the transaction's times and state.
func (h *Handler) check(ctx context.Context, w http.ResponseWriter, req rpcRequest) {
	var p transactionParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		h.fault(w, req.ID, codeParseError, "Parse error")
		return
	}

	payment, err := h.payments.FindByProviderTransID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
	if err != nil {
		h.transactionFault(w, req.ID, err)
		return
	}

	var performTime, cancelTime int64
	if payment.PaidAt != nil {
		performTime = payment.PaidAt.UnixMilli()
	}
	if payment.Status == model.PaymentStatusCanceled {
		if payment.CanceledAt != nil {
			cancelTime = payment.CanceledAt.UnixMilli()
		} else {
			cancelTime = payment.UpdatedAt.UnixMilli()
		}
	}
	h.respond(w, req.ID, map[string]interface{}{
		"create_time":  payment.CreatedAt.UnixMilli(),
		"perform_time": performTime,
		"cancel_time":  cancelTime,
		"transaction":  payment.ID,
		"state":        payment.PaymeState(),
		"reason":       nil,
	})
}

func (h *Handler) performed(w http.ResponseWriter, id interface{}, payment *model.Payment) {
	var performTime int64
	if payment.PaidAt != nil {
		performTime = payment.PaidAt.UnixMilli()
	}
	h.respond(w, id, map[string]interface{}{
		"transaction":  payment.ID,
		"perform_time": performTime,
		"state":        model.PaymeStatePerformed,
	})
}

func (h *Handler) orderFault(w http.ResponseWriter, id interface{}, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		h.fault(w, id, codeOrderNotFound, "Order not found")
		return
	}
	h.internal(w, id, err, "order lookup failed")
}

func (h *Handler) transactionFault(w http.ResponseWriter, id interface{}, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		h.fault(w, id, codeTransactionNotFound, "Transaction not found")
		return
	}
	h.internal(w, id, err, "payment lookup failed")
}

func (h *Handler) internal(w http.ResponseWriter, id interface{}, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	h.fault(w, id, codeParseError, "Internal error")
}

func (h *Handler) respond(w http.ResponseWriter, id, result interface{}) {
	metrics.IncWebhookRequest("payme", "ok")
	h.write(w, rpcResponse{Result: result, ID: id})
}

func (h *Handler) fault(w http.ResponseWriter, id interface{}, code int, message string) {
	metrics.IncWebhookRequest("payme", "fault")
	h.write(w, rpcResponse{Error: &rpcError{Code: code, Message: message}, ID: id})
}

func (h *Handler) write(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

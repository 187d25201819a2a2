// Package paymentwebhook реализует HTTP-обработчик уведомлений платёжного
// провайдера. Подпись тела проверяется до разбора; обработка идемпотентна,
// поэтому повторная доставка того же события безопасна.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/http/response"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/services/reconcile"
)

// Service описывает интерфейс сверки платежей.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, event *reconcile.Event) (*reconcile.Outcome, error)
}

// Handler управляет HTTP-запросами уведомлений провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload — тело уведомления провайдера.
type Payload struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`     // идентификатор сессии
		Status string `json:"status"` // статус платежа
		Amount struct {
			Value    string `json:"value"`    // сумма в строке, например "100.00"
			Currency string `json:"currency"` // валюта
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"` // user_uid и др.
	} `json:"object"`
}

// Проверка подписи webhook (X-Api-Signature)
func (h *Handler) verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// Обрабатываемые события провайдера.
const (
	PaymentSucceeded = "payment.succeeded"
	PaymentCanceled  = "payment.canceled"
)

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(h.webhookSecret, body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var status string
	switch strings.ToLower(payload.Event) {
	case PaymentSucceeded:
		status = models.PaymentStatusSucceeded
	case PaymentCanceled:
		status = models.PaymentStatusFailed
	default:
		log.Info("ignored webhook event", slog.String("event", payload.Event))
		w.WriteHeader(http.StatusOK)
		return
	}

	event := &reconcile.Event{
		SessionID: payload.Object.ID,
		Status:    status,
		Amount:    parseAmountKopecks(payload.Object.Amount.Value),
		Currency:  payload.Object.Amount.Currency,
		UserUID:   payload.Object.Metadata["user_uid"],
	}

	outcome, err := h.service.ProcessWebhookEvent(r.Context(), event)
	if err != nil {
		// аутентичное событие без сопоставимого платежа подтверждается:
		// повторная доставка не изменит результат
		if errors.Is(err, domain.ErrPaymentNotFound) {
			log.Warn("webhook event matches no payment",
				slog.String("session_id", payload.Object.ID))
			render.JSON(w, r, response.Error("unknown payment session"))
			return
		}
		log.Error("failed to process webhook event", sl.Err(err))
		// провайдер повторит доставку, обработка идемпотентна
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event", payload.Event),
		slog.String("session_id", payload.Object.ID),
		slog.Bool("duplicate", outcome.Duplicate),
		slog.Bool("activated", outcome.Activated))
	render.JSON(w, r, response.StatusOKWithData(outcome))
}

// parseAmountKopecks переводит строку провайдера "100.00" в копейки.
func parseAmountKopecks(value string) int64 {
	whole, frac, _ := strings.Cut(value, ".")
	rub, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0
	}
	kop := int64(0)
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		kop, _ = strconv.ParseInt(frac, 10, 64)
	}
	return rub*100 + kop
}

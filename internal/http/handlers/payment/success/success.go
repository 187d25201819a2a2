// Package success реализует HTTP-обработчик страницы успешной оплаты —
// второй точки входа сверки платежей. Пользователь возвращается от провайдера
// с session_id в query-параметре; если webhook ещё не пришёл, активация
// выполняется здесь.
package success

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/studio-directory/internal/http/response"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/services/reconcile"
)

// Service описывает интерфейс сверки платежей со стороны страницы успеха.
type Service interface {
	ConfirmSuccess(ctx context.Context, sessionID, email string) (*reconcile.Outcome, error)
}

// Handler управляет HTTP-запросами страницы успешной оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтвердить успешную оплату
// @Description Сверяет платёж по session_id (или email, если session_id потерян) и активирует учётную запись, если webhook ещё не пришёл. Повторный вызов идемпотентен.
// @Tags Payments
// @Produce  json
// @Param session_id query string false "Идентификатор платёжной сессии"
// @Param email query string false "Email, если session_id недоступен"
// @Success 200 {object} response.Response "Итог сверки"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 409 {object} response.ErrorResponse "Платёж не завершён или бронь истекла после оплаты"
// @Router /payments/success [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.success"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessionID := r.URL.Query().Get("session_id")
	email := r.URL.Query().Get("email")
	if sessionID == "" {
		if err := h.validate.Var(email, "required,email"); err != nil {
			log.Error("missing session_id and email query parameters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("session_id or email query parameter is required"))
			return
		}
	}

	outcome, err := h.service.ConfirmSuccess(r.Context(), sessionID, email)
	if err != nil {
		log.Error("failed to confirm payment", sl.Err(err))
		status, resp := response.DomainError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("payment confirmed",
		slog.String("payment_id", outcome.PaymentID),
		slog.Bool("activated", outcome.Activated))
	render.JSON(w, r, response.StatusOKWithData(outcome))
}

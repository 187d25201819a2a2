// Package checkout реализует HTTP-обработчик создания платёжной сессии.
//
// Оплата доступна pending-учётной записи с подтверждённой почтой и выбранным
// именем; в ответе — адрес страницы оплаты провайдера.
package checkout

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/studio-directory/internal/http/response"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/services/checkout"
)

// Request — входные данные для создания платёжной сессии
type Request struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
}

// Service описывает интерфейс бизнес-логики оформления оплаты.
type Service interface {
	CreateCheckout(ctx context.Context, userUID string) (*checkout.Result, error)
}

// Handler управляет HTTP-запросами создания платёжной сессии.
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
// @Summary Создать платёжную сессию
// @Description Создает checkout-сессию у платёжного провайдера для оплаты размещения. Требует подтверждённой почты и выбранного имени.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "UID пользователя"
// @Success 200 {object} response.Response "Сессия создана, в данных адрес страницы оплаты"
// @Failure 400 {object} response.ErrorResponse "Имя пользователя не выбрано"
// @Failure 409 {object} response.ErrorResponse "Почта не подтверждена или пользователь уже активен"
// @Failure 410 {object} response.ErrorResponse "Бронь истекла"
// @Router /payments/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.CreateCheckout(r.Context(), req.UserUID)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		status, resp := response.DomainError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("checkout session created", slog.String("session_id", result.SessionID))
	render.JSON(w, r, response.StatusOKWithData(result))
}

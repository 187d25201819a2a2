// Package reserveusername реализует HTTP-обработчик выбора имени пользователя.
//
// Handler заменяет временное имя pending-учётной записи на выбранное.
// Конфликт имен и истечение брони возвращаются с машинными кодами причин.
package reserveusername

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
	"github.com/magabrotheeeer/studio-directory/internal/models"
)

// Request — входные данные для выбора имени пользователя
type Request struct {
	UserUID  string `json:"user_uid" validate:"required,uuid"`
	Username string `json:"username" validate:"required,min=3,max=20"`
}

// Service описывает интерфейс бизнес-логики резервирования имени.
type Service interface {
	ReserveUsername(ctx context.Context, userUID, username string) (*models.User, error)
}

// Handler управляет HTTP-запросами выбора имени пользователя.
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
// @Summary Зарезервировать имя пользователя
// @Description Заменяет временное имя pending-учётной записи на выбранное. Из двух конкурентных попыток на одно имя выигрывает одна.
// @Tags Signup
// @Accept  json
// @Produce  json
// @Param request body Request true "UID пользователя и желаемое имя"
// @Success 200 {object} response.Response "Имя закреплено"
// @Failure 400 {object} response.ErrorResponse "Недопустимое имя"
// @Failure 409 {object} response.ErrorResponse "Имя занято"
// @Failure 410 {object} response.ErrorResponse "Бронь истекла"
// @Router /signup/username [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.reserveusername"

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

	user, err := h.service.ReserveUsername(r.Context(), req.UserUID, req.Username)
	if err != nil {
		log.Error("failed to reserve username", sl.Err(err))
		status, resp := response.DomainError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("username reserved",
		slog.String("user_uid", user.UID),
		slog.String("username", user.Username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid": user.UID,
		"username": user.Username,
	}))
}

// Package signupstatus реализует HTTP-обработчик проверки состояния
// незавершённой регистрации: с какого шага продолжать и сколько времени
// осталось до истечения брони.
package signupstatus

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/studio-directory/internal/http/response"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/services/signup"
)

// Service описывает интерфейс бизнес-логики проверки состояния регистрации.
type Service interface {
	CheckSignupStatus(ctx context.Context, email string) (*signup.StatusResult, error)
}

// Handler управляет HTTP-запросами состояния регистрации.
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

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signupstatus"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	email := r.URL.Query().Get("email")
	if err := h.validate.Var(email, "required,email"); err != nil {
		log.Error("invalid email query parameter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("valid email query parameter is required"))
		return
	}

	result, err := h.service.CheckSignupStatus(r.Context(), email)
	if err != nil {
		log.Error("failed to check signup status", sl.Err(err))
		status, resp := response.DomainError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}

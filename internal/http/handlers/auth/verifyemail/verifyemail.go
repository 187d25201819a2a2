// Package verifyemail реализует HTTP-обработчик подтверждения почты.
//
// Ссылка из письма открывается GET-запросом с токеном в query-параметре:
// токен и есть аутентификация шага, сессия не требуется. Повторное открытие
// той же ссылки возвращает успех без изменений состояния.
package verifyemail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/http/response"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/services/signup"
)

// Service описывает интерфейс бизнес-логики подтверждения почты.
type Service interface {
	VerifyEmail(ctx context.Context, verificationToken string) (*signup.VerifyResult, error)
}

// Handler управляет HTTP-запросами подтверждения почты.
type Handler struct {
	log     *slog.Logger
	service Service
	// redirectURL — адрес страницы продолжения регистрации; если задан,
	// успешное подтверждение отвечает редиректом вместо JSON.
	redirectURL string
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service, redirectURL string) *Handler {
	return &Handler{
		log:         log,
		service:     service,
		redirectURL: redirectURL,
	}
}

// ServeHTTP godoc
// @Summary Подтвердить адрес почты
// @Description Подтверждает почту по одноразовому токену из письма. Повторный вызов с тем же токеном идемпотентен.
// @Tags Signup
// @Produce  json
// @Param token query string true "Токен подтверждения"
// @Success 200 {object} response.Response "Почта подтверждена"
// @Failure 404 {object} response.ErrorResponse "Токен не найден или уже использован"
// @Failure 410 {object} response.ErrorResponse "Токен просрочен"
// @Router /verify-email [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyemail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	verificationToken := r.URL.Query().Get("token")
	if verificationToken == "" {
		log.Error("missing token query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("token is required"))
		return
	}

	result, err := h.service.VerifyEmail(r.Context(), verificationToken)
	if err != nil {
		log.Error("email verification failed", sl.Err(err))
		status, resp := response.DomainError(err)
		// для просроченного токена клиенту нужен email, чтобы
		// предложить повторную отправку письма
		if errors.Is(err, domain.ErrTokenExpired) && result != nil {
			resp.Data = map[string]any{"email": result.Email}
		}
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("email verified",
		slog.String("user_uid", result.UserUID),
		slog.Bool("already_verified", result.AlreadyVerified))

	if h.redirectURL != "" {
		http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(result))
}

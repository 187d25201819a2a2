// Package register реализует HTTP-обработчик начала регистрации.
//
// Handler принимает email, пароль и отображаемое имя, вызывает машину
// состояний регистрации и возвращает либо новую pending-учётную запись,
// либо дескриптор возобновления незавершённой регистрации.
package register

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/studio-directory/internal/http/response"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
)

// Request — входные данные для регистрации
type Request struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
}

// Handler управляет HTTP-запросами начала регистрации.
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
// @Summary Начать регистрацию
// @Description Создает pending-учётную запись и отправляет письмо подтверждения. Повторный вызов с тем же email возвращает дескриптор возобновления.
// @Tags Signup
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные регистрации"
// @Success 201 {object} response.Response "Учётная запись создана"
// @Success 200 {object} response.Response "Возобновление незавершённой регистрации"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные"
// @Failure 409 {object} response.ErrorResponse "Email уже занят активным пользователем"
// @Failure 410 {object} response.ErrorResponse "Бронь предыдущей регистрации истекла"
// @Router /signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	result, err := h.service.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		status, resp := response.DomainError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	if result.Created {
		log.Info("user registered", slog.String("user_uid", result.UserUID))
		w.WriteHeader(http.StatusCreated)
	} else {
		log.Info("signup resumed", slog.String("user_uid", result.UserUID))
	}
	render.JSON(w, r, response.StatusOKWithData(result))
}

// Package studiodirectory предоставляет маршруты для основного приложения.
package studiodirectory

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/studio-directory/internal/cache"
	"github.com/magabrotheeeer/studio-directory/internal/config"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/auth/resendverification"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/auth/reserveusername"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/auth/signupstatus"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/auth/verifyemail"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/health"
	paymentcheckout "github.com/magabrotheeeer/studio-directory/internal/http/handlers/payment/checkout"
	"github.com/magabrotheeeer/studio-directory/internal/http/handlers/payment/paymentwebhook"
	paymentsuccess "github.com/magabrotheeeer/studio-directory/internal/http/handlers/payment/success"
	profilecreate "github.com/magabrotheeeer/studio-directory/internal/http/handlers/profile/create"
	profileread "github.com/magabrotheeeer/studio-directory/internal/http/handlers/profile/read"
	"github.com/magabrotheeeer/studio-directory/internal/http/middlewarectx"
	"github.com/magabrotheeeer/studio-directory/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/studio-directory/internal/services/auth"
	checkoutservice "github.com/magabrotheeeer/studio-directory/internal/services/checkout"
	profileservice "github.com/magabrotheeeer/studio-directory/internal/services/profile"
	reconcileservice "github.com/magabrotheeeer/studio-directory/internal/services/reconcile"
	signupservice "github.com/magabrotheeeer/studio-directory/internal/services/signup"
)

// Services — сервисы, обслуживаемые маршрутами приложения.
type Services struct {
	Signup    *signupservice.Service
	Reconcile *reconcileservice.Service
	Checkout  *checkoutservice.Service
	Auth      *authservice.Service
	Profile   *profileservice.Service
}

// Лимит запросов с одного IP на чувствительные к перебору конечные точки.
const sensitiveRequestsPerMinute = 10

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *Services,
	jwtMaker jwt.Maker, cacheRedis *cache.Cache, cfg *config.Config) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Шаги регистрации: до активации у пользователя нет сессии,
		// аутентификация шага — email, uid или одноразовый токен
		r.Post("/signup", register.New(logger, svc.Signup).ServeHTTP)
		r.Post("/signup/username", reserveusername.New(logger, svc.Signup).ServeHTTP)
		r.Get("/signup/status", signupstatus.New(logger, svc.Signup).ServeHTTP)
		r.Get("/verify-email", verifyemail.New(logger, svc.Signup, cfg.VerifyRedirectURL).ServeHTTP)
		r.Post("/reset-password", resetpassword.New(logger, svc.Signup).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)

		// Конечные точки с письмами защищаются от перебора email
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(cacheRedis, sensitiveRequestsPerMinute, logger))
			r.Post("/resend-verification", resendverification.New(logger, svc.Signup).ServeHTTP)
			r.Post("/forgot-password", forgotpassword.New(logger, svc.Signup).ServeHTTP)
		})

		// Оплата: webhook и страница успеха без аутентификации,
		// подлинность webhook проверяется подписью
		r.Post("/payments/checkout", paymentcheckout.New(logger, svc.Checkout).ServeHTTP)
		r.Post("/payments/webhook", paymentwebhook.New(logger, svc.Reconcile, cfg.PaymentProvider.WebhookSecret).ServeHTTP)
		r.Get("/payments/success", paymentsuccess.New(logger, svc.Reconcile).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Post("/studio-profile", profilecreate.New(logger, svc.Profile).ServeHTTP)
			r.Get("/studio-profile", profileread.New(logger, svc.Profile).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

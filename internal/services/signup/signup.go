// Package signup реализует машину состояний регистрации: от создания
// pending-учётной записи через подтверждение почты и выбор имени до
// готовности к оплате. Каждая точка входа перечитывает текущее состояние
// из хранилища, применяет политику брони и выполняет одну условную запись;
// почтовые уведомления — побочный эффект вне транзакции.
package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/magabrotheeeer/studio-directory/internal/config"
	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/lib/password"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/lib/token"
	"github.com/magabrotheeeer/studio-directory/internal/metrics"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/reservation"
	"github.com/magabrotheeeer/studio-directory/internal/storage"
)

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, verificationToken string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, resetToken string) (*models.User, error)
	MarkUserExpired(ctx context.Context, userUID string) (bool, error)
	DeleteExpiredUser(ctx context.Context, userUID string) error
	ClaimUsername(ctx context.Context, userUID, username string) (bool, error)
	MarkEmailVerified(ctx context.Context, userUID string) error
	RotateVerificationToken(ctx context.Context, userUID, verificationToken string, expiry time.Time) error
	SetResetToken(ctx context.Context, userUID, resetToken string, expiry time.Time) error
	UpdatePasswordByResetToken(ctx context.Context, resetToken, passwordHash string) (bool, error)
}

// PaymentReader отдает успешный платёж пользователя для шага возобновления.
type PaymentReader interface {
	GetSucceededPaymentByUser(ctx context.Context, userUID string) (*models.Payment, error)
}

// ProfileRepository — операции над профилем студии, затрагиваемые регистрацией.
type ProfileRepository interface {
	SetProfileVisible(ctx context.Context, userUID string) error
}

// Mailer ставит письма в очередь отправки.
type Mailer interface {
	QueueVerificationEmail(email, displayName, verificationToken string) error
	QueuePasswordResetEmail(email, displayName, resetToken string) error
}

// Service — машина состояний регистрации.
type Service struct {
	users    UserRepository
	payments PaymentReader
	profiles ProfileRepository
	mailer   Mailer
	policy   config.Signup
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, payments PaymentReader, profiles ProfileRepository,
	mailer Mailer, policy config.Signup, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		payments: payments,
		profiles: profiles,
		mailer:   mailer,
		policy:   policy,
		log:      log,
	}
}

// ResumeDescriptor описывает, как продолжить незавершённую регистрацию.
type ResumeDescriptor struct {
	Step          reservation.Step    `json:"step"`
	HasUsername   bool                `json:"has_username"`
	HasPayment    bool                `json:"has_payment"`
	SessionID     string              `json:"session_id,omitempty"`
	TimeRemaining reservation.Remaining `json:"time_remaining"`
}

// RegisterResult — результат вызова Register: либо новая учётная запись,
// либо дескриптор возобновления существующей pending-регистрации.
type RegisterResult struct {
	Created          bool              `json:"created"`
	UserUID          string            `json:"user_uid"`
	Username         string            `json:"username"`
	Status           string            `json:"status"`
	VerificationSent bool              `json:"verification_sent"`
	Resume           *ResumeDescriptor `json:"resume,omitempty"`
}

// Register создает новую pending-учётную запись или возвращает дескриптор
// возобновления. Повторный вызов с тем же email до подтверждения не создает
// вторую строку и не перезаписывает пароль.
func (s *Service) Register(ctx context.Context, email, rawPassword, displayName string) (*RegisterResult, error) {
	const op = "signup.Register"

	if err := password.ValidateStrength(rawPassword); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return s.registerExisting(ctx, existing, email, rawPassword, displayName)
	case errors.Is(err, storage.ErrNotFound):
		return s.createUser(ctx, email, rawPassword, displayName)
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Service) registerExisting(ctx context.Context, existing *models.User, email, rawPassword, displayName string) (*RegisterResult, error) {
	const op = "signup.registerExisting"

	switch existing.Status {
	case models.UserStatusActive:
		metrics.SignupOutcomes.WithLabelValues("conflict").Inc()
		return nil, domain.ErrUserExists

	case models.UserStatusExpired:
		// просроченная строка освобождает email и username
		if err := s.users.DeleteExpiredUser(ctx, existing.UID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s.createUser(ctx, email, rawPassword, displayName)
	}

	if reservation.IsExpired(existing, time.Now().UTC()) {
		if _, err := s.users.MarkUserExpired(ctx, existing.UID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		metrics.SignupOutcomes.WithLabelValues("expired").Inc()
		return nil, domain.ErrReservationExpired
	}

	// возобновление: пароль и учётная запись не трогаются
	resume, err := s.resumeDescriptor(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.SignupOutcomes.WithLabelValues("resumed").Inc()
	return &RegisterResult{
		Created:  false,
		UserUID:  existing.UID,
		Username: existing.Username,
		Status:   existing.Status,
		Resume:   resume,
	}, nil
}

func (s *Service) createUser(ctx context.Context, email, rawPassword, displayName string) (*RegisterResult, error) {
	const op = "signup.createUser"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	placeholder, err := token.NewPlaceholderUsername()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	verificationToken, err := token.NewVerification()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	tokenExpiry := now.Add(s.policy.VerificationTokenTTL)
	user := models.User{
		Email:                   strings.ToLower(email),
		Username:                placeholder,
		DisplayName:             displayName,
		PasswordHash:            hashed,
		Status:                  models.UserStatusPending,
		EmailVerified:           false,
		VerificationToken:       &verificationToken,
		VerificationTokenExpiry: &tokenExpiry,
		ReservationExpiresAt:    now.Add(s.policy.ReservationTTL),
	}

	newUID, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			// конкурентная регистрация того же email
			metrics.SignupOutcomes.WithLabelValues("conflict").Inc()
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	verificationSent := true
	if err := s.mailer.QueueVerificationEmail(user.Email, displayName, verificationToken); err != nil {
		// учётная запись уже создана, письмо доотправит resend
		s.log.Error("failed to queue verification email", sl.Err(err))
		verificationSent = false
	}

	metrics.SignupOutcomes.WithLabelValues("created").Inc()
	return &RegisterResult{
		Created:          true,
		UserUID:          newUID,
		Username:         placeholder,
		Status:           models.UserStatusPending,
		VerificationSent: verificationSent,
	}, nil
}

func (s *Service) resumeDescriptor(ctx context.Context, user *models.User) (*ResumeDescriptor, error) {
	var sessionID string
	hasPayment := false
	payment, err := s.payments.GetSucceededPaymentByUser(ctx, user.UID)
	switch {
	case err == nil:
		hasPayment = true
		sessionID = payment.ProviderSessionID
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, err
	}

	return &ResumeDescriptor{
		Step:          reservation.ResumeStep(user, hasPayment),
		HasUsername:   !token.IsPlaceholderUsername(user.Username),
		HasPayment:    hasPayment,
		SessionID:     sessionID,
		TimeRemaining: reservation.TimeRemaining(user, time.Now().UTC()),
	}, nil
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// reservedUsernames — имена, совпадающие со статическими маршрутами
// приложения или административной терминологией.
var reservedUsernames = map[string]struct{}{
	"admin": {}, "administrator": {}, "api": {}, "www": {}, "root": {},
	"system": {}, "support": {}, "help": {}, "about": {}, "login": {},
	"logout": {}, "signup": {}, "register": {}, "settings": {}, "profile": {},
	"studio": {}, "studios": {}, "search": {}, "payment": {}, "payments": {},
	"webhook": {}, "metrics": {}, "docs": {}, "health": {}, "moderator": {},
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return domain.Validation("invalid_username",
			"username must be 3-20 characters of letters, digits and underscore")
	}
	// temp_* выдается только системой как временное имя
	if strings.HasPrefix(strings.ToLower(username), token.PlaceholderPrefix) {
		return domain.Validation("invalid_username",
			"username must not start with the temp_ prefix")
	}
	if _, ok := reservedUsernames[strings.ToLower(username)]; ok {
		return domain.ErrUsernameReserved
	}
	return nil
}

// ReserveUsername заменяет временное имя пользователя на выбранное.
// Имя занято, если его держит активный пользователь или непросроченная
// pending-бронь; из двух конкурентных попыток выигрывает ровно одна.
func (s *Service) ReserveUsername(ctx context.Context, userUID, username string) (*models.User, error) {
	const op = "signup.ReserveUsername"

	if err := validateUsername(username); err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch user.Status {
	case models.UserStatusActive:
		return nil, domain.ErrUserNotPending
	case models.UserStatusExpired:
		return nil, domain.ErrReservationExpired
	}

	if reservation.IsExpired(user, time.Now().UTC()) {
		if _, err := s.users.MarkUserExpired(ctx, user.UID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, domain.ErrReservationExpired
	}

	ok, err := s.users.ClaimUsername(ctx, userUID, username)
	if err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			metrics.UsernameClaims.WithLabelValues("conflict").Inc()
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// условная запись не прошла: бронь истекла между чтением и записью
		return nil, domain.ErrReservationExpired
	}

	metrics.UsernameClaims.WithLabelValues("won").Inc()
	user.Username = username
	return user, nil
}

// VerifyResult — результат подтверждения почты.
type VerifyResult struct {
	UserUID         string `json:"user_uid"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	AlreadyVerified bool   `json:"already_verified"`
}

// VerifyEmail подтверждает почту по одноразовому токену. Токен — единственный
// механизм аутентификации шага: вызов работает без сессии, с любого
// устройства. Повторный вызов с тем же валидным токеном идемпотентен.
//
// Для просроченного токена возвращается ErrTokenExpired вместе с результатом,
// содержащим email, чтобы клиент мог предложить повторную отправку.
func (s *Service) VerifyEmail(ctx context.Context, verificationToken string) (*VerifyResult, error) {
	const op = "signup.VerifyEmail"

	user, err := s.users.GetUserByVerificationToken(ctx, verificationToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &VerifyResult{
		UserUID:     user.UID,
		Email:       user.Email,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	}

	if user.EmailVerified {
		result.AlreadyVerified = true
		return result, nil
	}

	if user.VerificationTokenExpiry == nil || time.Now().UTC().After(*user.VerificationTokenExpiry) {
		return result, domain.ErrTokenExpired
	}

	if err := s.users.MarkEmailVerified(ctx, user.UID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// единственное место, где видимость профиля выдается по верификации
	if err := s.profiles.SetProfileVisible(ctx, user.UID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ResendResult — результат повторной отправки письма подтверждения.
// Текст всегда одинаковый, существование учётной записи не раскрывается.
type ResendResult struct {
	Message string `json:"message"`
}

const genericResendMessage = "if an account exists for this email, a message has been sent"

// ResendVerification выписывает свежий токен подтверждения и ставит письмо
// в очередь. Для несуществующего email возвращается тот же общий ответ, что
// и для существующего. Единственное допустимое раскрытие — отказ для уже
// подтверждённой учётной записи.
func (s *Service) ResendVerification(ctx context.Context, email string) (*ResendResult, error) {
	const op = "signup.ResendVerification"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ResendResult{Message: genericResendMessage}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.EmailVerified {
		return nil, domain.ErrAlreadyVerified
	}

	verificationToken, err := token.NewVerification()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	expiry := time.Now().UTC().Add(s.policy.VerificationTokenTTL)
	if err := s.users.RotateVerificationToken(ctx, user.UID, verificationToken, expiry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// токен уже перевыписан; отказ доставки не откатывает его
	if err := s.mailer.QueueVerificationEmail(user.Email, user.DisplayName, verificationToken); err != nil {
		s.log.Error("failed to queue verification email", sl.Err(err))
	}
	return &ResendResult{Message: genericResendMessage}, nil
}

// RequestPasswordReset выписывает токен сброса пароля и ставит письмо в
// очередь. Контракт анти-перебора тот же, что и у ResendVerification.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*ResendResult, error) {
	const op = "signup.RequestPasswordReset"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ResendResult{Message: genericResendMessage}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resetToken, err := token.NewVerification()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	expiry := time.Now().UTC().Add(s.policy.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.UID, resetToken, expiry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.QueuePasswordResetEmail(user.Email, user.DisplayName, resetToken); err != nil {
		s.log.Error("failed to queue password reset email", sl.Err(err))
	}
	return &ResendResult{Message: genericResendMessage}, nil
}

// ResetPassword меняет пароль по одноразовому токену сброса.
// Отсутствие подтверждения и несовпадение паролей — разные ошибки.
// Погашенный токен повторно не работает.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) (string, error) {
	const op = "signup.ResetPassword"

	if confirmPassword == "" {
		return "", domain.Validation("missing_confirmation", "password confirmation is required")
	}
	if newPassword != confirmPassword {
		return "", domain.Validation("password_mismatch", "passwords do not match")
	}
	if err := password.ValidateStrength(newPassword); err != nil {
		return "", err
	}

	user, err := s.users.GetUserByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.ResetTokenExpiry == nil || time.Now().UTC().After(*user.ResetTokenExpiry) {
		return "", domain.ErrTokenExpired
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	ok, err := s.users.UpdatePasswordByResetToken(ctx, resetToken, hashed)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// токен погашен конкурентным вызовом
		return "", domain.ErrInvalidToken
	}
	return user.Email, nil
}

// StatusResult — состояние незавершённой регистрации.
type StatusResult struct {
	CanResume     bool                `json:"can_resume"`
	UserUID       string              `json:"user_uid"`
	Step          reservation.Step    `json:"step"`
	HasUsername   bool                `json:"has_username"`
	HasPayment    bool                `json:"has_payment"`
	SessionID     string              `json:"session_id,omitempty"`
	TimeRemaining reservation.Remaining `json:"time_remaining"`
}

// CheckSignupStatus возвращает состояние незавершённой регистрации по email.
// Просроченная бронь фиксируется здесь же: любая точка касания переводит
// pending в expired.
func (s *Service) CheckSignupStatus(ctx context.Context, email string) (*StatusResult, error) {
	const op = "signup.CheckSignupStatus"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch user.Status {
	case models.UserStatusActive:
		return nil, domain.ErrAlreadyActive
	case models.UserStatusExpired:
		return nil, domain.ErrReservationExpired
	}

	if reservation.IsExpired(user, time.Now().UTC()) {
		if _, err := s.users.MarkUserExpired(ctx, user.UID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, domain.ErrReservationExpired
	}

	resume, err := s.resumeDescriptor(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &StatusResult{
		CanResume:     true,
		UserUID:       user.UID,
		Step:          resume.Step,
		HasUsername:   resume.HasUsername,
		HasPayment:    resume.HasPayment,
		SessionID:     resume.SessionID,
		TimeRemaining: resume.TimeRemaining,
	}, nil
}

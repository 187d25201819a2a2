package register

import (
	"context"

	"github.com/magabrotheeeer/studio-directory/internal/services/signup"
)

// Service описывает интерфейс бизнес-логики начала регистрации.
type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*signup.RegisterResult, error)
}

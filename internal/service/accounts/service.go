package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Service проверка существования аккаунта до оформления заказа
type Service struct {
	accountRepo AccountRepository
	validate    *validator.Validate
	logger      Logger
}

// NewService создает новый экземпляр сервиса аккаунтов
func NewService(accountRepo AccountRepository, logger Logger) *Service {
	return &Service{
		accountRepo: accountRepo,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// CheckEmail сообщает, зарегистрирован ли email (без учёта регистра)
func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return false, ErrInvalidEmail
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("CheckEmail: repository error: %v", err)
		return false, fmt.Errorf("%w: CheckEmail - repository error: %v", ErrInternal, err)
	}
	return exists, nil
}

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/pkg/psqlbuilder"
	"github.com/m04kA/stancastle-booking/pkg/txmanager"
)

// Repository доступ к таблице accounts
// Аккаунты создаёт провайдер аутентификации, здесь только чтение и флаг партнёрства
type Repository struct {
	db txmanager.DBExecutor
}

func NewRepository(db txmanager.DBExecutor) *Repository {
	return &Repository{db: db}
}

// ExistsByEmail проверяет наличие аккаунта без учёта регистра
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From("accounts").
		Where(squirrel.Expr("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: ExistsByEmail - build select query: %v", ErrBuildQuery, err)
	}

	var exists bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: ExistsByEmail - scan: %v", ErrScanRow, err)
	}

	return exists, nil
}

// MarkPartner включает партнёрскую программу и запоминает клиента платёжного шлюза
func (r *Repository) MarkPartner(ctx context.Context, accountID uuid.UUID, gatewayCustomerID string, now time.Time) error {
	executor := txmanager.GetExecutor(ctx, r.db)

	update := psqlbuilder.Update("accounts").
		Set("is_partner", true).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": accountID})
	if gatewayCustomerID != "" {
		update = update.Set("gateway_customer_id", gatewayCustomerID)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkPartner - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: MarkPartner - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: MarkPartner - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// ClearPartnerByCustomer снимает флаг партнёра после отмены подписки. Возвращает число затронутых аккаунтов
func (r *Repository) ClearPartnerByCustomer(ctx context.Context, gatewayCustomerID string, now time.Time) (int64, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("accounts").
		Set("is_partner", false).
		Set("updated_at", now).
		Where(squirrel.Eq{"gateway_customer_id": gatewayCustomerID}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: ClearPartnerByCustomer - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ClearPartnerByCustomer - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ClearPartnerByCustomer - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

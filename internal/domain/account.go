package domain

import "github.com/google/uuid"

// Account зарегистрированный пользователь сайта
type Account struct {
	ID                uuid.UUID
	Email             string
	IsPartner         bool
	GatewayCustomerID *string
}

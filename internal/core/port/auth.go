package port

import "github.com/edamame-dev/canteen/internal/core/domain"

type TokenPayload struct {
	AccountID uint64
	Role      domain.Role
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	CreateToken(account *domain.Account) (string, error)
	VerifyToken(token string) (*TokenPayload, error)
}

package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/edamame-dev/canteen/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type AccountHandler struct {
	Handler
	service port.Service
}

func NewAccountHandler(service port.Service, logger *zap.Logger) (*AccountHandler, error) {
	return &AccountHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (ah *AccountHandler) Login(ctx *gin.Context) {
	req := loginRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	token, err := ah.service.LoginUser(ctx, req.Login, req.Password)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccess(ctx, gin.H{"token": token})
}

type createAccountRequest struct {
	Login         string `json:"login"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	LastName      string `json:"lastName"`
	FirstName     string `json:"firstName"`
	Group         string `json:"group"`
	IsBeneficiary bool   `json:"isBeneficiary"`
}

type accountResponse struct {
	ID            uint64          `json:"id"`
	Login         string          `json:"login"`
	Role          string          `json:"role"`
	LastName      string          `json:"lastName"`
	FirstName     string          `json:"firstName"`
	Group         string          `json:"group"`
	Balance       decimal.Decimal `json:"balance"`
	IsBeneficiary bool            `json:"isBeneficiary"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func newAccountResponse(account *domain.Account) accountResponse {
	return accountResponse{
		ID:            account.ID,
		Login:         account.Login,
		Role:          string(account.Role),
		LastName:      account.LastName,
		FirstName:     account.FirstName,
		Group:         account.Group,
		Balance:       account.Balance,
		IsBeneficiary: account.IsBeneficiary,
		IsActive:      account.IsActive,
		CreatedAt:     account.CreatedAt,
	}
}

func (ah *AccountHandler) CreateAccount(ctx *gin.Context) {
	actor := getAuthPayload(ctx)

	req := createAccountRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	account := &domain.Account{
		Login:         req.Login,
		Role:          domain.Role(req.Role),
		LastName:      req.LastName,
		FirstName:     req.FirstName,
		Group:         req.Group,
		IsBeneficiary: req.IsBeneficiary,
	}

	created, err := ah.service.CreateAccount(ctx, *actor, account, req.Password)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccessWithStatus(ctx, newAccountResponse(created), http.StatusCreated)
}

func (ah *AccountHandler) ListAccounts(ctx *gin.Context) {
	list, err := ah.service.ListAccounts(ctx)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	result := make([]accountResponse, 0, len(list))
	for _, account := range list {
		result = append(result, newAccountResponse(account))
	}

	ah.handleSuccess(ctx, result)
}

func (ah *AccountHandler) GetAccount(ctx *gin.Context) {
	actor := getAuthPayload(ctx)

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	account, err := ah.service.GetAccount(ctx, *actor, id)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccess(ctx, newAccountResponse(account))
}

type updateAccountRequest struct {
	Login         *string `json:"login"`
	LastName      *string `json:"lastName"`
	FirstName     *string `json:"firstName"`
	Group         *string `json:"group"`
	IsBeneficiary *bool   `json:"isBeneficiary"`
	IsActive      *bool   `json:"isActive"`
}

func (ah *AccountHandler) UpdateAccount(ctx *gin.Context) {
	actor := getAuthPayload(ctx)

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	req := updateAccountRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	account, err := ah.service.UpdateAccount(ctx, *actor, id, domain.AccountUpdate{
		Login:         req.Login,
		LastName:      req.LastName,
		FirstName:     req.FirstName,
		Group:         req.Group,
		IsBeneficiary: req.IsBeneficiary,
		IsActive:      req.IsActive,
	})
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccess(ctx, newAccountResponse(account))
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (ah *AccountHandler) ChangePassword(ctx *gin.Context) {
	actor := getAuthPayload(ctx)

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	req := changePasswordRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	if req.OldPassword != "" || actor.AccountID == id {
		err = ah.service.ChangePassword(ctx, *actor, id, req.OldPassword, req.NewPassword)
	} else {
		err = ah.service.SetPassword(ctx, *actor, id, req.NewPassword)
	}
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccess(ctx, gin.H{"message": "password changed"})
}

type adjustBalanceRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

func (ah *AccountHandler) AdjustBalance(ctx *gin.Context) {
	actor := getAuthPayload(ctx)

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	req := adjustBalanceRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	amount, err := decimal.NewFromFloat64(req.Amount)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	account, err := ah.service.AdjustBalance(ctx, *actor, id, amount, req.Reason)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccess(ctx, gin.H{"balance": account.Balance})
}

type ledgerEntryResponse struct {
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"newBalance"`
	ChangedBy  uint64          `json:"changedBy"`
	Reason     string          `json:"reason"`
	Date       time.Time       `json:"date"`
}

func (ah *AccountHandler) LedgerHistory(ctx *gin.Context) {
	actor := getAuthPayload(ctx)

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	list, err := ah.service.LedgerHistory(ctx, *actor, id)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	result := make([]ledgerEntryResponse, 0, len(list))
	for _, entry := range list {
		result = append(result, ledgerEntryResponse{
			Amount:     entry.Amount,
			NewBalance: entry.NewBalance,
			ChangedBy:  entry.ChangedBy,
			Reason:     entry.Reason,
			Date:       entry.ChangedAt,
		})
	}

	ah.handleSuccess(ctx, result)
}

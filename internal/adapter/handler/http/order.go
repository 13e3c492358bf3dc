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

type OrderHandler struct {
	Handler
	service port.Service
}

func NewOrderHandler(service port.Service, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type orderItemRequest struct {
	DishID   uint64 `json:"dishId"`
	Quantity int64  `json:"quantity"`
}

type orderRequest struct {
	Items []orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	DishID     uint64          `json:"dishId"`
	DishName   string          `json:"dishName"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
	IsFreeSale bool            `json:"isFreeSale"`
}

type orderResponse struct {
	ID                 uint64              `json:"id"`
	AccountID          uint64              `json:"accountId"`
	Items              []orderItemResponse `json:"items"`
	Total              decimal.Decimal     `json:"total"`
	IsBeneficiaryOrder bool                `json:"isBeneficiaryOrder"`
	CreatedAt          time.Time           `json:"createdAt"`
}

func newOrderResponse(order *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			DishID:     item.DishID,
			DishName:   item.DishName,
			Price:      item.Price,
			Quantity:   item.Quantity,
			IsFreeSale: item.IsFreeSale,
		})
	}
	return orderResponse{
		ID:                 order.ID,
		AccountID:          order.AccountID,
		Items:              items,
		Total:              order.Total,
		IsBeneficiaryOrder: order.IsBeneficiary,
		CreatedAt:          order.CreatedAt,
	}
}

func toItemRequests(items []orderItemRequest) []domain.OrderItemRequest {
	requests := make([]domain.OrderItemRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, domain.OrderItemRequest{
			DishID:   item.DishID,
			Quantity: item.Quantity,
		})
	}
	return requests
}

func (oh *OrderHandler) CreateOrder(ctx *gin.Context) {
	accountID := getAuthPayload(ctx).AccountID

	req := orderRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	order, err := oh.service.CreateOrder(ctx, accountID, toItemRequests(req.Items))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccessWithStatus(ctx, newOrderResponse(order), http.StatusCreated)
}

func (oh *OrderHandler) CreateBeneficiaryOrder(ctx *gin.Context) {
	accountID := getAuthPayload(ctx).AccountID

	order, err := oh.service.CreateBeneficiaryOrder(ctx, accountID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccessWithStatus(ctx, newOrderResponse(order), http.StatusCreated)
}

func (oh *OrderHandler) UpdateOrder(ctx *gin.Context) {
	accountID := getAuthPayload(ctx).AccountID

	orderID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	req := orderRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	order, err := oh.service.UpdateOrder(ctx, accountID, orderID, toItemRequests(req.Items))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, newOrderResponse(order))
}

func (oh *OrderHandler) DeleteOrder(ctx *gin.Context) {
	accountID := getAuthPayload(ctx).AccountID

	orderID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	if err := oh.service.DeleteOrder(ctx, accountID, orderID); err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, gin.H{"message": "order deleted"})
}

func (oh *OrderHandler) ListOrders(ctx *gin.Context) {
	list, err := oh.service.ListOrders(ctx)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, ordersResponse(list))
}

func (oh *OrderHandler) ListMyOrders(ctx *gin.Context) {
	accountID := getAuthPayload(ctx).AccountID

	list, err := oh.service.ListOrdersByAccount(ctx, accountID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, ordersResponse(list))
}

func (oh *OrderHandler) ListTodayOrders(ctx *gin.Context) {
	accountID := getAuthPayload(ctx).AccountID

	list, err := oh.service.ListTodayOrders(ctx, accountID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, ordersResponse(list))
}

func ordersResponse(list []*domain.Order) []orderResponse {
	result := make([]orderResponse, 0, len(list))
	for _, order := range list {
		result = append(result, newOrderResponse(order))
	}
	return result
}

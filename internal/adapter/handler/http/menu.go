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

type MenuHandler struct {
	Handler
	service port.Service
}

func NewMenuHandler(service port.Service, logger *zap.Logger) (*MenuHandler, error) {
	return &MenuHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type dishRequest struct {
	Date       time.Time `json:"date"`
	DishName   string    `json:"dishName"`
	Price      float64   `json:"price"`
	IsFreeSale bool      `json:"isFreeSale"`
}

type dishResponse struct {
	ID         uint64          `json:"id"`
	Date       time.Time       `json:"date"`
	DishName   string          `json:"dishName"`
	Price      decimal.Decimal `json:"price"`
	IsFreeSale bool            `json:"isFreeSale"`
}

func newDishResponse(item *domain.MenuItem) dishResponse {
	return dishResponse{
		ID:         item.ID,
		Date:       item.Date,
		DishName:   item.DishName,
		Price:      item.Price,
		IsFreeSale: item.IsFreeSale,
	}
}

// CreateDishes accepts a batch of dishes for a day's menu.
func (mh *MenuHandler) CreateDishes(ctx *gin.Context) {
	req := []dishRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		mh.handleValidationError(ctx, err)
		return
	}

	items := make([]*domain.MenuItem, 0, len(req))
	for _, dish := range req {
		price, err := decimal.NewFromFloat64(dish.Price)
		if err != nil {
			mh.handleValidationError(ctx, err)
			return
		}
		items = append(items, &domain.MenuItem{
			Date:       dish.Date,
			DishName:   dish.DishName,
			Price:      price,
			IsFreeSale: dish.IsFreeSale,
		})
	}

	created, err := mh.service.CreateMenuItems(ctx, items)
	if err != nil {
		mh.handleError(ctx, err)
		return
	}

	result := make([]dishResponse, 0, len(created))
	for _, item := range created {
		result = append(result, newDishResponse(item))
	}

	mh.handleSuccessWithStatus(ctx, result, http.StatusCreated)
}

func (mh *MenuHandler) GetMenu(ctx *gin.Context) {
	list, err := mh.service.GetMenu(ctx)
	if err != nil {
		mh.handleError(ctx, err)
		return
	}

	result := make([]dishResponse, 0, len(list))
	for _, item := range list {
		result = append(result, newDishResponse(item))
	}

	mh.handleSuccess(ctx, result)
}

type updateDishRequest struct {
	Date       *time.Time `json:"date"`
	DishName   *string    `json:"dishName"`
	Price      *float64   `json:"price"`
	IsFreeSale *bool      `json:"isFreeSale"`
}

func (mh *MenuHandler) UpdateDish(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		mh.handleValidationError(ctx, err)
		return
	}

	req := updateDishRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		mh.handleValidationError(ctx, err)
		return
	}

	upd := domain.MenuItemUpdate{
		Date:       req.Date,
		DishName:   req.DishName,
		IsFreeSale: req.IsFreeSale,
	}
	if req.Price != nil {
		price, err := decimal.NewFromFloat64(*req.Price)
		if err != nil {
			mh.handleValidationError(ctx, err)
			return
		}
		upd.Price = &price
	}

	item, err := mh.service.UpdateMenuItem(ctx, id, upd)
	if err != nil {
		mh.handleError(ctx, err)
		return
	}

	mh.handleSuccess(ctx, newDishResponse(item))
}

func (mh *MenuHandler) DeleteDish(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		mh.handleValidationError(ctx, err)
		return
	}

	if err := mh.service.DeleteMenuItem(ctx, id); err != nil {
		mh.handleError(ctx, err)
		return
	}

	mh.handleSuccess(ctx, gin.H{"message": "dish deleted"})
}

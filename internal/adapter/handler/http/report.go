package http

import (
	"time"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/edamame-dev/canteen/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

const reportDateLayout = "02.01.2006"

type ReportHandler struct {
	Handler
	service port.Service
}

func NewReportHandler(service port.Service, logger *zap.Logger) (*ReportHandler, error) {
	return &ReportHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

// reportRange reads optional from/to query dates (YYYY-MM-DD). Zero
// values pass through to the service, which substitutes its defaults.
func (rh *ReportHandler) reportRange(ctx *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	var err error

	if raw := ctx.Query("from"); raw != "" {
		from, err = time.Parse("2006-01-02", raw)
		if err != nil {
			rh.handleValidationError(ctx, err)
			return time.Time{}, time.Time{}, false
		}
	}
	if raw := ctx.Query("to"); raw != "" {
		to, err = time.Parse("2006-01-02", raw)
		if err != nil {
			rh.handleValidationError(ctx, err)
			return time.Time{}, time.Time{}, false
		}
	}
	return from, to, true
}

type orderReportRowResponse struct {
	LastName  string          `json:"lastName"`
	FirstName string          `json:"firstName"`
	Group     string          `json:"group"`
	Date      string          `json:"date"`
	Total     decimal.Decimal `json:"total"`
	Dishes    string          `json:"dishes"`
}

func (rh *ReportHandler) GroupOrders(ctx *gin.Context) {
	from, to, ok := rh.reportRange(ctx)
	if !ok {
		return
	}

	rows, err := rh.service.GroupOrdersReport(ctx, ctx.Query("group"), from, to)
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	result := make([]orderReportRowResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, orderReportRowResponse{
			LastName:  row.LastName,
			FirstName: row.FirstName,
			Group:     row.Group,
			Date:      row.Date.Format(reportDateLayout),
			Total:     row.Total,
			Dishes:    row.Dishes,
		})
	}

	rh.handleSuccess(ctx, result)
}

type dishTallyResponse struct {
	DishName   string          `json:"dishName"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type cafeteriaReportResponse struct {
	BeneficiaryOrders int                 `json:"beneficiaryOrders"`
	FreeSaleDishes    []dishTallyResponse `json:"freeSaleDishes"`
	PaidDishes        []dishTallyResponse `json:"paidDishes"`
	Total             decimal.Decimal     `json:"total"`
}

func newDishTallies(tallies []domain.DishTally) []dishTallyResponse {
	result := make([]dishTallyResponse, 0, len(tallies))
	for _, tally := range tallies {
		result = append(result, dishTallyResponse{
			DishName:   tally.DishName,
			Price:      tally.Price,
			Quantity:   tally.Quantity,
			TotalPrice: tally.TotalPrice,
		})
	}
	return result
}

func (rh *ReportHandler) GroupCafeteria(ctx *gin.Context) {
	from, to, ok := rh.reportRange(ctx)
	if !ok {
		return
	}

	report, err := rh.service.GroupCafeteriaReport(ctx, ctx.Query("group"), from, to)
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	rh.handleSuccess(ctx, cafeteriaReportResponse{
		BeneficiaryOrders: report.BeneficiaryOrders,
		FreeSaleDishes:    newDishTallies(report.FreeSaleDishes),
		PaidDishes:        newDishTallies(report.PaidDishes),
		Total:             report.Total,
	})
}

type balanceReportRowResponse struct {
	LastName  string          `json:"lastName"`
	FirstName string          `json:"firstName"`
	Balance   decimal.Decimal `json:"balance"`
}

type balanceReportResponse struct {
	Report []balanceReportRowResponse `json:"report"`
	Total  decimal.Decimal            `json:"total"`
}

func newBalanceReportResponse(report *domain.BalanceReport) balanceReportResponse {
	rows := make([]balanceReportRowResponse, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, balanceReportRowResponse{
			LastName:  row.LastName,
			FirstName: row.FirstName,
			Balance:   row.Balance,
		})
	}
	return balanceReportResponse{Report: rows, Total: report.Total}
}

func (rh *ReportHandler) GroupBalances(ctx *gin.Context) {
	report, err := rh.service.GroupBalanceSnapshot(ctx, ctx.Query("group"))
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	rh.handleSuccess(ctx, newBalanceReportResponse(report))
}

func (rh *ReportHandler) GroupDebtors(ctx *gin.Context) {
	report, err := rh.service.GroupDebtorsReport(ctx, ctx.Query("group"))
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	rh.handleSuccess(ctx, newBalanceReportResponse(report))
}

type ledgerReportRowResponse struct {
	LastName   string          `json:"lastName"`
	FirstName  string          `json:"firstName"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"newBalance"`
	ChangedBy  string          `json:"changedBy"`
	Reason     string          `json:"reason"`
	Date       string          `json:"date"`
}

func newLedgerReportRows(rows []domain.LedgerReportRow) []ledgerReportRowResponse {
	result := make([]ledgerReportRowResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, ledgerReportRowResponse{
			LastName:   row.LastName,
			FirstName:  row.FirstName,
			Amount:     row.Amount,
			NewBalance: row.NewBalance,
			ChangedBy:  row.ChangedBy,
			Reason:     row.Reason,
			Date:       row.Date.Format(reportDateLayout),
		})
	}
	return result
}

func (rh *ReportHandler) GroupLedger(ctx *gin.Context) {
	from, to, ok := rh.reportRange(ctx)
	if !ok {
		return
	}

	rows, err := rh.service.GroupLedgerReport(ctx, ctx.Query("group"), from, to)
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	rh.handleSuccess(ctx, newLedgerReportRows(rows))
}

func (rh *ReportHandler) MyOrders(ctx *gin.Context) {
	accountID := getAuthPayload(ctx).AccountID

	from, to, ok := rh.reportRange(ctx)
	if !ok {
		return
	}

	orders, err := rh.service.StudentOrdersReport(ctx, accountID, from, to)
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	rh.handleSuccess(ctx, ordersResponse(orders))
}

func (rh *ReportHandler) MyLedger(ctx *gin.Context) {
	accountID := getAuthPayload(ctx).AccountID

	from, to, ok := rh.reportRange(ctx)
	if !ok {
		return
	}

	rows, balance, err := rh.service.StudentLedgerReport(ctx, accountID, from, to)
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	rh.handleSuccess(ctx, gin.H{
		"report":         newLedgerReportRows(rows),
		"currentBalance": balance,
	})
}

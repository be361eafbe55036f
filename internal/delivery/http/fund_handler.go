package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"myfunds/internal/service"
)

// FundHandler serves fund data
type FundHandler struct {
	funds *service.FundDataService
}

// NewFundHandler creates a new FundHandler
func NewFundHandler(funds *service.FundDataService) *FundHandler {
	return &FundHandler{funds: funds}
}

// GetFund returns fund info, fetching it on first request
// GET /api/funds/:code
func (h *FundHandler) GetFund(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	fund, err := h.funds.GetFundInfo(ctx, c.Param("code"))
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, fund)
}

// GetHoldings returns the stored holding lines of a fund
// GET /api/funds/:code/holdings
func (h *FundHandler) GetHoldings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	holdings, err := h.funds.GetFundHoldings(ctx, c.Param("code"))
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, holdings)
}

// Refresh re-fetches one fund from the market data provider
// POST /api/funds/:code/refresh
func (h *FundHandler) Refresh(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	fund, err := h.funds.RefreshFund(ctx, c.Param("code"))
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessMessageResponse(c, "Fund refreshed", fund)
}

// RefreshAll re-fetches every stored fund
// POST /api/funds/refresh-all
func (h *FundHandler) RefreshAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	report, err := h.funds.RefreshAllFunds(ctx)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessMessageResponse(c, "Refresh completed", report)
}

package http

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"myfunds/internal/delivery/http/dto"
	"myfunds/internal/domain"
	"myfunds/internal/middleware"
	"myfunds/internal/usecase"
)

// TradeHandler serves positions, transactions and fixed investment plans of the current user
type TradeHandler struct {
	trades *usecase.TradeService
	plans  *usecase.FixedInvestmentService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(trades *usecase.TradeService, plans *usecase.FixedInvestmentService) *TradeHandler {
	return &TradeHandler{trades: trades, plans: plans}
}

// AddHolding records a holding bought elsewhere
// POST /api/user/holdings
func (h *TradeHandler) AddHolding(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.AddHoldingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return DomainErrorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	position, err := h.trades.AddFundHolding(ctx, userID, req.FundCode, req.Shares, req.CostPrice)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return CreatedResponse(c, position)
}

// Buy spends an amount on a fund
// POST /api/user/buy
func (h *TradeHandler) Buy(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.BuyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return DomainErrorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tx, err := h.trades.BuyFund(ctx, userID, req.FundCode, req.Amount)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return CreatedResponse(c, tx)
}

// Sell sells shares of a held fund
// POST /api/user/sell
func (h *TradeHandler) Sell(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.SellRequest
	if err := bindAndValidate(c, &req); err != nil {
		return DomainErrorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tx, err := h.trades.SellFund(ctx, userID, req.FundCode, req.Shares)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return CreatedResponse(c, tx)
}

// GetPositions lists the current user's positions
// GET /api/user/positions
func (h *TradeHandler) GetPositions(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	positions, err := h.trades.GetUserFunds(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, positions)
}

// GetTransactions lists the current user's transactions, newest first
// GET /api/user/transactions
func (h *TradeHandler) GetTransactions(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txs, err := h.trades.GetUserTransactions(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, txs)
}

// CreatePlan sets up a fixed investment plan
// POST /api/user/plans
func (h *TradeHandler) CreatePlan(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.PlanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return DomainErrorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	plan, err := h.plans.SetFixedInvestment(ctx, userID, req.FundCode, req.Amount, req.Frequency)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return CreatedResponse(c, plan)
}

// GetPlans lists the current user's plans
// GET /api/user/plans
func (h *TradeHandler) GetPlans(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plans, err := h.plans.GetUserFixedInvestments(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, plans)
}

// PausePlan pauses an active plan
// POST /api/user/plans/:id/pause
func (h *TradeHandler) PausePlan(c echo.Context) error {
	return h.transitionPlan(c, h.plans.PauseFixedInvestment)
}

// ResumePlan resumes a paused plan
// POST /api/user/plans/:id/resume
func (h *TradeHandler) ResumePlan(c echo.Context) error {
	return h.transitionPlan(c, h.plans.ResumeFixedInvestment)
}

// StopPlan stops a plan for good
// POST /api/user/plans/:id/stop
func (h *TradeHandler) StopPlan(c echo.Context) error {
	return h.transitionPlan(c, h.plans.StopFixedInvestment)
}

type planTransition func(ctx context.Context, userID, planID uuid.UUID) (*domain.FixedInvestment, error)

func (h *TradeHandler) transitionPlan(c echo.Context, apply planTransition) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return DomainErrorResponse(c, fmt.Errorf("%w: invalid plan id", domain.ErrInvalidInput))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := apply(ctx, userID, planID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, plan)
}

package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/aman-zulfiqar/solana-amm/internal/storage"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Balances is the custody surface the API reads from and, in dev mode, funds.
type Balances interface {
	Balance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error)
	Fund(ctx context.Context, owner, mint solana.PublicKey, amount uint64) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine    *amm.Engine        // AMM core
	Custody   Balances           // Balance lookups and dev faucet
	Events    storage.EventCache // Recent events cache (optional)
	Authority solana.PublicKey   // When set, Initialize must name this key; the body is unsigned
	DevMode   bool               // Enable detailed error responses in development
	Logger    *logrus.Logger     // Structured logger
	Timeout   time.Duration      // Per-request deadline for mutating calls
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// engineErr converts an engine error into a JSON response
// User errors are returned verbatim; faults are masked outside dev mode
func (h *Handlers) engineErr(c echo.Context, op string, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger().WithError(err).WithField("op", op).Error("request failed")
		return h.err(c, code, op+" failed", map[string]any{"err": err.Error()})
	}
	return h.err(c, code, err.Error(), nil)
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		h.Logger = logrus.New()
	}
	return h.Logger
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// parseKey decodes a base58 public key from a request field
func parseKey(field, value string) (solana.PublicKey, map[string]any) {
	value = strings.TrimSpace(value)
	if value == "" {
		return solana.PublicKey{}, map[string]any{field: "required"}
	}
	k, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, map[string]any{field: "must be a base58 public key"}
	}
	return k, nil
}

// parseKeys decodes several fields, stopping at the first invalid one
func parseKeys(pairs ...string) ([]solana.PublicKey, string, map[string]any) {
	out := make([]solana.PublicKey, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		k, details := parseKey(pairs[i], pairs[i+1])
		if details != nil {
			return nil, pairs[i], details
		}
		out = append(out, k)
	}
	return out, "", nil
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	_, err := h.Engine.Config()
	return c.JSON(http.StatusOK, HealthResponse{OK: true, Initialized: err == nil})
}

// Config returns the global AMM configuration
func (h *Handlers) Config(c echo.Context) error {
	cfg, err := h.Engine.Config()
	if err != nil {
		return h.engineErr(c, "config", err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// Initialize creates the global AMM configuration once
// Returns 409 if the AMM is already initialized
func (h *Handlers) Initialize(c echo.Context) error {
	var req InitializeRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	authority, details := parseKey("authority", req.Authority)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid authority", details)
	}
	if !h.Authority.IsZero() && !authority.Equals(h.Authority) {
		return h.err(c, http.StatusForbidden, "authority not permitted", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	cfg, err := h.Engine.Initialize(ctx, authority, req.FeeBasisPoints)
	if err != nil {
		return h.engineErr(c, "initialize", err)
	}
	return c.JSON(http.StatusCreated, cfg)
}

// Pools lists every funded pool
func (h *Handlers) Pools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"items": h.Engine.Pools()})
}

// Pool returns one pool by its two mints, in either order
func (h *Handlers) Pool(c echo.Context) error {
	keys, field, details := parseKeys("mintA", c.Param("mintA"), "mintB", c.Param("mintB"))
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid "+field, details)
	}
	snap, err := h.Engine.Pool(keys[0], keys[1])
	if err != nil {
		return h.engineErr(c, "pool", err)
	}
	return c.JSON(http.StatusOK, snap)
}

// AddLiquidity deposits into a pool, creating it on first deposit
func (h *Handlers) AddLiquidity(c echo.Context) error {
	var req AddLiquidityRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	keys, field, details := parseKeys("provider", req.Provider, "mint_a", req.MintA, "mint_b", req.MintB)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid "+field, details)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Engine.AddLiquidity(ctx, amm.AddLiquidityRequest{
		Provider: keys[0],
		MintA:    keys[1],
		MintB:    keys[2],
		DesiredA: req.DesiredA,
		DesiredB: req.DesiredB,
		MinA:     req.MinA,
		MinB:     req.MinB,
	})
	if err != nil {
		return h.engineErr(c, "add liquidity", err)
	}
	return c.JSON(http.StatusOK, res)
}

// RemoveLiquidity burns claim tokens for the proportional reserves
func (h *Handlers) RemoveLiquidity(c echo.Context) error {
	var req RemoveLiquidityRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	keys, field, details := parseKeys("owner", req.Owner, "mint_a", req.MintA, "mint_b", req.MintB)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid "+field, details)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Engine.RemoveLiquidity(ctx, amm.RemoveLiquidityRequest{
		Owner:       keys[0],
		MintA:       keys[1],
		MintB:       keys[2],
		ClaimAmount: req.ClaimAmount,
	})
	if err != nil {
		return h.engineErr(c, "remove liquidity", err)
	}
	return c.JSON(http.StatusOK, res)
}

// Swap executes an exact-input swap
func (h *Handlers) Swap(c echo.Context) error {
	var req SwapRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	keys, field, details := parseKeys("trader", req.Trader, "input_mint", req.InputMint, "output_mint", req.OutputMint)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid "+field, details)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Engine.Swap(ctx, amm.SwapRequest{
		Trader:       keys[0],
		InputMint:    keys[1],
		OutputMint:   keys[2],
		AmountIn:     req.AmountIn,
		MinAmountOut: req.MinAmountOut,
	})
	if err != nil {
		return h.engineErr(c, "swap", err)
	}
	return c.JSON(http.StatusOK, res)
}

// Balance returns an owner's custody balance for one mint
func (h *Handlers) Balance(c echo.Context) error {
	keys, field, details := parseKeys("owner", c.Param("owner"), "mint", c.Param("mint"))
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid "+field, details)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	bal, err := h.Custody.Balance(ctx, keys[0], keys[1])
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get balance", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, BalanceResponse{
		Owner:   keys[0].String(),
		Mint:    keys[1].String(),
		Symbol:  constants.SymbolFor(keys[1].String()),
		Balance: bal,
	})
}

// Faucet credits test funds to an owner (dev mode only)
func (h *Handlers) Faucet(c echo.Context) error {
	var req FaucetRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	keys, field, details := parseKeys("owner", req.Owner, "mint", req.Mint)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid "+field, details)
	}
	if req.Amount == 0 {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be > 0"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Custody.Fund(ctx, keys[0], keys[1], req.Amount); err != nil {
		return h.engineErr(c, "faucet", err)
	}
	bal, err := h.Custody.Balance(ctx, keys[0], keys[1])
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get balance", nil)
	}
	return c.JSON(http.StatusOK, BalanceResponse{
		Owner:   keys[0].String(),
		Mint:    keys[1].String(),
		Symbol:  constants.SymbolFor(keys[1].String()),
		Balance: bal,
	})
}

// RecentEvents returns the most recent pool events with optional limit parameter
// Accepts limit query parameter (default: 50, range: 1-200)
func (h *Handlers) RecentEvents(c echo.Context) error {
	if h.Events == nil {
		return h.err(c, http.StatusBadRequest, "events are not configured", nil)
	}

	limit := constants.DefaultRecentEvents
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > constants.MaxRecentEvents {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Events.GetRecentEvents(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get events", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

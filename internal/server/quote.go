package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/labstack/echo/v4"
)

const defaultSlippageBps = 50

// SwapQuote prices a swap against current reserves without executing it
// Query: inputMint, outputMint, amount (required); slippageBps (optional, default 50)
func (h *Handlers) SwapQuote(c echo.Context) error {
	inputMint, details := parseKey("inputMint", c.QueryParam("inputMint"))
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", details)
	}
	outputMint, details := parseKey("outputMint", c.QueryParam("outputMint"))
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", details)
	}

	amountStr := strings.TrimSpace(c.QueryParam("amount"))
	if amountStr == "" {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "required"})
	}
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be uint64"})
	}

	slippageBps := uint16(defaultSlippageBps)
	if v := strings.TrimSpace(c.QueryParam("slippageBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil || n > 10_000 {
			return h.err(c, http.StatusBadRequest, "invalid slippageBps", map[string]any{"slippageBps": "must be within [0, 10000]"})
		}
		slippageBps = uint16(n)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	q, err := h.Engine.QuoteSwap(ctx, inputMint, outputMint, amount)
	if err != nil {
		return h.engineErr(c, "quote", err)
	}

	return c.JSON(http.StatusOK, SwapQuoteResponse{
		Quote:        q,
		SlippageBps:  slippageBps,
		MinAmountOut: amm.ApplySlippage(q.AmountOut, slippageBps),
	})
}

package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/aman-zulfiqar/solana-amm/internal/custody"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"stale pool", fmt.Errorf("settle: %w", amm.ErrStalePool), http.StatusConflict},
		{"already initialized", amm.ErrAlreadyInitialized, http.StatusConflict},
		{"pool not found", amm.ErrPoolNotFound, http.StatusNotFound},
		{"slippage", amm.ErrSlippageExceeded, http.StatusUnprocessableEntity},
		{"insufficient funds", custody.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"contention", custody.ErrSettleContention, http.StatusServiceUnavailable},
		{"fault", amm.ErrInternalInvariantViolation, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

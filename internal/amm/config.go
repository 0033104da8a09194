package amm

import (
	"fmt"

	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/gagliardetto/solana-go"
)

// GlobalConfig is the process-wide AMM configuration. It is created once by
// Engine.Initialize and never changes afterwards.
type GlobalConfig struct {
	Authority      solana.PublicKey `json:"authority"`
	FeeBasisPoints uint16           `json:"fee_basis_points"`
	Address        solana.PublicKey `json:"address"`
}

// NewGlobalConfig validates the inputs and derives the config account address.
func NewGlobalConfig(programID, authority solana.PublicKey, feeBps uint16) (*GlobalConfig, error) {
	if authority.IsZero() {
		return nil, ErrInvalidAuthority
	}
	if feeBps > constants.MaxFeeBasisPoints {
		return nil, fmt.Errorf("%d bps: %w", feeBps, ErrInvalidFee)
	}
	addr, err := DeriveConfigAddress(programID)
	if err != nil {
		return nil, err
	}
	return &GlobalConfig{
		Authority:      authority,
		FeeBasisPoints: feeBps,
		Address:        addr,
	}, nil
}

package amm

import "fmt"

// PlanDeposit derives the amounts actually taken from a depositor so that the
// pool ratio is preserved. An empty pool accepts the desired amounts as its
// initial price. Otherwise the smaller implied contribution wins and the
// caller's minimums are enforced on the side that was adjusted.
func PlanDeposit(reserveA, reserveB, desiredA, desiredB, minA, minB uint64) (uint64, uint64, error) {
	if reserveA == 0 && reserveB == 0 {
		return desiredA, desiredB, nil
	}

	optimalB, err := Quote(desiredA, reserveA, reserveB)
	if err != nil {
		return 0, 0, err
	}
	if optimalB <= desiredB {
		if optimalB < minB {
			return 0, 0, fmt.Errorf("optimal %d below minimum %d: %w", optimalB, minB, ErrInsufficientAssetBAmount)
		}
		return desiredA, optimalB, nil
	}

	optimalA, err := Quote(desiredB, reserveB, reserveA)
	if err != nil {
		return 0, 0, err
	}
	if optimalA > desiredA {
		return 0, 0, fmt.Errorf("optimal A %d exceeds desired %d: %w", optimalA, desiredA, ErrInternalInvariantViolation)
	}
	if optimalA < minA {
		return 0, 0, fmt.Errorf("optimal %d below minimum %d: %w", optimalA, minA, ErrInsufficientAssetAAmount)
	}
	return optimalA, desiredB, nil
}

// claimsForDeposit returns how many claim tokens a deposit of (a, b) earns
// against the given ledger state.
func claimsForDeposit(s ledgerState, a, b uint64) (uint64, error) {
	if s.ClaimSupply == 0 {
		return isqrt(a, b), nil
	}
	byA, err := mulDiv(a, s.ClaimSupply, s.ReserveA)
	if err != nil {
		return 0, err
	}
	byB, err := mulDiv(b, s.ClaimSupply, s.ReserveB)
	if err != nil {
		return 0, err
	}
	return min(byA, byB), nil
}

// withdrawalFor returns the assets redeemed by burning claim tokens.
func withdrawalFor(s ledgerState, claims uint64) (uint64, uint64, error) {
	a, err := mulDiv(claims, s.ReserveA, s.ClaimSupply)
	if err != nil {
		return 0, 0, err
	}
	b, err := mulDiv(claims, s.ReserveB, s.ClaimSupply)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

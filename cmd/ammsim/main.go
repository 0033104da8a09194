package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/aman-zulfiqar/solana-amm/internal/custody"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

func mintFor(symbol string) (solana.PublicKey, error) {
	for mint, s := range constants.TokenSymbols {
		if s == symbol {
			return solana.PublicKeyFromBase58(mint)
		}
	}
	return solana.PublicKeyFromBase58(symbol)
}

// ammsim runs the engine against in-memory custody: quote prices one swap,
// simulate runs a random sequence of swaps and reports how the pool drifts.
func main() {
	mode := flag.String("mode", "quote", "quote | simulate")
	inTok := flag.String("in", "SOL", "input token symbol or mint")
	outTok := flag.String("out", "USDC", "output token symbol or mint")
	reserveIn := flag.Uint64("reserve-in", 1_000_000_000, "seed reserve of the input token")
	reserveOut := flag.Uint64("reserve-out", 150_000_000_000, "seed reserve of the output token")
	amt := flag.Uint64("amt", 0, "swap amount in base units")
	feeBps := flag.Uint("fee-bps", 30, "pool fee in bps")
	slippageBps := flag.Uint("slippage-bps", 100, "slippage in bps (e.g. 100 = 1%)")
	swaps := flag.Int("swaps", 100, "number of random swaps in simulate mode")
	seed := flag.Uint64("seed", 1, "random seed for simulate mode")
	verbose := flag.Bool("v", false, "log every engine operation")
	flag.Parse()

	if *mode == "quote" && *amt == 0 {
		fmt.Println("missing -amt (must be > 0)")
		os.Exit(2)
	}
	if *feeBps > constants.MaxFeeBasisPoints || *slippageBps > constants.BasisPointsDenominator {
		fmt.Println("fee and slippage must be within [0, 10000] bps")
		os.Exit(2)
	}

	mintIn, err := mintFor(*inTok)
	if err != nil {
		fmt.Println("invalid -in:", err)
		os.Exit(2)
	}
	mintOut, err := mintFor(*outTok)
	if err != nil {
		fmt.Println("invalid -out:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ledger := custody.NewMemoryLedger(logger)
	engine, err := amm.NewEngine(amm.EngineConfig{
		ProgramID: solana.MustPublicKeyFromBase58(constants.DefaultProgramID),
		Custody:   ledger,
		Logger:    logger,
	})
	if err != nil {
		fmt.Println("failed to init engine:", err)
		os.Exit(1)
	}
	if _, err := engine.Initialize(ctx, solana.NewWallet().PublicKey(), uint16(*feeBps)); err != nil {
		fmt.Println("initialize failed:", err)
		os.Exit(1)
	}

	lp := solana.NewWallet().PublicKey()
	must(ledger.Fund(ctx, lp, mintIn, *reserveIn))
	must(ledger.Fund(ctx, lp, mintOut, *reserveOut))
	seeded, err := engine.AddLiquidity(ctx, amm.AddLiquidityRequest{
		Provider: lp,
		MintA:    mintIn,
		MintB:    mintOut,
		DesiredA: *reserveIn,
		DesiredB: *reserveOut,
	})
	if err != nil {
		fmt.Println("seeding pool failed:", err)
		os.Exit(1)
	}
	fmt.Printf("pool=%s claim_mint=%s minted=%d\n", seeded.Pool.Pair, seeded.Pool.ClaimMint, seeded.Minted)

	switch *mode {
	case "quote":
		q, err := engine.QuoteSwap(ctx, mintIn, mintOut, *amt)
		if err != nil {
			fmt.Println("quote failed:", err)
			os.Exit(1)
		}
		fmt.Printf("amount_in=%d amount_out=%d min_out=%d fee=%d price_impact=%.4f fee_bps=%d\n",
			q.AmountIn, q.AmountOut, amm.ApplySlippage(q.AmountOut, uint16(*slippageBps)),
			q.FeeAmount, q.PriceImpact, q.FeeBasisPoints)
	case "simulate":
		simulate(ctx, engine, ledger, mintIn, mintOut, *swaps, *seed, uint16(*slippageBps))
	default:
		fmt.Println("invalid -mode (use quote|simulate)")
		os.Exit(2)
	}
}

func simulate(ctx context.Context, engine *amm.Engine, ledger *custody.MemoryLedger, mintX, mintY solana.PublicKey, n int, seed uint64, slippageBps uint16) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	trader := solana.NewWallet().PublicKey()

	start, err := engine.Pool(mintX, mintY)
	must(err)

	var ok, rejected int
	var fees uint64
	for i := 0; i < n && ctx.Err() == nil; i++ {
		in, out := mintX, mintY
		if rng.IntN(2) == 1 {
			in, out = out, in
		}
		snap, err := engine.Pool(in, out)
		must(err)
		reserve := snap.ReserveA
		if !in.Equals(snap.MintA) {
			reserve = snap.ReserveB
		}
		// Trade up to 2% of the input reserve.
		amount := 1 + rng.Uint64N(reserve/50+1)
		must(ledger.Fund(ctx, trader, in, amount))

		q, err := engine.QuoteSwap(ctx, in, out, amount)
		if err != nil {
			rejected++
			continue
		}
		res, err := engine.Swap(ctx, amm.SwapRequest{
			Trader:       trader,
			InputMint:    in,
			OutputMint:   out,
			AmountIn:     amount,
			MinAmountOut: amm.ApplySlippage(q.AmountOut, slippageBps),
		})
		if err != nil {
			rejected++
			continue
		}
		ok++
		fees += res.FeeAmount
	}

	end, err := engine.Pool(mintX, mintY)
	must(err)
	fmt.Printf("swaps=%d rejected=%d fees_collected=%d\n", ok, rejected, fees)
	fmt.Printf("reserves: (%d, %d) -> (%d, %d) supply=%d\n",
		start.ReserveA, start.ReserveB, end.ReserveA, end.ReserveB, end.ClaimSupply)
}

func must(err error) {
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

package constants

// Program-derived address seeds
const (
	SeedAMMState       = "amm_state"
	SeedPool           = "pool"
	SeedLiquidityToken = "liquidity_token"
)

// Fee arithmetic
const (
	BasisPointsDenominator = 10000
	MaxFeeBasisPoints      = 10000
)

// Claim token mints are created with 6 decimals.
const ClaimTokenDecimals = 6

// DefaultProgramID is used when AMM_PROGRAM_ID is not set.
const DefaultProgramID = "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"

// Redis keys
const (
	RedisKeyRecentEvents  = "amm:events:recent"
	RedisKeyPoolPrefix    = "custody:pool:"
	RedisKeyPoolSet       = "custody:pools"
	RedisKeyBalancePrefix = "custody:balance:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelEvents      = "amm:events"
	PubSubChannelPoolPrefix  = "amm:events:pool:"
	PubSubChannelKindPrefix  = "amm:events:kind:"
	PubSubPatternPoolEvents  = "amm:events:pool:*"
	PubSubPatternKindEvents  = "amm:events:kind:*"
	DefaultSubscriberChannel = PubSubChannelEvents
)

// Limits
const (
	MaxRecentEvents      = 200
	DefaultSettleRetries = 8
	DefaultRecentEvents  = 50
)

// Token mint addresses to symbols, used for display only.
var TokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": "ETH",
	"3NZ9JMVBmGAqocybic2c7LQCJScmgsAZ6vQqTDzcqmJh": "BTC",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
}

// SymbolFor returns the display symbol for a mint, or the mint itself when unknown.
func SymbolFor(mint string) string {
	if s, ok := TokenSymbols[mint]; ok {
		return s
	}
	return mint
}

// Package partition derives the per-client slice of the catalog: a bounded
// set of synthetic portfolios owned by one emulated client.
package partition

import (
	"fmt"
	"log/slog"

	"chronos_client/internal/catalog"
	"chronos_client/internal/domain"
)

const (
	MaxPortfolios = 100
	MinPortfolios = 10

	MaxHoldings = 100
	MinHoldings = 10

	// SyntheticPrice is the placeholder price of every generated holding.
	SyntheticPrice float32 = 500.0

	// Amounts are drawn from [0, amountRange).
	amountRange = 100

	handleTag = 0xDEAD
)

// Policy selects how many holdings each portfolio gets.
type Policy int

const (
	// PolicyFixed gives every portfolio the same number of holdings (default MaxHoldings).
	PolicyFixed Policy = iota
	// PolicyProportional uses clamp(numSymbols/numUsers, MinHoldings, MaxHoldings).
	PolicyProportional
)

func (p Policy) String() string {
	switch p {
	case PolicyFixed:
		return "fixed"
	case PolicyProportional:
		return "proportional"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a config value to a Policy. Empty means PolicyFixed.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "fixed":
		return PolicyFixed, nil
	case "proportional":
		return PolicyProportional, nil
	default:
		return PolicyFixed, fmt.Errorf("%w: unknown holdings policy %q", domain.ErrInvalidArgument, s)
	}
}

// Holding is one synthetic position inside a portfolio.
type Holding struct {
	SymbolIndex int
	SymbolName  string
	Amount      int
	Price       float32
}

// Portfolio is a synthetic set of holdings for one catalog user.
type Portfolio struct {
	UserIndex int
	UserName  string
	Holdings  []Holding
}

type options struct {
	policy     Policy
	fixedCount int
}

// Option customizes Build.
type Option func(*options)

// WithPolicy selects the holdings-per-portfolio policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithFixedHoldings sets the holdings count used by PolicyFixed, clamped to [1, MaxHoldings].
func WithFixedHoldings(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		if n > MaxHoldings {
			n = MaxHoldings
		}
		o.fixedCount = n
	}
}

// Cache is the partition owned by a single client goroutine.
type Cache struct {
	tag        int
	portfolios []Portfolio
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Build assigns portfolios to client clientNumber (1-based) of totalClients.
//
// User assignment is (i + portfolioCount*(clientNumber-1)) mod numUsers, which
// only partitions users disjointly when totalClients*portfolioCount == numUsers.
// Each holding draws its symbol and then its amount from rng.
func Build(clientNumber, totalClients int, cat *catalog.Catalog, rng domain.Rand, opts ...Option) (*Cache, error) {
	o := options{policy: PolicyFixed, fixedCount: MaxHoldings}
	for _, opt := range opts {
		opt(&o)
	}

	numUsers := cat.NumUsers()
	numSymbols := cat.NumSymbols()
	if numUsers == 0 || numSymbols == 0 || totalClients <= 0 {
		return nil, fmt.Errorf("%w: users=%d symbols=%d clients=%d",
			domain.ErrInvalidCatalog, numUsers, numSymbols, totalClients)
	}
	if clientNumber < 1 || clientNumber > totalClients {
		return nil, fmt.Errorf("%w: client %d of %d", domain.ErrInvalidArgument, clientNumber, totalClients)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", domain.ErrInvalidArgument)
	}

	portfolioCount := clamp(numUsers/totalClients, MinPortfolios, MaxPortfolios)

	holdingsCount := o.fixedCount
	if o.policy == PolicyProportional {
		holdingsCount = clamp(numSymbols/numUsers, MinHoldings, MaxHoldings)
	}

	c := &Cache{
		tag:        handleTag,
		portfolios: make([]Portfolio, portfolioCount),
	}
	offset := portfolioCount * (clientNumber - 1)
	for i := range c.portfolios {
		userIdx := (i + offset) % numUsers
		userName, _ := cat.User(userIdx)

		holdings := make([]Holding, holdingsCount)
		for j := range holdings {
			symIdx := rng.Intn(numSymbols)
			symName, _ := cat.Symbol(symIdx)
			holdings[j] = Holding{
				SymbolIndex: symIdx,
				SymbolName:  symName,
				Amount:      rng.Intn(amountRange),
				Price:       SyntheticPrice,
			}
		}

		c.portfolios[i] = Portfolio{
			UserIndex: userIdx,
			UserName:  userName,
			Holdings:  holdings,
		}
	}

	slog.Debug("Partition built",
		slog.Int("client", clientNumber),
		slog.Int("total_clients", totalClients),
		slog.Int("portfolios", portfolioCount),
		slog.Int("holdings_per_portfolio", holdingsCount),
		slog.String("policy", o.policy.String()))

	return c, nil
}

func (c *Cache) check() {
	if c == nil || c.tag != handleTag {
		panic("partition: invalid handle")
	}
}

func (c *Cache) portfolio(idx int) *Portfolio {
	c.check()
	if idx < 0 || idx >= len(c.portfolios) {
		panic(fmt.Sprintf("partition: portfolio index %d out of range [0, %d)", idx, len(c.portfolios)))
	}
	return &c.portfolios[idx]
}

func (c *Cache) holding(idx, j int) *Holding {
	p := c.portfolio(idx)
	if j < 0 || j >= len(p.Holdings) {
		panic(fmt.Sprintf("partition: holding index %d out of range [0, %d)", j, len(p.Holdings)))
	}
	return &p.Holdings[j]
}

// NumPortfolios returns the number of portfolios in the cache.
func (c *Cache) NumPortfolios() int {
	c.check()
	return len(c.portfolios)
}

// UserID returns the catalog user index owning portfolio idx.
func (c *Cache) UserID(idx int) int { return c.portfolio(idx).UserIndex }

// UserName returns the account id owning portfolio idx.
func (c *Cache) UserName(idx int) string { return c.portfolio(idx).UserName }

// NumSymbols returns the holding count of portfolio idx.
func (c *Cache) NumSymbols(idx int) int { return len(c.portfolio(idx).Holdings) }

func (c *Cache) SymbolID(idx, j int) int { return c.holding(idx, j).SymbolIndex }

func (c *Cache) SymbolName(idx, j int) string { return c.holding(idx, j).SymbolName }

func (c *Cache) Price(idx, j int) float32 { return c.holding(idx, j).Price }

func (c *Cache) Amount(idx, j int) int { return c.holding(idx, j).Amount }

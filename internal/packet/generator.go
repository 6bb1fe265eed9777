package packet

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"chronos_client/internal/catalog"
	"chronos_client/internal/domain"
	"chronos_client/internal/partition"
)

// GeneratorConfig holds the item count bounds and the synthetic values
// written into generated packets.
type GeneratorConfig struct {
	MinItems int
	MaxItems int

	PurchasePrice  decimal.Decimal
	PurchaseAmount int
	SalePrice      decimal.Decimal
	SaleAmount     int
	ClientPrice    decimal.Decimal
	ClientAmount   int
	UpdatePrice    decimal.Decimal
}

// DefaultGeneratorConfig returns the stock synthetic workload values.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MinItems:       1,
		MaxItems:       MaxItems,
		PurchasePrice:  decimal.NewFromInt(2000),
		PurchaseAmount: 10,
		SalePrice:      decimal.Zero,
		SaleAmount:     5,
		ClientPrice:    decimal.NewFromInt(2000),
		ClientAmount:   100,
		UpdatePrice:    decimal.NewFromInt(1000),
	}
}

// Generator builds request packets for one client goroutine.
type Generator struct {
	rng  domain.Rand
	pool *Pool

	minItems int
	maxItems int

	purchasePrice  float32
	purchaseAmount int32
	salePrice      float32
	saleAmount     int32
	clientPrice    float32
	clientAmount   int32
	updatePrice    float32
}

// NewGenerator creates a generator. A nil pool means an unbounded private pool.
func NewGenerator(rng domain.Rand, pool *Pool, cfg GeneratorConfig) *Generator {
	if pool == nil {
		pool = NewPool(0)
	}
	if cfg.MinItems < 1 {
		cfg.MinItems = 1
	}
	if cfg.MaxItems < cfg.MinItems || cfg.MaxItems > MaxItems {
		cfg.MaxItems = MaxItems
	}
	if cfg.MinItems > cfg.MaxItems {
		cfg.MinItems = cfg.MaxItems
	}

	return &Generator{
		rng:            rng,
		pool:           pool,
		minItems:       cfg.MinItems,
		maxItems:       cfg.MaxItems,
		purchasePrice:  toFloat32(cfg.PurchasePrice),
		purchaseAmount: int32(cfg.PurchaseAmount),
		salePrice:      toFloat32(cfg.SalePrice),
		saleAmount:     int32(cfg.SaleAmount),
		clientPrice:    toFloat32(cfg.ClientPrice),
		clientAmount:   int32(cfg.ClientAmount),
		updatePrice:    toFloat32(cfg.UpdatePrice),
	}
}

func toFloat32(d decimal.Decimal) float32 {
	f, _ := d.Float64()
	return float32(f)
}

func (g *Generator) itemCount(requested int) int {
	n := requested
	if n <= 0 {
		n = g.minItems + g.rng.Intn(g.maxItems-g.minItems+1)
	}
	if n > MaxItems {
		n = MaxItems
	}
	return n
}

// releaseOnPanic returns p to its pool before a packing panic propagates,
// so a recovered caller does not leak pool capacity.
func releaseOnPanic(p *RequestPacket) {
	if r := recover(); r != nil {
		p.Free()
		panic(r)
	}
}

func packErr(kind Kind, item int, field string) error {
	return fmt.Errorf("%w: %s item %d: empty %s", domain.ErrPack, kind, item, field)
}

// CreateRandom builds a packet of the given kind by sampling the cache.
//
// requested <= 0 draws the item count from [MinItems, MaxItems]. UpdateStock
// items are not sampled: item i is the i-th symbol of the catalog active range,
// and an index outside that range panics.
func (g *Generator) CreateRandom(requested int, kind Kind, cache *partition.Cache, cat *catalog.Catalog) (*RequestPacket, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: kind %d", domain.ErrInvalidArgument, int32(kind))
	}

	p, err := g.pool.Acquire(kind)
	if err != nil {
		return nil, err
	}
	defer releaseOnPanic(p)

	n := g.itemCount(requested)
	if err := g.fill(p, n, cache, cat); err != nil {
		p.Free()
		return nil, err
	}

	slog.Debug("Packet created",
		slog.String("kind", kind.String()),
		slog.Int("items", n))
	return p, nil
}

func (g *Generator) fill(p *RequestPacket, n int, cache *partition.Cache, cat *catalog.Catalog) error {
	switch p.kind {
	case KindViewStock:
		// one portfolio per packet
		pIdx := g.rng.Intn(cache.NumPortfolios())
		for i := 0; i < n; i++ {
			h := g.rng.Intn(cache.NumSymbols(pIdx))
			name := cache.SymbolName(pIdx, h)
			if name == "" {
				return packErr(p.kind, i, "symbol")
			}
			id := int32(cache.SymbolID(pIdx, h))
			if err := p.Append(ViewStockItem{SymbolIndex: id, SymbolID: id, SymbolName: NewID(name)}); err != nil {
				return err
			}
		}

	case KindViewPortfolio:
		for i := 0; i < n; i++ {
			pIdx := g.rng.Intn(cache.NumPortfolios())
			account := cache.UserName(pIdx)
			if account == "" {
				return packErr(p.kind, i, "account")
			}
			if err := p.Append(ViewPortfolioItem{AccountID: NewID(account)}); err != nil {
				return err
			}
		}

	case KindPurchase, KindSale:
		price, amount := g.purchasePrice, g.purchaseAmount
		if p.kind == KindSale {
			price, amount = g.salePrice, g.saleAmount
		}
		for i := 0; i < n; i++ {
			pIdx := g.rng.Intn(cache.NumPortfolios())
			h := g.rng.Intn(cache.NumSymbols(pIdx))
			it, err := tradeItem(p.kind, i, cache, pIdx, h, price, amount)
			if err != nil {
				return err
			}
			var item Item = it
			if p.kind == KindSale {
				item = SaleItem(it)
			}
			if err := p.Append(item); err != nil {
				return err
			}
		}

	case KindUpdateStock:
		for i := 0; i < n; i++ {
			idx, ok := cat.MapActiveIndex(i)
			if !ok {
				panic(fmt.Sprintf("packet: update item %d outside active range", i))
			}
			if err := g.appendUpdate(p, i, idx, cat); err != nil {
				return err
			}
		}
	}
	return nil
}

func tradeItem(kind Kind, i int, cache *partition.Cache, pIdx, h int, price float32, amount int32) (PurchaseItem, error) {
	account := cache.UserName(pIdx)
	if account == "" {
		return PurchaseItem{}, packErr(kind, i, "account")
	}
	symbol := cache.SymbolName(pIdx, h)
	if symbol == "" {
		return PurchaseItem{}, packErr(kind, i, "symbol")
	}
	return PurchaseItem{
		AccountID:  NewID(account),
		SymbolID:   int32(cache.SymbolID(pIdx, h)),
		SymbolName: NewID(symbol),
		Price:      price,
		Amount:     amount,
	}, nil
}

func (g *Generator) appendUpdate(p *RequestPacket, i, idx int, cat *catalog.Catalog) error {
	name, ok := cat.Symbol(idx)
	if !ok {
		panic(fmt.Sprintf("packet: symbol index %d not in catalog", idx))
	}
	if name == "" {
		return packErr(p.kind, i, "symbol")
	}
	return p.Append(UpdateStockItem{
		SymbolIndex: int32(idx),
		SymbolName:  NewID(name),
		Price:       g.updatePrice,
	})
}

// CreateForClient builds a Purchase packet over every holding of portfolio
// userIndex, in holding order.
func (g *Generator) CreateForClient(userIndex int, cache *partition.Cache) (*RequestPacket, error) {
	n := cache.NumSymbols(userIndex)
	if n > MaxItems {
		n = MaxItems
	}

	p, err := g.pool.Acquire(KindPurchase)
	if err != nil {
		return nil, err
	}
	defer releaseOnPanic(p)
	for i := 0; i < n; i++ {
		it, err := tradeItem(KindPurchase, i, cache, userIndex, i, g.clientPrice, g.clientAmount)
		if err == nil {
			err = p.Append(it)
		}
		if err != nil {
			p.Free()
			return nil, err
		}
	}
	return p, nil
}

// CreateSystemUpdateFromList builds an UpdateStock packet over explicit
// symbol indices. Indices come from trusted shard assignment; one the
// catalog cannot resolve panics.
func (g *Generator) CreateSystemUpdateFromList(indices []int, cat *catalog.Catalog) (*RequestPacket, error) {
	if len(indices) == 0 || len(indices) > MaxItems {
		return nil, fmt.Errorf("%w: %d update indices, want 1..%d",
			domain.ErrInvalidArgument, len(indices), MaxItems)
	}

	p, err := g.pool.Acquire(KindUpdateStock)
	if err != nil {
		return nil, err
	}
	defer releaseOnPanic(p)
	for i, idx := range indices {
		if err := g.appendUpdate(p, i, idx, cat); err != nil {
			p.Free()
			return nil, err
		}
	}
	return p, nil
}

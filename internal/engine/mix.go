package engine

import (
	"fmt"

	"chronos_client/internal/domain"
	"chronos_client/internal/packet"
)

// Mix is a weighted choice over user transaction kinds.
type Mix struct {
	kinds []packet.Kind
	cum   []int
	total int
}

// DefaultMix is 60% view stock, 20% view portfolio, 10% purchase, 10% sale.
func DefaultMix() *Mix {
	m, _ := NewMix(map[packet.Kind]int{
		packet.KindViewStock:     60,
		packet.KindViewPortfolio: 20,
		packet.KindPurchase:      10,
		packet.KindSale:          10,
	})
	return m
}

// NewMix builds a mix. System kinds and negative weights are rejected; at
// least one weight must be positive.
func NewMix(weights map[packet.Kind]int) (*Mix, error) {
	for k, w := range weights {
		if !k.Valid() || k.IsSystem() {
			return nil, fmt.Errorf("%w: %s is not a user transaction", domain.ErrInvalidArgument, k)
		}
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight %d for %s", domain.ErrInvalidArgument, w, k)
		}
	}

	m := &Mix{}
	// fixed kind order keeps Pick reproducible for a given seed
	for _, k := range packet.UserKinds() {
		w := weights[k]
		if w == 0 {
			continue
		}
		m.total += w
		m.kinds = append(m.kinds, k)
		m.cum = append(m.cum, m.total)
	}
	if m.total == 0 {
		return nil, fmt.Errorf("%w: empty transaction mix", domain.ErrInvalidArgument)
	}
	return m, nil
}

// ParseMix builds a mix from config keys such as "view_stock".
func ParseMix(raw map[string]int) (*Mix, error) {
	weights := make(map[packet.Kind]int, len(raw))
	for name, w := range raw {
		k, err := packet.ParseKind(name)
		if err != nil {
			return nil, err
		}
		weights[k] += w
	}
	return NewMix(weights)
}

// Pick draws one kind.
func (m *Mix) Pick(rng domain.Rand) packet.Kind {
	r := rng.Intn(m.total)
	for i, c := range m.cum {
		if r < c {
			return m.kinds[i]
		}
	}
	return m.kinds[len(m.kinds)-1]
}

// Weight returns the configured weight of k.
func (m *Mix) Weight(k packet.Kind) int {
	prev := 0
	for i, kind := range m.kinds {
		if kind == k {
			return m.cum[i] - prev
		}
		prev = m.cum[i]
	}
	return 0
}

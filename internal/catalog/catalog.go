// Package catalog holds the shared symbol and user directory of a benchmark run.
package catalog

import (
	"fmt"
	"log/slog"
	"strconv"

	"chronos_client/internal/domain"
)

const (
	DefaultNumSymbols = 300
	DefaultNumUsers   = 50

	handleTag = 0xBEEF
)

// Config sizes the catalog. Zero fields fall back to the defaults.
type Config struct {
	NumSymbols int
	NumUsers   int
}

// Catalog is the read-mostly universe of symbols and users.
//
// Lookups accept index == count as in range; that slot carries no name and
// resolves to "". The active range has no internal locking: set it before
// any reader goroutine starts.
type Catalog struct {
	tag int

	// one trailing empty slot each, see Symbol/User
	symbols []string
	users   []string

	first int
	count int
}

// Load asks the loader for cfg.NumSymbols names and assigns users "1".."NumUsers".
func Load(loader domain.SymbolLoader, homeDir, dataDir string, cfg Config) (*Catalog, error) {
	if cfg.NumSymbols <= 0 {
		cfg.NumSymbols = DefaultNumSymbols
	}
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = DefaultNumUsers
	}
	if loader == nil {
		return nil, fmt.Errorf("%w: nil loader", domain.ErrSourceUnavailable)
	}

	symbols, err := loader.LoadSymbols(homeDir, dataDir, cfg.NumSymbols)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	if len(symbols) < cfg.NumSymbols {
		return nil, fmt.Errorf("%w: loaded %d symbols, expected %d",
			domain.ErrSourceUnavailable, len(symbols), cfg.NumSymbols)
	}

	c, err := New(symbols[:cfg.NumSymbols], cfg.NumUsers)
	if err != nil {
		return nil, err
	}
	slog.Info("Catalog loaded",
		slog.Int("symbols", c.NumSymbols()),
		slog.Int("users", c.NumUsers()))
	return c, nil
}

// New builds a catalog over an in-memory symbol list.
func New(symbols []string, numUsers int) (*Catalog, error) {
	if numUsers < 0 {
		return nil, fmt.Errorf("%w: numUsers %d", domain.ErrInvalidArgument, numUsers)
	}

	c := &Catalog{
		tag:     handleTag,
		symbols: make([]string, len(symbols)+1),
		users:   make([]string, numUsers+1),
		first:   0,
		count:   len(symbols),
	}
	copy(c.symbols, symbols)
	for i := 0; i < numUsers; i++ {
		c.users[i] = strconv.Itoa(i + 1)
	}
	return c, nil
}

func (c *Catalog) check() {
	if c == nil || c.tag != handleTag {
		panic("catalog: invalid handle")
	}
}

// NumSymbols returns the number of loaded symbols.
func (c *Catalog) NumSymbols() int {
	c.check()
	return len(c.symbols) - 1
}

// Symbol returns the symbol at index i.
// i == NumSymbols() is reported as found with an empty name.
func (c *Catalog) Symbol(i int) (string, bool) {
	c.check()
	if i < 0 || i > c.NumSymbols() {
		return "", false
	}
	return c.symbols[i], true
}

// NumUsers returns the number of registered users.
func (c *Catalog) NumUsers() int {
	c.check()
	return len(c.users) - 1
}

// User returns the user id at index i, with the same bounds policy as Symbol.
func (c *Catalog) User(i int) (string, bool) {
	c.check()
	if i < 0 || i > c.NumUsers() {
		return "", false
	}
	return c.users[i], true
}

// SetActiveRange restricts system refresh work to [first, first+count).
// On error the previous range is kept.
func (c *Catalog) SetActiveRange(first, count int) error {
	c.check()
	n := c.NumSymbols()
	if first < 0 || first >= n || count <= 0 || first+count > n {
		return fmt.Errorf("%w: first=%d count=%d symbols=%d", domain.ErrRange, first, count, n)
	}
	c.first = first
	c.count = count
	return nil
}

// ActiveRange returns the current (first, count) window.
func (c *Catalog) ActiveRange() (first, count int) {
	c.check()
	return c.first, c.count
}

// MapActiveIndex translates a position inside the active range to a symbol index.
// Negative i is not rejected.
func (c *Catalog) MapActiveIndex(i int) (int, bool) {
	c.check()
	if i >= c.count {
		return -1, false
	}
	return c.first + i, true
}

// Shard returns the symbol indices of the k-th of `of` contiguous, disjoint
// slices of the active range.
func (c *Catalog) Shard(k, of int) ([]int, error) {
	c.check()
	if of <= 0 || k < 0 || k >= of || of > c.count {
		return nil, fmt.Errorf("%w: shard %d of %d over %d symbols",
			domain.ErrInvalidArgument, k, of, c.count)
	}
	lo := c.count * k / of
	hi := c.count * (k + 1) / of
	indices := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		idx, _ := c.MapActiveIndex(i)
		indices = append(indices, idx)
	}
	return indices, nil
}

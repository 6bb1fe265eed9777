package domain

// SymbolLoader supplies the ordered symbol universe for a Catalog.
// Implementations return at most maxCount names.
type SymbolLoader interface {
	LoadSymbols(homeDir, dataDir string, maxCount int) ([]string, error)
}

// Rand is the pseudo-random source used for synthetic sampling.
// *math/rand.Rand satisfies it; tests may pass a scripted source.
type Rand interface {
	Intn(n int) int
}

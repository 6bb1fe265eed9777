package domain

import (
	"time"
)

// SymbolRecord is one row of the persisted symbol universe.
type SymbolRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Position  int       `gorm:"uniqueIndex" json:"position"` // catalog index
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RunRecord summarizes one benchmark run.
type RunRecord struct {
	ID            string    `gorm:"primaryKey" json:"id"` // uuid
	ServerAddress string    `json:"server_address"`
	Transport     string    `json:"transport"`
	NumClients    int       `json:"num_clients"`
	NumUpdaters   int       `json:"num_updaters"`
	Seed          int64     `json:"seed"`
	StartedAt     time.Time `gorm:"index" json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`

	Transactions uint64 `json:"transactions"`
	Errors       uint64 `json:"errors"`
	Timeouts     uint64 `json:"timeouts"`
	Retries      uint64 `json:"retries"`
	AvgLatencyNs int64  `json:"avg_latency_ns"`

	Kinds []KindStatRecord `gorm:"foreignKey:RunID" json:"kinds"`
}

// KindStatRecord holds the per transaction kind counters of a run.
type KindStatRecord struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	RunID        string `gorm:"index" json:"run_id"`
	Kind         string `json:"kind"`
	Completed    uint64 `json:"completed"`
	Rejected     uint64 `json:"rejected"`
	AvgLatencyNs int64  `json:"avg_latency_ns"`
}

// Duration returns the wall time of the run.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Throughput returns completed transactions per second.
func (r *RunRecord) Throughput() float64 {
	d := r.Duration().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(r.Transactions) / d
}

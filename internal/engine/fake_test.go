package engine

import (
	"context"
	"sync"

	"chronos_client/internal/domain"
	"chronos_client/internal/packet"
)

type sentPacket struct {
	kind    packet.Kind
	items   int
	updates []int32 // SymbolIndex of each UpdateStock item
	holders []string
}

// fakeTransport answers every request in memory.
type fakeTransport struct {
	mu sync.Mutex

	connectErr error
	sendErr    error
	drop       int // responses to lose before answering again
	outcome    int32

	connects    int
	disconnects int
	sent        []sentPacket
	pending     []packet.ResponsePacket
}

func (f *fakeTransport) Connect(ctx context.Context, address string, port int, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connects++
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, req *packet.RequestPacket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}

	sp := sentPacket{kind: req.Kind(), items: req.NumItems()}
	for i := 0; i < req.NumItems(); i++ {
		switch req.Kind() {
		case packet.KindUpdateStock:
			sp.updates = append(sp.updates, req.UpdateStock(i).SymbolIndex)
		case packet.KindPurchase:
			sp.holders = append(sp.holders, req.Purchase(i).AccountID.String())
		}
	}
	f.sent = append(f.sent, sp)

	if f.drop > 0 {
		f.drop--
		return nil
	}
	f.pending = append(f.pending, packet.NewResponse(req.Kind(), f.outcome))
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context, isTimeToDie func() bool) (*packet.ResponsePacket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, domain.NewNetworkError("receive", domain.ErrTimeout)
	}
	next := f.pending[0]
	f.pending = f.pending[1:]

	resp := packet.AllocResponse()
	resp.Set(next.Kind(), next.Outcome())
	return resp, nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeTransport) kinds() map[packet.Kind]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[packet.Kind]int)
	for _, sp := range f.sent {
		out[sp.kind]++
	}
	return out
}

func (f *fakeTransport) packets() []sentPacket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentPacket(nil), f.sent...)
}

type memStore struct {
	mu   sync.Mutex
	runs []*domain.RunRecord
	err  error
}

func (m *memStore) SaveRun(run *domain.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

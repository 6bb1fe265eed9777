package packet

import (
	"fmt"

	"chronos_client/internal/domain"
)

const (
	// MaxItems is the hard capacity of a request packet.
	MaxItems = 100

	// ItemsRegionSize is the largest item record times the capacity.
	ItemsRegionSize = PurchaseItemSize * MaxItems

	RequestHeaderSize = 8
	RequestWireSize   = RequestHeaderSize + ItemsRegionSize

	requestTag = 0xDEAF
)

// RequestPacket is a fixed-frame transaction request.
//
// Items are kept in their wire layout, so encoding is a header write plus a
// copy. A packet belongs to one goroutine until handed to a transport.
type RequestPacket struct {
	tag   int
	kind  Kind
	count int
	items [ItemsRegionSize]byte

	pool *Pool
}

// NewRequest returns an empty, unpooled packet of the given kind.
func NewRequest(kind Kind) *RequestPacket {
	p := &RequestPacket{}
	p.reset(kind)
	return p
}

func (p *RequestPacket) reset(kind Kind) {
	if !kind.Valid() {
		panic(fmt.Sprintf("packet: invalid kind %d", int32(kind)))
	}
	p.tag = requestTag
	p.kind = kind
	p.count = 0
	clear(p.items[:])
}

func (p *RequestPacket) check() {
	if p == nil || p.tag != requestTag {
		panic("packet: invalid request handle")
	}
}

func (p *RequestPacket) Kind() Kind {
	p.check()
	return p.kind
}

// NumItems returns the number of meaningful items.
func (p *RequestPacket) NumItems() int {
	p.check()
	return p.count
}

// WireSize is the full envelope size, independent of kind and item count.
func (p *RequestPacket) WireSize() int {
	p.check()
	return RequestWireSize
}

// Append adds an item. Its kind must match the packet.
func (p *RequestPacket) Append(it Item) error {
	p.check()
	if it.Kind() != p.kind {
		panic(fmt.Sprintf("packet: %s item in %s packet", it.Kind(), p.kind))
	}
	if p.count >= MaxItems {
		return fmt.Errorf("%w: packet full (%d items)", domain.ErrInvalidArgument, MaxItems)
	}
	size := itemSize(p.kind)
	off := p.count * size
	it.put(p.items[off : off+size])
	p.count++
	return nil
}

func (p *RequestPacket) slot(i int, want Kind) []byte {
	p.check()
	if p.kind != want {
		panic(fmt.Sprintf("packet: %s accessor on %s packet", want, p.kind))
	}
	if i < 0 || i >= p.count {
		panic(fmt.Sprintf("packet: item %d out of range [0, %d)", i, p.count))
	}
	size := itemSize(p.kind)
	return p.items[i*size : (i+1)*size]
}

func (p *RequestPacket) ViewStock(i int) ViewStockItem {
	return getViewStock(p.slot(i, KindViewStock))
}

func (p *RequestPacket) ViewPortfolio(i int) ViewPortfolioItem {
	return getViewPortfolio(p.slot(i, KindViewPortfolio))
}

func (p *RequestPacket) Purchase(i int) PurchaseItem {
	return getPurchase(p.slot(i, KindPurchase))
}

func (p *RequestPacket) Sale(i int) SaleItem {
	return SaleItem(getPurchase(p.slot(i, KindSale)))
}

func (p *RequestPacket) UpdateStock(i int) UpdateStockItem {
	return getUpdateStock(p.slot(i, KindUpdateStock))
}

// Item returns item i as its concrete kind-specific type.
func (p *RequestPacket) Item(i int) Item {
	switch p.Kind() {
	case KindViewStock:
		return p.ViewStock(i)
	case KindViewPortfolio:
		return p.ViewPortfolio(i)
	case KindPurchase:
		return p.Purchase(i)
	case KindSale:
		return p.Sale(i)
	default:
		return p.UpdateStock(i)
	}
}

// Free returns a pooled packet to its pool. Any later use of p panics.
func (p *RequestPacket) Free() {
	p.check()
	p.tag = 0
	if p.pool != nil {
		p.pool.put(p)
	}
}

// ResponsePacket carries the server outcome for one request.
type ResponsePacket struct {
	kind    Kind
	outcome int32
}

const ResponseWireSize = 8

// NewResponse builds a response value, as a server or a fake transport would.
func NewResponse(kind Kind, outcome int32) ResponsePacket {
	return ResponsePacket{kind: kind, outcome: outcome}
}

func (r *ResponsePacket) Kind() Kind     { return r.kind }
func (r *ResponsePacket) Outcome() int32 { return r.outcome }
func (r *ResponsePacket) WireSize() int  { return ResponseWireSize }

// Set overwrites the response fields. Transports call it after a read.
func (r *ResponsePacket) Set(kind Kind, outcome int32) {
	r.kind = kind
	r.outcome = outcome
}

// OK reports a zero outcome code.
func (r *ResponsePacket) OK() bool { return r.outcome == 0 }

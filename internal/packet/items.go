package packet

import (
	"bytes"
	"encoding/binary"
	"math"
)

// IDSize is the fixed width of every string field on the wire.
const IDSize = 10

// Item record sizes, including alignment padding.
const (
	ViewStockItemSize     = 20
	ViewPortfolioItemSize = 10
	PurchaseItemSize      = 36
	SaleItemSize          = 36
	UpdateStockItemSize   = 20
)

// ID is a fixed-width wire string. It is NUL padded when shorter than IDSize
// and not NUL terminated when it fills the field.
type ID [IDSize]byte

// NewID copies at most IDSize bytes of s. Longer input is truncated silently.
func NewID(s string) ID {
	var id ID
	copy(id[:], s)
	return id
}

func (id ID) String() string {
	n := bytes.IndexByte(id[:], 0)
	if n < 0 {
		n = IDSize
	}
	return string(id[:n])
}

// Item is one element of a request packet. The concrete type selects the kind.
type Item interface {
	Kind() Kind
	put(dst []byte)
}

type ViewStockItem struct {
	SymbolIndex int32
	SymbolID    int32
	SymbolName  ID
}

type ViewPortfolioItem struct {
	AccountID ID
}

type PurchaseItem struct {
	AccountID  ID
	SymbolID   int32
	SymbolName ID
	Price      float32
	Amount     int32
}

// SaleItem has the same layout as PurchaseItem.
type SaleItem PurchaseItem

type UpdateStockItem struct {
	SymbolIndex int32
	SymbolName  ID
	Price       float32
}

func (ViewStockItem) Kind() Kind     { return KindViewStock }
func (ViewPortfolioItem) Kind() Kind { return KindViewPortfolio }
func (PurchaseItem) Kind() Kind      { return KindPurchase }
func (SaleItem) Kind() Kind          { return KindSale }
func (UpdateStockItem) Kind() Kind   { return KindUpdateStock }

// itemSize returns the record size for k, or 0 for an unknown kind.
func itemSize(k Kind) int {
	switch k {
	case KindViewStock:
		return ViewStockItemSize
	case KindViewPortfolio:
		return ViewPortfolioItemSize
	case KindPurchase:
		return PurchaseItemSize
	case KindSale:
		return SaleItemSize
	case KindUpdateStock:
		return UpdateStockItemSize
	default:
		return 0
	}
}

// Layout:
//
//	ViewStock     idx[0:4] id[4:8] name[8:18] pad[18:20]
//	ViewPortfolio account[0:10]
//	Purchase/Sale account[0:10] pad[10:12] id[12:16] name[16:26] pad[26:28] price[28:32] amount[32:36]
//	UpdateStock   idx[0:4] name[4:14] pad[14:16] price[16:20]

func (it ViewStockItem) put(dst []byte) {
	dst = dst[:ViewStockItemSize]
	clear(dst)
	binary.LittleEndian.PutUint32(dst[0:4], uint32(it.SymbolIndex))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(it.SymbolID))
	copy(dst[8:18], it.SymbolName[:])
}

func (it ViewPortfolioItem) put(dst []byte) {
	copy(dst[:ViewPortfolioItemSize], it.AccountID[:])
}

func (it PurchaseItem) put(dst []byte) {
	dst = dst[:PurchaseItemSize]
	clear(dst)
	copy(dst[0:10], it.AccountID[:])
	binary.LittleEndian.PutUint32(dst[12:16], uint32(it.SymbolID))
	copy(dst[16:26], it.SymbolName[:])
	binary.LittleEndian.PutUint32(dst[28:32], math.Float32bits(it.Price))
	binary.LittleEndian.PutUint32(dst[32:36], uint32(it.Amount))
}

func (it SaleItem) put(dst []byte) {
	PurchaseItem(it).put(dst)
}

func (it UpdateStockItem) put(dst []byte) {
	dst = dst[:UpdateStockItemSize]
	clear(dst)
	binary.LittleEndian.PutUint32(dst[0:4], uint32(it.SymbolIndex))
	copy(dst[4:14], it.SymbolName[:])
	binary.LittleEndian.PutUint32(dst[16:20], math.Float32bits(it.Price))
}

func getViewStock(src []byte) ViewStockItem {
	var it ViewStockItem
	it.SymbolIndex = int32(binary.LittleEndian.Uint32(src[0:4]))
	it.SymbolID = int32(binary.LittleEndian.Uint32(src[4:8]))
	copy(it.SymbolName[:], src[8:18])
	return it
}

func getViewPortfolio(src []byte) ViewPortfolioItem {
	var it ViewPortfolioItem
	copy(it.AccountID[:], src[0:10])
	return it
}

func getPurchase(src []byte) PurchaseItem {
	var it PurchaseItem
	copy(it.AccountID[:], src[0:10])
	it.SymbolID = int32(binary.LittleEndian.Uint32(src[12:16]))
	copy(it.SymbolName[:], src[16:26])
	it.Price = math.Float32frombits(binary.LittleEndian.Uint32(src[28:32]))
	it.Amount = int32(binary.LittleEndian.Uint32(src[32:36]))
	return it
}

func getUpdateStock(src []byte) UpdateStockItem {
	var it UpdateStockItem
	it.SymbolIndex = int32(binary.LittleEndian.Uint32(src[0:4]))
	copy(it.SymbolName[:], src[4:14])
	it.Price = math.Float32frombits(binary.LittleEndian.Uint32(src[16:20]))
	return it
}

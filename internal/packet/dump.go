package packet

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	dumpBanner = strings.Repeat("=", 48)
	dumpHeader = strings.Repeat("-", 48)
	dumpItem   = strings.Repeat("+", 48)
)

func price(f float32) string {
	return decimal.NewFromFloat32(f).StringFixed(2)
}

// Dump writes a human-readable trace of p to w. Diagnostic only.
func Dump(w io.Writer, p *RequestPacket) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, dumpBanner)
	fmt.Fprintf(bw, " Txn Type: %s\n", p.Kind())
	fmt.Fprintf(bw, " Txn Size: %d\n", p.NumItems())
	fmt.Fprintln(bw, dumpHeader)

	for i := 0; i < p.NumItems(); i++ {
		if i > 0 {
			fmt.Fprintln(bw, dumpItem)
		}
		switch it := p.Item(i).(type) {
		case ViewStockItem:
			fmt.Fprintf(bw, "  symbolIdx: %d\n", it.SymbolIndex)
			fmt.Fprintf(bw, "  symbolId: %d\n", it.SymbolID)
			fmt.Fprintf(bw, "  symbol: %s\n", it.SymbolName)
		case ViewPortfolioItem:
			fmt.Fprintf(bw, "  accountId: %s\n", it.AccountID)
		case PurchaseItem:
			dumpTrade(bw, it)
		case SaleItem:
			dumpTrade(bw, PurchaseItem(it))
		case UpdateStockItem:
			fmt.Fprintf(bw, "  symbolIdx: %d\n", it.SymbolIndex)
			fmt.Fprintf(bw, "  symbol: %s\n", it.SymbolName)
			fmt.Fprintf(bw, "  price: %s\n", price(it.Price))
		}
	}
	fmt.Fprintln(bw, dumpBanner)

	return bw.Flush()
}

func dumpTrade(w io.Writer, it PurchaseItem) {
	fmt.Fprintf(w, "  accountId: %s\n", it.AccountID)
	fmt.Fprintf(w, "  symbolId: %d\n", it.SymbolID)
	fmt.Fprintf(w, "  symbol: %s\n", it.SymbolName)
	fmt.Fprintf(w, "  price: %s\n", price(it.Price))
	fmt.Fprintf(w, "  amount: %d\n", it.Amount)
}

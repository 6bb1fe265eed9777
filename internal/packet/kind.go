package packet

import (
	"fmt"
	"strings"

	"chronos_client/internal/domain"
)

// Kind is the on-wire discriminant of a transaction packet.
type Kind int32

const (
	KindViewStock Kind = iota
	KindViewPortfolio
	KindPurchase
	KindSale
	KindUpdateStock

	numKinds = 5
)

const namePrefix = "CHRONOS_"

var kindNames = [numKinds]string{
	"CHRONOS_USER_TXN_VIEW_STOCK",
	"CHRONOS_USER_TXN_VIEW_PORTFOLIO",
	"CHRONOS_USER_TXN_PURCHASE",
	"CHRONOS_USER_TXN_SALE",
	"CHRONOS_SYS_TXN_UPDATE_STOCK",
}

// short names used in config files
var kindKeys = [numKinds]string{
	"view_stock",
	"view_portfolio",
	"purchase",
	"sale",
	"update_stock",
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
	return kindNames[k]
}

// Key returns the lowercase config name of k.
func (k Kind) Key() string {
	if !k.Valid() {
		return ""
	}
	return kindKeys[k]
}

func (k Kind) Valid() bool {
	return k >= KindViewStock && k <= KindUpdateStock
}

// IsSystem reports whether k is generated by system workers rather than users.
func (k Kind) IsSystem() bool {
	return k == KindUpdateStock
}

// UserKinds lists the kinds an emulated user can issue.
func UserKinds() []Kind {
	return []Kind{KindViewStock, KindViewPortfolio, KindPurchase, KindSale}
}

// ParseKind accepts either the display name or the config key of a kind.
func ParseKind(s string) (Kind, error) {
	name := s
	if len(name) < len(namePrefix) || !strings.EqualFold(name[:len(namePrefix)], namePrefix) {
		name = namePrefix + name
	}
	for i := 0; i < numKinds; i++ {
		if strings.EqualFold(name, kindNames[i]) || strings.EqualFold(s, kindKeys[i]) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown transaction kind %q", domain.ErrInvalidArgument, s)
}

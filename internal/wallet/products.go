package wallet

import "github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"

// productCatalog is the static coin-bundle catalog. A real deployment would
// source this from a pricing/catalog service; callers only ever reference
// a handful of fixed product_ids, so a static table is sufficient here and
// keeps BuyPointProduct's contract self-contained.
var productCatalog = map[string]domain.PointProduct{
	"1": {ProductID: "1", Points: 4.99, Amount: 4.99, Currency: "USD"},
	"6": {ProductID: "6", Points: 99, Amount: 99, Currency: "USD"},
}

// LookupProduct returns a point product by ID.
func LookupProduct(productID string) (domain.PointProduct, bool) {
	p, ok := productCatalog[productID]
	return p, ok
}

// RefillPlan describes a saved auto-refill purchase plan.
type RefillPlan struct {
	PlanID    int64
	ProductID string
}

// redeemCatalog is the static catalog of coin-spend redemptions reachable
// through POST /redeem (raffle entries, merchandise, etc). Points is the
// coin cost, debited from the wallet.
var redeemCatalog = map[string]domain.PointProduct{
	"raffle-entry":  {ProductID: "raffle-entry", Points: 10},
	"merch-voucher": {ProductID: "merch-voucher", Points: 50},
}

// LookupRedeemProduct returns a redeemable product by ID.
func LookupRedeemProduct(productID string) (domain.PointProduct, bool) {
	p, ok := redeemCatalog[productID]
	return p, ok
}

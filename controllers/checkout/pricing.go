package checkoutControllers

import (
	"context"
	"fmt"
	"math"

	"github.com/templateverse/marketplace-api/cart"
	"github.com/templateverse/marketplace-api/models"
)

// pricedLine is a checkout line with its authoritative catalog price.
type pricedLine struct {
	TemplateID string
	Title      string
	License    string
	Price      float64
}

// TemplatePrice looks a template up and returns its authoritative price
// for a license tier. Templates without an extended price fall back to the
// fixed table. A nil template means the id is unknown. Cart handlers and
// brokers share this, so a cart the server builds always totals to an
// amount its own brokers accept.
func TemplatePrice(ctx context.Context, catalog Catalog, id string, license cart.License) (*models.Template, float64, error) {
	tpl, err := catalog.Template(ctx, id)
	if err != nil || tpl == nil {
		return nil, 0, err
	}
	price := tpl.Price
	if license == cart.LicenseExtended {
		price = tpl.ExtendedPrice
		if price == 0 {
			price = cart.ExtendedPrice
		}
	}
	return tpl, price, nil
}

// derivePricing recomputes every line price from the catalog of record
// instead of trusting the client-supplied values, and checks the client's
// total against the authoritative one. A tampered client can therefore
// neither under-report the amount nor claim items at zero cost.
func derivePricing(ctx context.Context, catalog Catalog, items []cart.Item, clientTotal float64) ([]pricedLine, float64, error) {
	lines := make([]pricedLine, 0, len(items))
	var total float64

	for _, item := range items {
		if item.ID == cart.AllAccessID {
			lines = append(lines, pricedLine{
				TemplateID: cart.AllAccessID,
				Title:      "All-Access Pass",
				License:    cart.AllAccessID,
				Price:      cart.AllAccessPrice,
			})
			total += cart.AllAccessPrice
			continue
		}

		tpl, price, err := TemplatePrice(ctx, catalog, item.ID, item.License)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to look up template %s: %w", item.ID, err)
		}
		if tpl == nil {
			return nil, 0, fmt.Errorf("unknown template: %s", item.ID)
		}

		lines = append(lines, pricedLine{
			TemplateID: tpl.ID,
			Title:      tpl.Title,
			License:    string(item.License),
			Price:      price,
		})
		total += price
	}

	if math.Abs(total-clientTotal) > 0.009 {
		return nil, 0, fmt.Errorf("cart total %.2f does not match catalog total %.2f", clientTotal, total)
	}
	return lines, total, nil
}

// Package cart implements the shopper's cart: an ordered list of selected
// templates, or a single all-access flag that supersedes them.
package cart

import "encoding/json"

type License string

const (
	LicenseRegular  License = "regular"
	LicenseExtended License = "extended"
)

// Fixed license price table, matching the storefront's pricing page.
const (
	RegularPrice   = 59
	ExtendedPrice  = 299
	AllAccessPrice = 300
)

// AllAccessID is the reserved line id the storefront sends when checking
// out the all-access pass instead of individual templates.
const AllAccessID = "all-access"

type Item struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Image   string  `json:"image"`
	Price   float64 `json:"price"`
	License License `json:"license"`
}

// Store owns the in-memory cart state. At most one of the itemized list
// and the all-access flag is active at any time.
type Store struct {
	items     []Item
	allAccess bool
}

func NewStore() *Store {
	return &Store{}
}

// AddToCart inserts the item, or updates license and price when the id is
// already present. Adding an item leaves all-access mode.
func (s *Store) AddToCart(item Item) {
	if s.allAccess {
		s.allAccess = false
	}
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i].License = item.License
			s.items[i].Price = item.Price
			return
		}
	}
	s.items = append(s.items, item)
}

func (s *Store) RemoveFromCart(id string) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// UpdateLicense switches the license tier of an existing line to the
// caller-derived price for that tier. No-op for unknown ids.
func (s *Store) UpdateLicense(id string, license License, price float64) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].License = license
			s.items[i].Price = price
			return
		}
	}
}

// SetAllAccess activates or deactivates all-access mode. Activation clears
// the itemized cart; deactivation only drops the flag.
func (s *Store) SetAllAccess(active bool) {
	s.allAccess = active
	if active {
		s.items = nil
	}
}

func (s *Store) Clear() {
	s.items = nil
	s.allAccess = false
}

func (s *Store) IsInCart(id string) bool {
	for i := range s.items {
		if s.items[i].ID == id {
			return true
		}
	}
	return false
}

func (s *Store) AllAccess() bool {
	return s.allAccess
}

// Items returns a copy of the itemized lines; empty in all-access mode.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// TotalItems counts distinct lines; the all-access pass counts as one.
func (s *Store) TotalItems() int {
	if s.allAccess {
		return 1
	}
	return len(s.items)
}

func (s *Store) TotalPrice() float64 {
	if s.allAccess {
		return AllAccessPrice
	}
	var sum float64
	for i := range s.items {
		sum += s.items[i].Price
	}
	return sum
}

// CheckoutItems returns the lines to charge for: the itemized list, or the
// single all-access line when the flag is active.
func (s *Store) CheckoutItems() []Item {
	if s.allAccess {
		return []Item{{ID: AllAccessID, Title: "All-Access Pass", Price: AllAccessPrice, License: LicenseRegular}}
	}
	return s.Items()
}

type snapshot struct {
	Items     []Item `json:"items"`
	AllAccess bool   `json:"all_access"`
}

// Encode serializes the cart to the snapshot format persisted per user.
func (s *Store) Encode() ([]byte, error) {
	return json.Marshal(snapshot{Items: s.items, AllAccess: s.allAccess})
}

// Decode restores a cart from a stored snapshot. Empty or unparseable
// payloads decode to an empty cart, same as a missing snapshot.
func Decode(data []byte) *Store {
	if len(data) == 0 {
		return NewStore()
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return NewStore()
	}
	if snap.AllAccess {
		return &Store{allAccess: true}
	}
	return &Store{items: snap.Items}
}

package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidCatalog wraps every validation failure so callers can detect
// an unusable price table at load time.
var ErrInvalidCatalog = errors.New("invalid catalog")

// FinishType is a surface treatment offered for a badge. BasePrice and Addon
// are KRW amounts; the effective per-unit base is BasePrice + Addon.
type FinishType struct {
	ID          string `koanf:"id"`
	DisplayName string `koanf:"displayName"`
	BasePrice   int64  `koanf:"basePrice"`
	Addon       int64  `koanf:"addon"`
}

// SizeTier maps a badge diameter in millimetres to its per-unit surcharge.
type SizeTier struct {
	SizeMM    int   `koanf:"sizeMm"`
	Surcharge int64 `koanf:"surcharge"`
}

// QuantityTier is a volume-discount bracket. Max is inclusive; zero means
// the tier is unbounded above.
type QuantityTier struct {
	Min             int   `koanf:"min"`
	Max             int   `koanf:"max"`
	DiscountPerUnit int64 `koanf:"discountPerUnit"`
}

// Catalog is the immutable price table the pricing engine operates on.
// It is loaded once at startup and never mutated; alternate catalogs are
// injected in tests.
type Catalog struct {
	FinishTypes     []FinishType   `koanf:"finishTypes"`
	DefaultFinishID string         `koanf:"defaultFinishId"`
	PlatingColors   []string       `koanf:"platingColors"`
	SizeTiers       []SizeTier     `koanf:"sizeTiers"`
	QuantityTiers   []QuantityTier `koanf:"quantityTiers"`

	MoldFee               int64 `koanf:"moldFee"`
	FlatShippingFee       int64 `koanf:"flatShippingFee"`
	FreeShippingThreshold int64 `koanf:"freeShippingThreshold"`
}

// Load reads a catalog from the YAML file at path, falling back to the
// built-in table when path is empty. The returned catalog is validated.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		c := Default()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog file: %w", err)
	}
	var c Catalog
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FinishTypeFor resolves a finish type id, falling back to the default entry
// for unknown ids so a price can always be rendered.
func (c *Catalog) FinishTypeFor(id string) FinishType {
	trimmed := strings.TrimSpace(id)
	for _, ft := range c.FinishTypes {
		if ft.ID == trimmed {
			return ft
		}
	}
	for _, ft := range c.FinishTypes {
		if ft.ID == c.DefaultFinishID {
			return ft
		}
	}
	// Validate guarantees the default exists; an empty catalog yields a
	// zero-value finish which prices to zero rather than failing the UI.
	return FinishType{}
}

// SurchargeFor returns the per-unit surcharge for the given size, or zero
// when the size is not present in the table.
func (c *Catalog) SurchargeFor(sizeMM int) int64 {
	for _, st := range c.SizeTiers {
		if st.SizeMM == sizeMM {
			return st.Surcharge
		}
	}
	return 0
}

// DiscountFor returns the per-unit discount for the tier containing qty.
// Tiers are checked from the highest bracket downward so large orders match
// first. Quantities below the lowest tier take no discount.
func (c *Catalog) DiscountFor(qty int) int64 {
	for i := len(c.QuantityTiers) - 1; i >= 0; i-- {
		t := c.QuantityTiers[i]
		if qty >= t.Min && (t.Max == 0 || qty <= t.Max) {
			return t.DiscountPerUnit
		}
	}
	return 0
}

// KnownPlatingColor reports whether the plating color appears in the catalog.
// Plating does not affect price; this only backs input validation.
func (c *Catalog) KnownPlatingColor(name string) bool {
	trimmed := strings.TrimSpace(name)
	for _, p := range c.PlatingColors {
		if strings.EqualFold(p, trimmed) {
			return true
		}
	}
	return false
}

// MinBaseUnitPrice returns the smallest possible base unit price across all
// finish types with no size surcharge. Discounts may never reach it.
func (c *Catalog) MinBaseUnitPrice() int64 {
	var min int64 = -1
	for _, ft := range c.FinishTypes {
		base := ft.BasePrice + ft.Addon
		if min < 0 || base < min {
			min = base
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// Validate checks the structural invariants of the price table. A catalog
// that fails validation is an authoring bug and must not serve traffic.
func (c *Catalog) Validate() error {
	if len(c.FinishTypes) == 0 {
		return fmt.Errorf("%w: no finish types", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c.FinishTypes))
	defaultFound := false
	for _, ft := range c.FinishTypes {
		if strings.TrimSpace(ft.ID) == "" {
			return fmt.Errorf("%w: finish type with empty id", ErrInvalidCatalog)
		}
		if seen[ft.ID] {
			return fmt.Errorf("%w: duplicate finish type %q", ErrInvalidCatalog, ft.ID)
		}
		seen[ft.ID] = true
		if ft.BasePrice < 0 || ft.Addon < 0 {
			return fmt.Errorf("%w: finish type %q has negative pricing", ErrInvalidCatalog, ft.ID)
		}
		if ft.ID == c.DefaultFinishID {
			defaultFound = true
		}
	}
	if !defaultFound {
		return fmt.Errorf("%w: default finish %q not present", ErrInvalidCatalog, c.DefaultFinishID)
	}

	if !sort.SliceIsSorted(c.SizeTiers, func(i, j int) bool { return c.SizeTiers[i].SizeMM < c.SizeTiers[j].SizeMM }) {
		return fmt.Errorf("%w: size tiers not sorted by size", ErrInvalidCatalog)
	}
	var prevSurcharge int64
	for i, st := range c.SizeTiers {
		if st.SizeMM <= 0 {
			return fmt.Errorf("%w: size tier with non-positive size %d", ErrInvalidCatalog, st.SizeMM)
		}
		if i > 0 && st.SizeMM == c.SizeTiers[i-1].SizeMM {
			return fmt.Errorf("%w: duplicate size tier %dmm", ErrInvalidCatalog, st.SizeMM)
		}
		if st.Surcharge < 0 {
			return fmt.Errorf("%w: negative surcharge for %dmm", ErrInvalidCatalog, st.SizeMM)
		}
		if st.Surcharge < prevSurcharge {
			return fmt.Errorf("%w: surcharge decreases at %dmm", ErrInvalidCatalog, st.SizeMM)
		}
		prevSurcharge = st.Surcharge
	}

	if len(c.QuantityTiers) == 0 {
		return fmt.Errorf("%w: no quantity tiers", ErrInvalidCatalog)
	}
	if c.QuantityTiers[0].Min != 1 {
		return fmt.Errorf("%w: quantity tiers must start at 1", ErrInvalidCatalog)
	}
	var prevDiscount int64
	var maxDiscount int64
	for i, qt := range c.QuantityTiers {
		last := i == len(c.QuantityTiers)-1
		if qt.Max == 0 && !last {
			return fmt.Errorf("%w: unbounded quantity tier before the last position", ErrInvalidCatalog)
		}
		if qt.Max != 0 && qt.Max < qt.Min {
			return fmt.Errorf("%w: quantity tier [%d,%d] inverted", ErrInvalidCatalog, qt.Min, qt.Max)
		}
		if i > 0 && qt.Min != c.QuantityTiers[i-1].Max+1 {
			return fmt.Errorf("%w: quantity tiers have a gap or overlap at min=%d", ErrInvalidCatalog, qt.Min)
		}
		if qt.DiscountPerUnit < 0 {
			return fmt.Errorf("%w: negative discount in tier starting at %d", ErrInvalidCatalog, qt.Min)
		}
		if qt.DiscountPerUnit < prevDiscount {
			return fmt.Errorf("%w: discount decreases in tier starting at %d", ErrInvalidCatalog, qt.Min)
		}
		prevDiscount = qt.DiscountPerUnit
		if qt.DiscountPerUnit > maxDiscount {
			maxDiscount = qt.DiscountPerUnit
		}
	}
	if c.QuantityTiers[len(c.QuantityTiers)-1].Max != 0 {
		return fmt.Errorf("%w: last quantity tier must be unbounded", ErrInvalidCatalog)
	}
	// The deepest discount must stay below the cheapest base unit price,
	// otherwise a configuration could price negative.
	if min := c.MinBaseUnitPrice(); maxDiscount >= min {
		return fmt.Errorf("%w: max discount %d reaches min base unit price %d", ErrInvalidCatalog, maxDiscount, min)
	}

	if c.MoldFee < 0 || c.FlatShippingFee < 0 || c.FreeShippingThreshold < 0 {
		return fmt.Errorf("%w: negative fee constant", ErrInvalidCatalog)
	}
	return nil
}

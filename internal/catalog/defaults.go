package catalog

// Default returns the production price table. Amounts are KRW.
func Default() *Catalog {
	return &Catalog{
		FinishTypes: []FinishType{
			{ID: "normal", DisplayName: "도금 (Polished)", BasePrice: 3500, Addon: 0},
			{ID: "matte", DisplayName: "무광 (Matte)", BasePrice: 3500, Addon: 300},
			{ID: "enamel", DisplayName: "칠보 (Soft Enamel)", BasePrice: 3500, Addon: 500},
			{ID: "epoxy", DisplayName: "에폭시 (Epoxy Dome)", BasePrice: 3500, Addon: 700},
			{ID: "printed", DisplayName: "인쇄 (Color Print)", BasePrice: 3500, Addon: 1000},
		},
		DefaultFinishID: "normal",
		PlatingColors: []string{
			"gold", "silver", "rose-gold", "black-nickel", "antique-bronze",
		},
		SizeTiers: []SizeTier{
			{SizeMM: 30, Surcharge: 0},
			{SizeMM: 35, Surcharge: 300},
			{SizeMM: 40, Surcharge: 500},
			{SizeMM: 45, Surcharge: 700},
			{SizeMM: 50, Surcharge: 900},
			{SizeMM: 60, Surcharge: 1400},
			{SizeMM: 70, Surcharge: 2000},
		},
		QuantityTiers: []QuantityTier{
			{Min: 1, Max: 99, DiscountPerUnit: 0},
			{Min: 100, Max: 299, DiscountPerUnit: 300},
			{Min: 300, Max: 499, DiscountPerUnit: 500},
			{Min: 500, Max: 999, DiscountPerUnit: 800},
			{Min: 1000, Max: 4999, DiscountPerUnit: 1300},
			{Min: 5000, Max: 0, DiscountPerUnit: 1500},
		},
		MoldFee:               90000,
		FlatShippingFee:       3000,
		FreeShippingThreshold: 50000,
	}
}

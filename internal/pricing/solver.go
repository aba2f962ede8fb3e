package pricing

// FeeSchedule describes a marketplace's deductions. Percentages are given as
// percent values (7.24 means 7.24%).
type FeeSchedule struct {
	Enabled            bool
	CommissionPercent  float64
	TransactionPercent float64
	ServicePercent     float64
	FixedFee           float64
}

type feeRates struct {
	commission, transaction, service, fixed float64
}

// rates returns the schedule as fractions, all zero when fees are disabled.
func (f FeeSchedule) rates() feeRates {
	if !f.Enabled {
		return feeRates{}
	}
	return feeRates{
		commission:  f.CommissionPercent / 100,
		transaction: f.TransactionPercent / 100,
		service:     f.ServicePercent / 100,
		fixed:       f.FixedFee,
	}
}

// amount is the total fee charged on a sale at price. The transaction fee is
// charged on price plus shipping; commission and service on price only.
func (r feeRates) amount(price, shipping float64) float64 {
	return (price * r.commission) +
		(price * r.service) +
		((price + shipping) * r.transaction) +
		r.fixed
}

// Amount returns the marketplace fee for a sale at price with shipping.
func (f FeeSchedule) Amount(price, shipping float64) float64 {
	return f.rates().amount(price, shipping)
}

// IncludedTax returns the VAT contained in a tax-inclusive price.
func IncludedTax(price, ratePercent float64) float64 {
	return price - (price / (1 + (ratePercent / 100)))
}

// SolveInput carries the per-unit figures the solver works on.
type SolveInput struct {
	// OpCost is production cost plus packaging; the markup base.
	OpCost        float64
	MarkupPercent float64
	// Shipping is passed through: it bears the transaction fee only.
	Shipping       float64
	Fees           FeeSchedule
	TaxRatePercent float64
}

// Quote is the solved listing price and the figures derived from it.
type Quote struct {
	OpCost         float64
	Profit         float64
	TargetNet      float64
	FinalPrice     float64
	Tax            float64
	PlatformFee    float64
	TotalCostBasis float64
}

// Priced reports whether a positive listing price exists.
func (q Quote) Priced() bool {
	return q.FinalPrice > 0
}

// Solve finds the tax-inclusive listing price P for which
//
//	P - fees(P) - tax(P) = opCost + profit
//
// which gives P = (target + fixed + shipping*transaction) / (1/(1+tax) - feeRates).
// A non-positive denominator means fees and tax take all of any price; the
// price is then 0 and every derived figure is computed from that 0.
func Solve(in SolveInput) Quote {
	r := in.Fees.rates()
	taxRate := in.TaxRatePercent / 100

	profit := in.OpCost * (in.MarkupPercent / 100)
	target := in.OpCost + profit

	sumFeeRates := r.commission + r.service + r.transaction
	taxFactor := 1 / (1 + taxRate)

	numerator := target + r.fixed + (in.Shipping * r.transaction)
	denominator := taxFactor - sumFeeRates

	price := 0.0
	if denominator > 0 {
		price = numerator / denominator
	}

	tax := price - (price / (1 + taxRate))
	fee := r.amount(price, in.Shipping)

	return Quote{
		OpCost:         in.OpCost,
		Profit:         profit,
		TargetNet:      target,
		FinalPrice:     price,
		Tax:            tax,
		PlatformFee:    fee,
		TotalCostBasis: in.OpCost + fee + tax + in.Shipping,
	}
}

// InverseMarkup recovers the markup percentage implied by a listing price.
// in.MarkupPercent is ignored. It reports false when opCost is not positive,
// in which case the caller keeps its current markup. The result is not rounded.
func InverseMarkup(price float64, in SolveInput) (float64, bool) {
	if in.OpCost <= 0 {
		return 0, false
	}
	tax := price - (price / (1 + (in.TaxRatePercent / 100)))
	fee := in.Fees.rates().amount(price, in.Shipping)
	net := price - tax - fee
	profit := net - in.OpCost
	return (profit / in.OpCost) * 100, true
}

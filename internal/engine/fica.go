package engine

import "github.com/shopspring/decimal"

// FICA is the employee share of Social Security and Medicare for one period.
// Medicare includes the additional Medicare surtax.
type FICA struct {
	SocialSecurity decimal.Decimal
	Medicare       decimal.Decimal
}

// FICA computes period FICA from this period's gross and the year-to-date
// earnings before it. Social Security stops at the wage cap; the additional
// Medicare rate applies only to earnings above the threshold, including the
// part of a period that crosses it.
func (e *Engine) FICA(grossThisPeriod, ytdBefore decimal.Decimal) FICA {
	cfg := e.tables.FICA
	if grossThisPeriod.IsNegative() {
		grossThisPeriod = decimal.Zero
	}
	if ytdBefore.IsNegative() {
		ytdBefore = decimal.Zero
	}

	capRoom := decimal.Max(decimal.Zero, cfg.SocialSecurityWageCap.Sub(ytdBefore))
	ssTaxable := decimal.Min(grossThisPeriod, capRoom)

	medicare := grossThisPeriod.Mul(cfg.MedicareRate)
	threshold := cfg.AdditionalMedicareThreshold
	ytdAfter := ytdBefore.Add(grossThisPeriod)
	var surtaxBase decimal.Decimal
	switch {
	case ytdBefore.GreaterThanOrEqual(threshold):
		surtaxBase = grossThisPeriod
	case ytdAfter.GreaterThan(threshold):
		surtaxBase = ytdAfter.Sub(threshold)
	default:
		surtaxBase = decimal.Zero
	}

	return FICA{
		SocialSecurity: ssTaxable.Mul(cfg.SocialSecurityRate),
		Medicare:       medicare.Add(surtaxBase.Mul(cfg.AdditionalMedicareRate)),
	}
}

// 文件路径: internal/service/pricing.go
// 模块说明: 商品定价与运费计算。金额以分为单位，中间结果用 decimal 避免浮点误差，四舍五入到分。
package service

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PricingRules 是全局定价参数，来自配置。
type PricingRules struct {
	TaxRate               float64
	DefaultMargin         float64
	Currency              string
	ShippingFeeCents      int64
	FreeShippingThreshold int64
}

// PriceInput 是单个商品的定价输入。
type PriceInput struct {
	CostCents int64
	Margin    float64
	Discount  float64
}

// PriceResult 是定价结果。
type PriceResult struct {
	PriceCents        int64
	SalePriceCents    int64
	FloorCents        int64
	EffectiveDiscount float64
}

// ComputePrice 按成本、利润率与税率计算标价，再按折扣计算售价。
// 售价不低于含税成本，触底时实际折扣按标价与底价重算。
func ComputePrice(in PriceInput, taxRate float64) (PriceResult, error) {
	if in.CostCents <= 0 || in.Margin < 0 || taxRate < 0 {
		return PriceResult{}, ErrInvalidPricing
	}
	if in.Discount < 0 || in.Discount >= 100 {
		return PriceResult{}, ErrInvalidPricing
	}
	cost := decimal.NewFromInt(in.CostCents)
	taxFactor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(taxRate).Div(hundred))
	marginFactor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(in.Margin).Div(hundred))
	discountFactor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(in.Discount).Div(hundred))

	price := cost.Mul(marginFactor).Mul(taxFactor).Round(0)
	floor := cost.Mul(taxFactor).Round(0)
	sale := price.Mul(discountFactor).Round(0)

	effective := decimal.NewFromFloat(in.Discount)
	if sale.LessThan(floor) {
		sale = floor
		effective = decimal.Zero
		if price.IsPositive() {
			effective = price.Sub(floor).Div(price).Mul(hundred).Round(2)
		}
	}
	return PriceResult{
		PriceCents:        price.IntPart(),
		SalePriceCents:    sale.IntPart(),
		FloorCents:        floor.IntPart(),
		EffectiveDiscount: effective.InexactFloat64(),
	}, nil
}

// ShippingFee 返回订单运费：空单或达到包邮门槛时免运费。
func (r PricingRules) ShippingFee(subtotalCents int64) int64 {
	if subtotalCents <= 0 || r.ShippingFeeCents <= 0 {
		return 0
	}
	if r.FreeShippingThreshold > 0 && subtotalCents >= r.FreeShippingThreshold {
		return 0
	}
	return r.ShippingFeeCents
}

// LineTotal 计算单行金额。
func LineTotal(unitCents int64, quantity int) int64 {
	return decimal.NewFromInt(unitCents).Mul(decimal.NewFromInt(int64(quantity))).IntPart()
}

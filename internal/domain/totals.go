package domain

import "math"

const (
	// VATRate — ставка НДС (17%), применяется к промежуточной сумме.
	VATRate = 0.17
	// DefaultShippingFeeAgorot — фиксированная стоимость доставки: 91 ₪ в агорот.
	DefaultShippingFeeAgorot = int64(9100)
)

// Totals — производные суммы корзины. Никогда не хранятся: пересчитываются
// из позиций при каждом чтении.
type Totals struct {
	SubtotalAgorot int64
	VATAgorot      int64
	ShippingAgorot int64
	TotalAgorot    int64
	Count          int32
}

// TotalsPolicy задаёт параметры расчёта: размер платы за доставку и то,
// применяется ли она к пустой корзине.
type TotalsPolicy struct {
	ShippingFeeAgorot int64
	// ChargeShippingOnEmptyCart: исходная система добавляла доставку даже к
	// пустой корзине; поведение сделано настраиваемым.
	ChargeShippingOnEmptyCart bool
}

// DefaultTotalsPolicy воспроизводит наблюдаемое поведение исходной системы.
func DefaultTotalsPolicy() TotalsPolicy {
	return TotalsPolicy{
		ShippingFeeAgorot:         DefaultShippingFeeAgorot,
		ChargeShippingOnEmptyCart: true,
	}
}

// CalculateTotals считает subtotal, НДС, доставку и итог по позициям корзины.
// Суммы в агорот, поэтому округление до 2 знаков сводится к целочисленному
// округлению НДС.
func CalculateTotals(items []LineItem, policy TotalsPolicy) Totals {
	var t Totals

	for _, item := range items {
		t.SubtotalAgorot += int64(item.Qty) * item.UnitPriceAgorot
		t.Count += item.Qty
	}

	t.VATAgorot = int64(math.Round(float64(t.SubtotalAgorot) * VATRate))

	if len(items) > 0 || policy.ChargeShippingOnEmptyCart {
		t.ShippingAgorot = policy.ShippingFeeAgorot
	}

	t.TotalAgorot = t.SubtotalAgorot + t.VATAgorot + t.ShippingAgorot
	return t
}

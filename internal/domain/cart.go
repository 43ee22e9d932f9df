package domain

import "time"

// LineItem представляет одну позицию корзины: предложение конкретного
// поставщика плюс количество.
type LineItem struct {
	// PartID — идентификатор детали в каталоге.
	PartID string
	// SupplierPartID — идентификатор предложения поставщика; ключ уникальности в корзине.
	SupplierPartID string
	// Name — название детали для отображения.
	Name string
	// Manufacturer — производитель детали.
	Manufacturer string
	// UnitPriceAgorot — цена за единицу в агорот (минимальные денежные единицы ILS).
	UnitPriceAgorot int64
	// Qty — количество единиц; всегда положительное.
	Qty int32
	// AddedAt фиксирует момент первого добавления позиции в корзину.
	AddedAt time.Time
}

// Cart агрегирует позиции корзины покупателя. Порядок позиций сохраняется,
// уникальность обеспечивается по SupplierPartID.
type Cart struct {
	ID        string
	Items     []LineItem
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты корзины и возвращает список замечаний.
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.SupplierPartID == "" {
			errs = append(errs, ErrSupplierPartIDRequired)
		}
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPriceAgorot < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if _, dup := seen[item.SupplierPartID]; dup {
			errs = append(errs, ErrDuplicateSupplierPart)
		}
		seen[item.SupplierPartID] = struct{}{}
	}

	return errs
}

// Find возвращает индекс позиции с данным SupplierPartID или -1.
func (c *Cart) Find(supplierPartID string) int {
	for i, item := range c.Items {
		if item.SupplierPartID == supplierPartID {
			return i
		}
	}
	return -1
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора предложения поставщика.
	ErrSupplierPartIDRequired = errors.New("supplier_part_id is required")
	// Ошибка при некорректном количестве позиции (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка дублирования позиции по SupplierPartID.
	ErrDuplicateSupplierPart = errors.New("duplicate supplier_part_id in cart")
	// ErrCartNotFound возвращается, если корзина не найдена в репозитории.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartEmpty — попытка разместить заказ из пустой корзины.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrAddressIncomplete — улица или город не заполнены; переход к оплате запрещён.
	ErrAddressIncomplete = errors.New("shipping address requires street and city")
	// ErrInvalidTransition — недопустимый переход между шагами checkout.
	ErrInvalidTransition = errors.New("invalid checkout step transition")
	// ErrSessionNotFound возвращается, если checkout-сессия не найдена.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrSessionExpired — срок жизни checkout-сессии истёк.
	ErrSessionExpired = errors.New("checkout session expired")
	// ErrSessionAlreadyExists — сессия с таким ID уже создана.
	ErrSessionAlreadyExists = errors.New("checkout session already exists")
	// ErrOrderRejected — внешний сервис заказов отклонил запрос (бизнес-ошибка).
	ErrOrderRejected = errors.New("order rejected by orders service")
	// ErrPaymentDeclined — платёж отклонён провайдером (бизнес-ошибка).
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrOrdersUnavailable — временная ошибка внешнего сервиса заказов/платежей.
	ErrOrdersUnavailable = errors.New("orders service unavailable")
)

// IsRetryable проверяет, имеет ли смысл повторить размещение заказа после
// этой ошибки. Бизнес-отказы повторять бессмысленно.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOrdersUnavailable)
}

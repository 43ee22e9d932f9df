package domain

import (
	"strings"
	"time"
)

// CheckoutStep описывает линейный процесс оформления заказа.
type CheckoutStep string

const (
	// StepCart — просмотр корзины, оформление ещё не начато.
	StepCart CheckoutStep = "cart"
	// StepAddress — ввод адреса доставки.
	StepAddress CheckoutStep = "address"
	// StepPayment — подтверждение и оплата.
	StepPayment CheckoutStep = "payment"
	// StepDone — заказ размещён и оплачен, показываем подтверждение.
	StepDone CheckoutStep = "done"
)

// Valid проверяет, что шаг относится к поддерживаемым значениям.
func (s CheckoutStep) Valid() bool {
	switch s {
	case StepCart, StepAddress, StepPayment, StepDone:
		return true
	default:
		return false
	}
}

// ValidTransition описывает допустимые переходы между шагами: вперёд строго
// по порядку, назад только payment→address и address→cart. Переходы со
// пропуском шагов запрещены.
func ValidTransition(from, to CheckoutStep) bool {
	switch from {
	case StepCart:
		return to == StepAddress
	case StepAddress:
		return to == StepPayment || to == StepCart
	case StepPayment:
		return to == StepDone || to == StepAddress
	default:
		return false
	}
}

// ShippingAddress — адрес доставки, введённый покупателем.
type ShippingAddress struct {
	Street     string
	City       string
	PostalCode string
	Country    string
	Phone      string
}

// Complete проверяет минимальные обязательные поля: улица и город.
func (a ShippingAddress) Complete() bool {
	return strings.TrimSpace(a.Street) != "" && strings.TrimSpace(a.City) != ""
}

// CheckoutSession — эфемерное состояние оформления заказа. Создаётся при входе
// в checkout, удаляется по завершении или по истечении TTL.
type CheckoutSession struct {
	ID      string
	CartID  string
	Step    CheckoutStep
	Address ShippingAddress

	// IdempotencyKey генерируется при создании сессии и переиспользуется
	// при повторных попытках размещения, чтобы не плодить дубликаты заказов.
	IdempotencyKey string

	OrderID         string
	OrderNumber     string
	PaymentIntentID string

	// Attempts — число попыток размещения заказа в рамках этой сессии.
	Attempts int

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Expired сообщает, истёк ли срок жизни сессии к моменту now.
func (s *CheckoutSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

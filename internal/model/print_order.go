package model

import "time"

// PrintOrder заказ в платёжном шлюзе, выданный студенту под рассчитанную стоимость печати.
// Одна оплата превращается не более чем в один заказ на печать.
type PrintOrder struct {
	OrderID   string     `json:"orderId"`
	UID       string     `json:"uid"`
	Amount    int64      `json:"amount"`    // в пайсах
	PaymentID *string    `json:"paymentId"` // nil - оплата ещё не использована
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AmountRupees сумма заказа в рупиях
func (o *PrintOrder) AmountRupees() float64 {
	return float64(o.Amount) / 100
}

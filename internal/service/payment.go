package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

// PaymentOrder заказ в платёжном шлюзе
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // в пайсах
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// PaymentGateway внешний платёжный шлюз. Заказ на печать записывается только после
// успешной проверки оплаты.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64) (*PaymentOrder, error)
	VerifyPayment(orderID, paymentID, signature string) bool
}

// RazorpayGateway платёжный шлюз Razorpay
type RazorpayGateway struct {
	client    *razorpay.Client
	keySecret string
	clock     func() time.Time
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
		clock:     time.Now,
	}
}

// CreateOrder создаёт заказ на сумму amount (в пайсах)
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64) (*PaymentOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_order_%d", g.clock().UnixMilli())
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": "INR",
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}

	orderID, _ := body["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("create razorpay order: response without id")
	}

	return &PaymentOrder{
		ID:       orderID,
		Amount:   amount,
		Currency: "INR",
		Receipt:  receipt,
	}, nil
}

// VerifyPayment проверяет подпись платежа: HMAC-SHA256 от "order_id|payment_id" ключом магазина
func (g *RazorpayGateway) VerifyPayment(orderID, paymentID, signature string) bool {
	return VerifyRazorpaySignature(g.keySecret, orderID, paymentID, signature)
}

func VerifyRazorpaySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// DisabledGateway используется, когда ключи Razorpay не заданы: заказы не создаются, оплата не подтверждается
type DisabledGateway struct{}

func (DisabledGateway) CreateOrder(context.Context, int64) (*PaymentOrder, error) {
	return nil, ErrPaymentsDisabled
}

func (DisabledGateway) VerifyPayment(string, string, string) bool {
	return false
}

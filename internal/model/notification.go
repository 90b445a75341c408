package model

// PushMessage содержимое push-уведомления
type PushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// DeliveryReport итог одной пакетной отправки
type DeliveryReport struct {
	SuccessCount  int      `json:"successCount"`
	FailureCount  int      `json:"failureCount"`
	InvalidTokens []string `json:"invalidTokens,omitempty"` // токены, которые провайдер больше не принимает
}

// Merge складывает результаты нескольких отправок
func (r DeliveryReport) Merge(other DeliveryReport) DeliveryReport {
	return DeliveryReport{
		SuccessCount:  r.SuccessCount + other.SuccessCount,
		FailureCount:  r.FailureCount + other.FailureCount,
		InvalidTokens: append(append([]string(nil), r.InvalidTokens...), other.InvalidTokens...),
	}
}

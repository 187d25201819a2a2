package models

// Виды писем, отправляемых воркером.
const (
	EmailKindVerification  = "verification"
	EmailKindPasswordReset = "password_reset"
)

// EmailJob — задание на отправку письма, публикуемое в очередь.
// Воркер-отправитель забирает задание и доставляет письмо по SMTP.
type EmailJob struct {
	Kind        string `json:"kind"`
	To          string `json:"to"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

// AnomalyAlert — внеполосное оповещение об аномальном платеже.
type AnomalyAlert struct {
	PaymentID         string `json:"payment_id"`
	UserUID           string `json:"user_uid"`
	ProviderSessionID string `json:"provider_session_id"`
	Reason            string `json:"reason"`
}

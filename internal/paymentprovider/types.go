package paymentprovider

// Amount — денежная сумма в строковом представлении провайдера.
type Amount struct {
	Value    string `json:"value"`    // сумма строкой, например "100.00"
	Currency string `json:"currency"` // валюта
}

// CreateCheckoutRequest — запрос на создание checkout-сессии.
type CreateCheckoutRequest struct {
	Amount      Amount            `json:"amount"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"` // user_uid и др.
	Confirmation struct {
		Type      string `json:"type"`
		ReturnURL string `json:"return_url"`
	} `json:"confirmation"`
	Capture bool `json:"capture"`
}

// CheckoutSession — ответ провайдера на создание сессии.
type CheckoutSession struct {
	ID           string `json:"id"`     // идентификатор сессии, ключ дедупликации
	Status       string `json:"status"` // pending / succeeded / canceled
	Amount       Amount `json:"amount"`
	Confirmation struct {
		Type            string `json:"type"`
		ConfirmationURL string `json:"confirmation_url"` // куда отправить пользователя платить
	} `json:"confirmation"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

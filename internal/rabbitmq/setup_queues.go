package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Имена очередей и ключей маршрутизации сервиса.
const (
	EmailQueue      = "email.outgoing"
	EmailRoutingKey = "email"

	AnomalyQueue      = "payments.anomaly"
	AnomalyRoutingKey = "anomaly"
)

// GetServiceQueues возвращает очереди письма-воркера и канала аномалий.
func GetServiceQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: EmailRoutingKey},
		{QueueName: AnomalyQueue, RoutingKey: AnomalyRoutingKey},
	}
}

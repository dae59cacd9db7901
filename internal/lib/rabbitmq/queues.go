package rabbitmq

import "github.com/magabrotheeeer/school-crm/internal/models"

// prefetch ограничивает число неподтверждённых сообщений на канал
// и совпадает с числом параллельных обработчиков.
const prefetch = 10

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// QueueName возвращает имя очереди канала доставки.
func QueueName(ch models.Channel) string {
	return "notification." + string(ch)
}

// NotificationQueues возвращает очереди всех каналов доставки.
func NotificationQueues() []QueueConfig {
	channels := []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelPush}
	queues := make([]QueueConfig, 0, len(channels))
	for _, ch := range channels {
		queues = append(queues, QueueConfig{QueueName: QueueName(ch), RoutingKey: string(ch)})
	}
	return queues
}

package app

import (
	"fmt"

	"taskhub/internal/config"
	"taskhub/internal/events"
	"taskhub/internal/payment"
	"taskhub/internal/pkg/logger"
)

// NewGateway returns the payment gateway selected by PAYMENT_PROVIDER.
func NewGateway(cfg *config.Config) (payment.Gateway, error) {
	switch cfg.PaymentProvider {
	case config.PaymentOmise:
		return payment.NewOmiseGateway(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	case config.PaymentMemory, "":
		return payment.NewMemoryGateway(), nil
	}
	return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
}

// NewBroker returns the event publisher selected by EVENTS_DRIVER. The log
// publisher always runs so every event leaves a trace locally.
func NewBroker(cfg *config.Config, log *logger.Logger) (events.Publisher, error) {
	local := events.NewLogPublisher(log)

	switch cfg.EventsDriver {
	case config.EventsRabbitMQ:
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitExchange)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return events.Fanout{local, rabbit}, nil
	case config.EventsKafka:
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		return events.Fanout{local, kafka}, nil
	case config.EventsLog, "":
		return local, nil
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.EventsDriver)
}

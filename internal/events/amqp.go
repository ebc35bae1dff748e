package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/mmeshcher/launchpad/internal/model"
)

// DefaultExchange задаёт topic-exchange, в который публикуются события по умолчанию.
const DefaultExchange = "launchpad.events"

// AMQPPublisher публикует события в RabbitMQ. Ключ маршрутизации совпадает с типом события.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("parse amqp url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("amqp url scheme must be amqp or amqps")
	}
	return clean, nil
}

// NewAMQPPublisher подключается к брокеру и объявляет durable topic-exchange.
func NewAMQPPublisher(amqpURL, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	p := &AMQPPublisher{conn: conn, exchange: exchange, logger: logger}
	if err := p.reopen(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) reopen() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	p.channel = ch
	return nil
}

func routingKey(ev model.Event) string {
	return string(ev.Type)
}

// Publish отправляет событие. При ошибке канал переоткрывается и публикация повторяется один раз.
func (p *AMQPPublisher) Publish(ctx context.Context, ev model.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey(ev), false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.Warn("publish failed, reopening channel", zap.String("exchange", p.exchange), zap.Error(err))
	if reopenErr := p.reopen(); reopenErr != nil {
		return fmt.Errorf("publish event: %w", errors.Join(err, reopenErr))
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey(ev), false, false, msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close закрывает канал и соединение с брокером.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

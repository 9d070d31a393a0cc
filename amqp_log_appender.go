package capture

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"github.com/streadway/amqp"
)

// AmqpLogAppender publishes log rows to RabbitMQ, where the ledger worker
// picks them up.
type AmqpLogAppender struct {
	rabbitConfig RabbitConfig

	mu       deadlock.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	confirms chan amqp.Confirmation
}

func NewAmqpLogAppender(rc RabbitConfig) *AmqpLogAppender {
	return &AmqpLogAppender{rabbitConfig: rc}
}

// declareLogTopology makes sure exchange, queue and binding exist. Both
// publisher and consumer call it so either may start first.
func declareLogTopology(ch *amqp.Channel, rc RabbitConfig) (amqp.Queue, error) {
	if err := ch.ExchangeDeclare(
		rc.Exchange,     // name
		rc.ExchangeType, // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // noWait
		nil,             // arguments
	); err != nil {
		return amqp.Queue{}, errors.Wrap(err, "declare exchange")
	}
	queue, err := ch.QueueDeclare(
		rc.QueueName, // name of the queue
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // noWait
		nil,          // arguments
	)
	if err != nil {
		return amqp.Queue{}, errors.Wrap(err, "declare queue")
	}
	if err := ch.QueueBind(
		queue.Name,    // name of the queue
		rc.RoutingKey, // bindingKey
		rc.Exchange,   // sourceExchange
		false,         // noWait
		nil,           // arguments
	); err != nil {
		return amqp.Queue{}, errors.Wrap(err, "bind queue")
	}
	return queue, nil
}

func (a *AmqpLogAppender) connect() error {
	log.Info().Str("component", "CAPTURE_AMQP").
		Str("host", stripPasswordFromRawUrl(a.rabbitConfig.AmqpURI)).Msg("dialing rabbitMq")
	conn, err := amqp.Dial(a.rabbitConfig.AmqpURI)
	if err != nil {
		return errors.Wrap(err, "dial rabbitMq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "open channel")
	}
	if _, err := declareLogTopology(ch, a.rabbitConfig); err != nil {
		_ = conn.Close()
		return err
	}
	if a.rabbitConfig.Reliable {
		if err := ch.Confirm(false); err != nil {
			_ = conn.Close()
			return errors.Wrap(err, "enable publisher confirms")
		}
		a.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	}
	a.conn, a.channel = conn, ch
	return nil
}

// reset drops the connection so the next row dials again.
func (a *AmqpLogAppender) reset() {
	if a.conn != nil {
		_ = a.conn.Close()
	}
	a.conn, a.channel, a.confirms = nil, nil, nil
}

func (a *AmqpLogAppender) AppendRow(ctx context.Context, row LogRow) error {
	body, err := json.Marshal(row)
	if err != nil {
		return errors.Wrap(err, "marshal log row")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.channel == nil {
		if err := a.connect(); err != nil {
			return err
		}
	}

	if err := a.channel.Publish(
		a.rabbitConfig.Exchange,   // publish to an exchange
		a.rabbitConfig.RoutingKey, // routing to 0 or more queues
		false,                     // mandatory
		false,                     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	); err != nil {
		a.reset()
		return errors.Wrap(err, "publish log row")
	}

	if !a.rabbitConfig.Reliable {
		return nil
	}
	timeout := a.rabbitConfig.ConfirmTimeout
	if timeout <= 0 {
		timeout = DefaultRabbitConfig().ConfirmTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case confirm, ok := <-a.confirms:
		if !ok {
			a.reset()
			return errors.New("channel closed before publish was confirmed")
		}
		if !confirm.Ack {
			return errors.Errorf("broker refused log row, delivery tag %d", confirm.DeliveryTag)
		}
		log.Debug().Str("component", "CAPTURE_AMQP").Uint64("tag", confirm.DeliveryTag).
			Msg("confirmed delivery")
		return nil
	case <-ctx.Done():
		// a late confirm would be paired with the next row, start over
		a.reset()
		return errors.Wrap(ctx.Err(), "waiting for publish confirm")
	case <-timer.C:
		a.reset()
		return errors.New("timeout waiting for publish confirm")
	}
}

func (a *AmqpLogAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn, a.channel, a.confirms = nil, nil, nil
	return err
}

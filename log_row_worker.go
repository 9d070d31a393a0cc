package capture

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"github.com/streadway/amqp"
)

// LogRowWorker drains log rows from RabbitMQ into a LogAppender.
type LogRowWorker struct {
	rabbitConfig RabbitConfig
	appender     LogAppender
	conn         *amqp.Connection
	channel      *amqp.Channel
	tag          string
	Done         chan error
}

func NewLogRowWorker(rc RabbitConfig, appender LogAppender) *LogRowWorker {
	return &LogRowWorker{
		rabbitConfig: rc,
		appender:     appender,
		// consumer tag is a ksuid, K-Sortable Globally Unique ID
		tag:  ksuid.New().String(),
		Done: make(chan error, 1),
	}
}

func (w *LogRowWorker) Run() (err error) {

	log.Info().Str("component", "CAPTURE_WORKER").Str("tag", w.tag).
		Str("host", stripPasswordFromRawUrl(w.rabbitConfig.AmqpURI)).
		Msg("dialing rabbitMq")

	w.conn, err = amqp.Dial(w.rabbitConfig.AmqpURI)
	if err != nil {
		log.Warn().Str("component", "CAPTURE_WORKER").Err(err).Str("tag", w.tag).
			Msg("error connecting to rabbitMq")
		return err
	}
	defer func() {
		if err != nil {
			_ = w.conn.Close()
		}
	}()

	go func() {
		if closeErr := <-w.conn.NotifyClose(make(chan *amqp.Error, 1)); closeErr != nil {
			log.Warn().Str("component", "CAPTURE_WORKER").Str("tag", w.tag).
				Str("reason", closeErr.Error()).Msg("connection closed")
		}
	}()

	w.channel, err = w.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open channel")
	}
	// one unacked row at a time, the ledger is written sequentially anyway
	if err = w.channel.Qos(1, 0, false); err != nil {
		return errors.Wrap(err, "set qos")
	}

	queue, err := declareLogTopology(w.channel, w.rabbitConfig)
	if err != nil {
		return err
	}

	log.Info().Str("component", "CAPTURE_WORKER").Str("tag", w.tag).Str("queue", queue.Name).
		Msg("queue bound to exchange, starting consume")
	deliveries, err := w.channel.Consume(
		queue.Name, // name
		w.tag,      // consumerTag,
		false,      // noAck
		false,      // exclusive
		false,      // noLocal
		false,      // noWait
		nil,        // arguments
	)
	if err != nil {
		return errors.Wrap(err, "consume")
	}

	go w.handle(deliveries)
	return nil
}

func (w *LogRowWorker) Shutdown() error {
	// will close() the deliveries channel
	if err := w.channel.Cancel(w.tag, true); err != nil {
		return fmt.Errorf("worker with tag %s cancel failed: %s", w.tag, err)
	}
	if err := w.conn.Close(); err != nil {
		return fmt.Errorf("AMQP connection with worker %s close error: %s", w.tag, err)
	}
	defer log.Info().Str("component", "CAPTURE_WORKER").Str("tag", w.tag).Msg("Shutdown OK")

	// wait for handle() to exit
	return <-w.Done
}

func (w *LogRowWorker) handle(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		log.Debug().Str("component", "CAPTURE_WORKER").Str("tag", w.tag).
			Int("msg_size", len(d.Body)).Uint64("DeliveryTag", d.DeliveryTag).
			Msg("got delivery")
		w.handleDelivery(d)
	}
	log.Info().Str("component", "CAPTURE_WORKER").Str("tag", w.tag).
		Msg("handle: deliveries channel closed")
	w.Done <- errors.New("handle: deliveries channel closed")
}

// handleDelivery appends one row and settles the delivery: ack on success,
// requeue on a ledger failure, drop a message that is not a row at all.
func (w *LogRowWorker) handleDelivery(d amqp.Delivery) {
	row := LogRow{}
	if err := json.Unmarshal(d.Body, &row); err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_WORKER").Str("tag", w.tag).
			Msg("error unmarshalling log row, rejecting")
		if err := d.Reject(false); err != nil {
			log.Warn().Err(err).Str("component", "CAPTURE_WORKER").Msg("Reject() was not successful")
		}
		return
	}

	if err := w.appender.AppendRow(context.Background(), row); err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_WORKER").Str("tag", w.tag).
			Str("timestamp", row.Timestamp).Msg("error appending log row, requeueing")
		if err := d.Nack(false, true); err != nil {
			log.Warn().Err(err).Str("component", "CAPTURE_WORKER").Msg("Nack() was not successful")
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Warn().Err(err).Str("component", "CAPTURE_WORKER").Str("tag", w.tag).
			Msg("Ack() was not successful")
	}
}

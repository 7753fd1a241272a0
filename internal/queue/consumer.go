package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// StartAuditConsumer connects to the broker, declares the counter.changed
// queue (durable) and appends every delivered event to logPath as one line.
// It reconnects with a capped exponential backoff and returns only when ctx
// is cancelled. Malformed messages are rejected without requeue.
func StartAuditConsumer(ctx context.Context, url, logPath string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("audit-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logPath)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("audit-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("audit-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(CounterChangedQueue, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "queue declare")
	}

	msgs, err := ch.Consume(CounterChangedQueue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "queue consume")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(logPath, d.Body); err != nil {
				log.Error().Err(err).Msg("audit-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(logPath string, body []byte) error {
	var ev CounterChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open audit log")
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return errors.Wrap(err, "write audit log")
	}
	return nil
}

// FormatAuditLine renders one newline-terminated audit log entry.
func FormatAuditLine(ev CounterChangedEvent) string {
	verb := "changed"
	switch ev.Action {
	case ActionIncrement:
		verb = "incremented"
	case ActionReset:
		verb = "reset"
	}
	return fmt.Sprintf("[%s] Counter %s | event_id=%s | count=%d\n", ev.OccurredAt, verb, ev.EventID, ev.Count)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

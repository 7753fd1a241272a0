package service

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	q "github.com/iliyamo/redis-counter/internal/queue"
)

// ErrPublisherBusy is returned when the outgoing event buffer is full.
var ErrPublisherBusy = errors.New("event buffer full")

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("event publisher closed")

// EventPublisher receives counter change notifications.
type EventPublisher interface {
	PublishCounterChanged(ctx context.Context, event q.CounterChangedEvent) error
}

// AMQPPublisher publishes CounterChangedEvent to the "counter.changed" queue.
// PublishCounterChanged only enqueues; a single goroutine owns the broker
// connection and sends each event with a bounded dial and publish timeout.
// Messages are marked as persistent.
type AMQPPublisher struct {
	url     string
	timeout time.Duration

	events    chan q.CounterChangedEvent
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	conn *amqp.Connection // owned by run
}

// PublisherOption configures an AMQPPublisher.
type PublisherOption func(*AMQPPublisher)

// WithPublishTimeout bounds dialling plus publishing of one event.
func WithPublishTimeout(d time.Duration) PublisherOption {
	return func(p *AMQPPublisher) { p.timeout = d }
}

// WithBufferSize sets how many events may wait for the broker.
func WithBufferSize(n int) PublisherOption {
	return func(p *AMQPPublisher) { p.events = make(chan q.CounterChangedEvent, n) }
}

func NewAMQPPublisher(url string, opts ...PublisherOption) *AMQPPublisher {
	p := &AMQPPublisher{
		url:     url,
		timeout: 5 * time.Second,
		events:  make(chan q.CounterChangedEvent, 256),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.run()
	return p
}

// PublishCounterChanged never blocks: the event is dropped with
// ErrPublisherBusy when the buffer is full.
func (p *AMQPPublisher) PublishCounterChanged(_ context.Context, event q.CounterChangedEvent) error {
	select {
	case <-p.stop:
		return ErrPublisherClosed
	default:
	}
	select {
	case p.events <- event:
		return nil
	default:
		return ErrPublisherBusy
	}
}

// Close stops the sender after the event in flight and releases the broker
// connection. Events still buffered are dropped.
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.stop) })
	<-p.done
	return nil
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	defer func() {
		if p.conn != nil && !p.conn.IsClosed() {
			_ = p.conn.Close()
		}
	}()

	for {
		select {
		case <-p.stop:
			return
		case ev := <-p.events:
			ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
			if err := p.send(ctx, ev); err != nil {
				log.Warn().Err(err).Str("event_id", ev.EventID).Str("action", ev.Action).Msg("counter event not published")
			}
			cancel()
		}
	}
}

func (p *AMQPPublisher) connection(ctx context.Context) (*amqp.Connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      dialContext(ctx),
	})
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq dial")
	}
	p.conn = conn
	return conn, nil
}

// dialContext honours ctx for the TCP connect and uses its deadline for the
// AMQP handshake; the client clears the deadline once the connection is open.
func dialContext(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		return conn, nil
	}
}

func (p *AMQPPublisher) send(ctx context.Context, event q.CounterChangedEvent) error {
	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "rabbitmq channel open")
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.CounterChangedQueue, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		return errors.Wrap(err, "rabbitmq queue declare")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		q.CounterChangedQueue, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		return errors.Wrap(err, "rabbitmq publish")
	}
	return nil
}

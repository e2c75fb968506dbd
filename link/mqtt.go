package link

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	// DefaultPublishTimeout bounds a single Write on an MQTT transport.
	DefaultPublishTimeout = 5 * time.Second

	mqttRxQueue       = 64
	mqttDisconnectMs  = 250
	defaultMQTTClient = "atcmd"
)

// MQTTDialer carries an AT link over a pair of MQTT topics. Bytes published
// on InTopic are read from the transport and writes are published on
// OutTopic. A device side and a console side use mirrored topic pairs.
type MQTTDialer struct {
	Broker   string
	ClientID string
	Username string
	Password string

	InTopic  string
	OutTopic string
	QoS      byte

	PublishTimeout time.Duration
}

func (d MQTTDialer) validate() error {
	if d.Broker == "" {
		return ErrNoAddress
	}
	if d.InTopic == "" || d.OutTopic == "" {
		return ErrNoTopic
	}
	if d.QoS > 2 {
		return fmt.Errorf("link: invalid mqtt qos %d", d.QoS)
	}
	return nil
}

func (d MQTTDialer) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(d.Broker)
	clientID := d.ClientID
	if clientID == "" {
		clientID = defaultMQTTClient
	}
	opts.SetClientID(clientID)
	if d.Username != "" {
		opts.SetUsername(d.Username)
		opts.SetPassword(d.Password)
	}
	opts.SetOrderMatters(true)
	opts.SetAutoReconnect(false)
	opts.SetCleanSession(true)
	return opts
}

// Dial connects to the broker and subscribes to InTopic.
func (d MQTTDialer) Dial(ctx context.Context) (Transport, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		return nil, ErrNilContext
	}

	t := newMQTTTransport(d.OutTopic, d.QoS, d.PublishTimeout)

	opts := d.options()
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		t.fail(fmt.Errorf("mqtt connection lost: %w", err))
	})

	client := mqtt.NewClient(opts)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", d.Broker, err)
	}

	handler := func(_ mqtt.Client, m mqtt.Message) {
		t.deliver(m.Payload())
	}
	if err := waitToken(ctx, client.Subscribe(d.InTopic, d.QoS, handler)); err != nil {
		client.Disconnect(mqttDisconnectMs)
		return nil, fmt.Errorf("mqtt subscribe %s: %w", d.InTopic, err)
	}

	t.client = client
	t.inTopic = d.InTopic
	return t, nil
}

func (d MQTTDialer) String() string {
	return d.Broker + "/" + d.InTopic
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

type mqttTransport struct {
	client  mqtt.Client
	inTopic string

	outTopic string
	qos      byte
	timeout  time.Duration

	rx      chan []byte
	pending []byte

	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newMQTTTransport(outTopic string, qos byte, timeout time.Duration) *mqttTransport {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &mqttTransport{
		outTopic: outTopic,
		qos:      qos,
		timeout:  timeout,
		rx:       make(chan []byte, mqttRxQueue),
		done:     make(chan struct{}),
	}
}

// deliver queues an inbound payload. It blocks while the queue is full so
// no byte of the link is lost, and gives up once the transport is closed.
func (t *mqttTransport) deliver(payload []byte) {
	if len(payload) == 0 {
		return
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	select {
	case t.rx <- p:
	case <-t.done:
	}
}

func (t *mqttTransport) fail(err error) {
	t.mu.Lock()
	if t.err == nil {
		t.err = err
	}
	t.mu.Unlock()
	t.shutdown()
}

func (t *mqttTransport) shutdown() {
	t.closeOnce.Do(func() { close(t.done) })
}

func (t *mqttTransport) terminalErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	return io.EOF
}

func (t *mqttTransport) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(t.pending) == 0 {
		select {
		case t.pending = <-t.rx:
		case <-t.done:
			return 0, t.terminalErr()
		}
	}
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *mqttTransport) Write(p []byte) (int, error) {
	select {
	case <-t.done:
		return 0, ErrClosed
	default:
	}
	if len(p) == 0 {
		return 0, nil
	}

	token := t.client.Publish(t.outTopic, t.qos, false, p)
	if !token.WaitTimeout(t.timeout) {
		return 0, fmt.Errorf("mqtt publish %s: timeout after %s", t.outTopic, t.timeout)
	}
	if err := token.Error(); err != nil {
		return 0, fmt.Errorf("mqtt publish %s: %w", t.outTopic, err)
	}
	return len(p), nil
}

func (t *mqttTransport) Close() error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	t.shutdown()
	if t.client != nil {
		t.client.Unsubscribe(t.inTopic).WaitTimeout(t.timeout)
		t.client.Disconnect(mqttDisconnectMs)
	}
	return nil
}

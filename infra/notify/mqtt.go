// Package notify delivers reminder notifications over MQTT. The broker is the
// hand-off point to the channel gateways (email, SMS) which subscribe to the
// notify/<channel> topics.
package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/propscan/scheduler/core/reminder"
	"github.com/propscan/scheduler/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	MaxRetries  int    `json:"max_retries"`
	BackoffMS   int    `json:"backoff_ms"`

	TLSConfig *tls.Config `json:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTSender publishes reminder notifications to per-channel topics.
type MQTTSender struct {
	cli        pahoClient
	prefix     string
	qos        byte
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewMQTTSender connects to the broker and returns a Sender.
func NewMQTTSender(cfg Config) (*MQTTSender, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("notify")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "notify"
	}
	return &MQTTSender{
		cli:        c,
		prefix:     prefix,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Send publishes the notification to notify/<channel>, retrying with
// exponential backoff on publish failure.
func (s *MQTTSender) Send(ctx context.Context, n reminder.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	topic := s.prefix + "/" + strings.ToLower(n.Channel.String())

	maxRetries := s.maxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := s.backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		token := s.cli.Publish(topic, s.qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			s.log.Infof("published %s reminder for %s", n.Channel, n.InspectionID)
			return nil
		}
		s.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (s *MQTTSender) Disconnect(quiesce uint) {
	s.cli.Disconnect(quiesce)
}

var _ reminder.Sender = (*MQTTSender)(nil)

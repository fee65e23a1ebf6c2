package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/zoneshadow/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultOperationTimeout is the maximum time to wait for a publish or
	// subscribe to be acknowledged by the client library.
	defaultOperationTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is used when the config leaves keepalive at zero.
	defaultKeepAlive = 10 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options from the IoT client config.
//
// This configures:
//   - Broker URL (ssl:// with mutual TLS, or tcp:// for local development)
//   - Client ID for identification
//   - Auto-reconnect with exponential backoff, capped at reconnect.max_delay
//   - Ordered message dispatch (handlers run one at a time, in arrival order)
//   - Clean session mode
//
// The initial connection is not retried here: a failed first connect is
// reported to the caller, who decides when to try again.
func buildClientOptions(cfg config.IoTConfig, tlsConfig *tls.Config) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if tlsConfig != nil {
		scheme = "ssl"
		opts.SetTLSConfig(tlsConfig)
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))

	opts.SetClientID(cfg.ClientID)

	// Subscriptions are re-established by the owner after every reconnect,
	// so the broker does not need to keep session state for us.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetOrderMatters(true)

	opts.SetConnectTimeout(defaultConnectTimeout)

	keepAlive := time.Duration(cfg.KeepAlive) * time.Second
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	opts.SetKeepAlive(keepAlive)

	return opts
}

// newTLSConfig builds a mutually authenticated TLS configuration.
//
// The root CA verifies the broker; the client certificate and private key
// authenticate this device to the broker.
//
// Parameters:
//   - cfg: IoT client configuration holding the three PEM file paths
//
// Returns:
//   - *tls.Config: nil when TLS is disabled
//   - error: If any file cannot be read or parsed
func newTLSConfig(cfg config.IoTConfig) (*tls.Config, error) {
	if !cfg.TLS {
		return nil, nil
	}

	caPEM, err := os.ReadFile(cfg.RootCAPath)
	if err != nil {
		return nil, fmt.Errorf("reading root CA: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("root CA %s contains no PEM certificates", cfg.RootCAPath)
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertificatePath, cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading client certificate: %w", err)
	}

	return &tls.Config{
		MinVersion:   tlsMinVersion,
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
	}, nil
}

// Package config loads tester settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Scenario selects which side of the message test this process plays.
type Scenario string

const (
	// ScenarioInitiate publishes test messages only.
	ScenarioInitiate Scenario = "initiate"
	// ScenarioInitiateAndReceiveRelayed publishes test messages and reports
	// the copies relayed back by a peer.
	ScenarioInitiateAndReceiveRelayed Scenario = "initiate_and_receive_relayed"
	// ScenarioRelay sends every received message back to the initiator.
	ScenarioRelay Scenario = "relay"
	// ScenarioReceive reports every received message.
	ScenarioReceive Scenario = "receive"
)

// Defaults for every setting that has one.
var Defaults = struct {
	Scenario         Scenario
	Broker           string
	BrokerURL        string
	TopicSuffix      string
	MessageFrequency time.Duration
	MessageSize      int
	LogLevel         string
	LogFormat        string
}{
	Scenario:         ScenarioReceive,
	Broker:           "mqtt",
	BrokerURL:        "tcp://localhost:1883",
	TopicSuffix:      "1",
	MessageFrequency: 500 * time.Millisecond,
	MessageSize:      16,
	LogLevel:         "info",
	LogFormat:        "text",
}

// Settings is the resolved tester configuration.
type Settings struct {
	Scenario         Scenario
	Broker           string
	BrokerURLs       []string
	ClientID         string
	Username         string
	Password         string
	TopicSuffix      string
	TrackingID       string
	BatchID          string
	TRCURL           string
	MessageFrequency time.Duration
	MessageSize      int
	MessageCount     uint32
	LogLevel         string
	LogFormat        string
	MetricsAddr      string
}

// ForwardTopic is where initiators publish and relayers listen.
func (s *Settings) ForwardTopic() string { return "forwards/" + s.TopicSuffix }

// BackwardTopic is where relayers publish and initiators listen.
func (s *Settings) BackwardTopic() string { return "backwards/" + s.TopicSuffix }

// Initiates reports whether the scenario publishes test messages.
func (s *Settings) Initiates() bool {
	return s.Scenario == ScenarioInitiate || s.Scenario == ScenarioInitiateAndReceiveRelayed
}

// Validate checks the settings for errors.
func (s *Settings) Validate() error {
	switch s.Scenario {
	case ScenarioInitiate, ScenarioInitiateAndReceiveRelayed, ScenarioRelay, ScenarioReceive:
	default:
		return fmt.Errorf("config: unknown test scenario %q", s.Scenario)
	}
	if len(s.BrokerURLs) == 0 {
		return errors.New("config: at least one broker url is required")
	}
	if s.TopicSuffix == "" {
		return errors.New("config: topic suffix must not be empty")
	}
	if (s.Scenario == ScenarioReceive || s.Scenario == ScenarioInitiateAndReceiveRelayed) && s.TRCURL == "" {
		return fmt.Errorf("config: trc url is required for scenario %q", s.Scenario)
	}
	if s.Initiates() {
		if s.MessageFrequency <= 0 {
			return fmt.Errorf("config: message frequency must be positive, got %s", s.MessageFrequency)
		}
		if s.MessageSize < 4 {
			return fmt.Errorf("config: message size must be at least 4 bytes, got %d", s.MessageSize)
		}
	}
	return nil
}

// SetDefaults configures defaults on a Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("test_scenario", string(Defaults.Scenario))
	v.SetDefault("broker", Defaults.Broker)
	v.SetDefault("broker_url", Defaults.BrokerURL)
	v.SetDefault("topic_suffix", Defaults.TopicSuffix)
	v.SetDefault("message_frequency", Defaults.MessageFrequency)
	v.SetDefault("message_size", Defaults.MessageSize)
	v.SetDefault("log_level", Defaults.LogLevel)
	v.SetDefault("log_format", Defaults.LogFormat)
}

// BindFlags registers tester flags on cmd and binds them to Viper.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()

	f.String("scenario", "", "test scenario (initiate, initiate_and_receive_relayed, relay, receive)")
	f.String("broker", "", "transport to use (mqtt, nats, kafka, rabbitmq, redis)")
	f.String("broker-url", "", "comma-separated broker URLs")
	f.String("client-id", "", "client id / consumer group")
	f.String("topic-suffix", "", "suffix of the forwards/ and backwards/ topics")
	f.String("tracking-id", "", "tracking id reported with every result (default random)")
	f.String("batch-id", "", "batch id reported with every result (default random)")
	f.String("trc-url", "", "Test Result Coordinator base URL")
	f.Duration("message-frequency", 0, "delay between initiated messages")
	f.Int("message-size", 0, "size of initiated messages in bytes")
	f.Uint32("message-count", 0, "stop after this many initiated messages (0 = unlimited)")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (json, text)")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")

	_ = v.BindPFlag("test_scenario", f.Lookup("scenario"))
	_ = v.BindPFlag("broker", f.Lookup("broker"))
	_ = v.BindPFlag("broker_url", f.Lookup("broker-url"))
	_ = v.BindPFlag("client_id", f.Lookup("client-id"))
	_ = v.BindPFlag("topic_suffix", f.Lookup("topic-suffix"))
	_ = v.BindPFlag("tracking_id", f.Lookup("tracking-id"))
	_ = v.BindPFlag("batch_id", f.Lookup("batch-id"))
	_ = v.BindPFlag("trc_url", f.Lookup("trc-url"))
	_ = v.BindPFlag("message_frequency", f.Lookup("message-frequency"))
	_ = v.BindPFlag("message_size", f.Lookup("message-size"))
	_ = v.BindPFlag("message_count", f.Lookup("message-count"))
	_ = v.BindPFlag("log_level", f.Lookup("log-level"))
	_ = v.BindPFlag("log_format", f.Lookup("log-format"))
	_ = v.BindPFlag("metrics_addr", f.Lookup("metrics-addr"))
}

// Load wires environment lookups and reads configFile when given.
// Environment variables are the upper-cased keys (TEST_SCENARIO, TRC_URL, ...).
func Load(v *viper.Viper, configFile string) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Keys without a default or flag are invisible to AutomaticEnv on Unmarshal.
	for _, k := range []string{"username", "password"} {
		_ = v.BindEnv(k)
	}

	if configFile == "" {
		return nil
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %q: %w", configFile, err)
	}
	return nil
}

// FromViper resolves Settings. Missing tracking and batch ids are
// generated so every run reports under a unique pair.
func FromViper(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Scenario:         Scenario(strings.ToLower(v.GetString("test_scenario"))),
		Broker:           v.GetString("broker"),
		BrokerURLs:       splitList(v.GetString("broker_url")),
		ClientID:         v.GetString("client_id"),
		Username:         v.GetString("username"),
		Password:         v.GetString("password"),
		TopicSuffix:      v.GetString("topic_suffix"),
		TrackingID:       v.GetString("tracking_id"),
		BatchID:          v.GetString("batch_id"),
		TRCURL:           v.GetString("trc_url"),
		MessageFrequency: v.GetDuration("message_frequency"),
		MessageSize:      v.GetInt("message_size"),
		MessageCount:     v.GetUint32("message_count"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
		MetricsAddr:      v.GetString("metrics_addr"),
	}
	if s.TrackingID == "" {
		s.TrackingID = uuid.NewString()
	}
	if s.BatchID == "" {
		s.BatchID = uuid.NewString()
	}
	if s.ClientID == "" {
		s.ClientID = fmt.Sprintf("mqtttester-%s-%s", s.Scenario, s.TopicSuffix)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

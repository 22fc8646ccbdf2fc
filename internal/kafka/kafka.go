package kafka

import (
	"context"
	"fmt"
	"strings"
)

// Topics names every topic the system uses. The four saga topics carry
// participant commands and events; the relay topics feed the
// ingest/transform/dispatch pipeline.
type Topics struct {
	InventoryCommands string `yaml:"inventory_commands"`
	InventoryEvents   string `yaml:"inventory_events"`
	CustomerCommands  string `yaml:"customer_commands"`
	CustomerEvents    string `yaml:"customer_events"`

	RelayIngest   string `yaml:"relay_ingest"`
	RelayDispatch string `yaml:"relay_dispatch"`
	RelayDLQ      string `yaml:"relay_dlq"`
}

type Config struct {
	Brokers  []string `yaml:"brokers"`
	ClientID string   `yaml:"client_id"`
	Topics   Topics   `yaml:"topics"`
}

func (c Config) ValidateBrokers() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	return nil
}

// ValidateSaga checks the topics the orchestrator and participants need.
func (c Config) ValidateSaga() error {
	if err := c.ValidateBrokers(); err != nil {
		return err
	}
	for name, topic := range map[string]string{
		"kafka.topics.inventory_commands": c.Topics.InventoryCommands,
		"kafka.topics.inventory_events":   c.Topics.InventoryEvents,
		"kafka.topics.customer_commands":  c.Topics.CustomerCommands,
		"kafka.topics.customer_events":    c.Topics.CustomerEvents,
	} {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}

// ValidateRelay checks the topics the relay pipeline needs.
func (c Config) ValidateRelay() error {
	if err := c.ValidateBrokers(); err != nil {
		return err
	}
	for name, topic := range map[string]string{
		"kafka.topics.relay_ingest":   c.Topics.RelayIngest,
		"kafka.topics.relay_dispatch": c.Topics.RelayDispatch,
		"kafka.topics.relay_dlq":      c.Topics.RelayDLQ,
	} {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}

type Message struct {
	Key   string
	Value []byte
}

type Producer interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

type Consumer interface {
	Poll(ctx context.Context) (Message, error)
	Commit(ctx context.Context, msg Message) error
	Close() error
}

type NoopProducer struct{}

func (p *NoopProducer) Publish(ctx context.Context, topic string, msg Message) error {
	return nil
}

// Package kafkaconsumer evicts cached layer state when the geodata
// pipeline publishes invalidation events.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/deltakaart/atlas/internal/invalidation"
	"github.com/deltakaart/atlas/internal/observability"
	"github.com/deltakaart/atlas/internal/styles"
)

// LayerInvalidator evicts a cached id -> filename resolution.
type LayerInvalidator interface {
	Invalidate(id string)
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	layers LayerInvalidator
	styles styles.Store
}

// New builds a consumer. styleStore may be nil when style cleanup on
// delete is not wanted.
func New(cfg Config, logger *slog.Logger, layers LayerInvalidator, styleStore styles.Store) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{cfg: cfg, logger: logger, layers: layers, styles: styleStore}
}

// Start joins the consumer group and processes events until ctx ends.
func (c *Consumer) Start(ctx context.Context) error {
	if c.layers == nil {
		return errors.New("kafkaconsumer: layer invalidator is required")
	}
	if len(c.cfg.Brokers) == 0 {
		return errors.New("kafkaconsumer: brokers are required")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("layer invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("layer invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				observability.IncConsumerError("consume")
				c.logger.Error("consumer error", "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single invalidation message. Malformed messages
// are counted and dropped; only infrastructure failures return an error.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncConsumerError("decode")
		c.logger.Error("invalidation event decode failed",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		observability.IncConsumerError("validate")
		c.logger.Error("invalidation event rejected",
			"layer", ev.Layer, "op", ev.Op, "err", err)
		return nil
	}

	c.layers.Invalidate(ev.Layer)

	if ev.Op == "delete" && c.styles != nil {
		if err := c.styles.Delete(ctx, ev.Layer); err != nil && !errors.Is(err, styles.ErrNotFound) {
			observability.IncConsumerError("style_delete")
			c.logger.Error("style cleanup failed", "layer", ev.Layer, "err", err)
		}
	}

	c.logger.Debug("layer invalidated", "layer", ev.Layer, "op", ev.Op, "source", ev.Source)
	return nil
}

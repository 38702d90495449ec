package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaOptions 是点击事件 topic 的连接参数，生产和消费共用。
type KafkaOptions struct {
	Brokers []string
	Topic   string
	GroupID string // 默认 click-stats-consumer
}

func encodeClick(e ClickEvent) (kafka.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	// 同一短链落在同一分区，消费端按到达顺序累计
	return kafka.Message{Key: []byte(e.ShortID), Value: data}, nil
}

func decodeClicks(msgs []kafka.Message) []ClickEvent {
	events := make([]ClickEvent, 0, len(msgs))
	for _, m := range msgs {
		var e ClickEvent
		if err := json.Unmarshal(m.Value, &e); err != nil || e.ShortID == "" {
			slog.Warn("kafka: skipping malformed click", "offset", m.Offset, "partition", m.Partition, "err", err)
			continue
		}
		events = append(events, e)
	}
	return events
}

// KafkaCollector 异步写 Kafka；写失败只能在 Completion 回调里看到。
type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(opts KafkaOptions) *KafkaCollector {
	return &KafkaCollector{writer: &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				slog.Error("kafka: click batch not delivered", "err", err, "count", len(msgs))
			}
		},
	}}
}

func (k *KafkaCollector) Collect(event ClickEvent) {
	msg, err := encodeClick(event)
	if err != nil {
		slog.Error("kafka: marshal click failed", "err", err)
		return
	}
	if err := k.writer.WriteMessages(context.Background(), msg); err != nil {
		slog.Error("kafka: enqueue click failed", "err", err)
	}
}

func (k *KafkaCollector) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("kafka writer close failed", "err", err)
	}
}

// messageReader 是 KafkaConsumer 用到的 *kafka.Reader 方法。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const maxRetryWait = 30 * time.Second

// KafkaConsumer 攒批写入 Sink，写成功后才提交 offset。
// Sink 失败时原批次退避重试，期间不再取新消息，offset 不会越过未落库的消息。
type KafkaConsumer struct {
	reader    messageReader
	batcher   batcher
	retryWait time.Duration
}

func NewKafkaConsumer(opts KafkaOptions, sink Sink) *KafkaConsumer {
	group := opts.GroupID
	if group == "" {
		group = "click-stats-consumer"
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  opts.Brokers,
		Topic:    opts.Topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newKafkaConsumer(reader, sink)
}

func newKafkaConsumer(r messageReader, sink Sink) *KafkaConsumer {
	return &KafkaConsumer{
		reader:    r,
		batcher:   batcher{sink: sink, size: 100, interval: time.Second, name: "kafka consumer"},
		retryWait: 500 * time.Millisecond,
	}
}

func (k *KafkaConsumer) Run(ctx context.Context) {
	msgs := make(chan kafka.Message, k.batcher.size)
	go func() {
		defer close(msgs)
		for {
			m, err := k.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("kafka fetch failed", "err", err)
				time.Sleep(time.Second)
				continue
			}
			select {
			case msgs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	pending := make([]kafka.Message, 0, k.batcher.size)
	ticker := time.NewTicker(k.batcher.interval)
	defer ticker.Stop()
	for {
		select {
		case m, ok := <-msgs:
			if !ok {
				k.commit(ctx, pending)
				return
			}
			pending = append(pending, m)
			if len(pending) >= k.batcher.size {
				pending = k.commit(ctx, pending)
			}
		case <-ticker.C:
			pending = k.commit(ctx, pending)
		}
	}
}

// commit 写 Sink 直到成功再提交 offset，返回清空后的 pending。
// ctx 结束时放弃这批且不提交，重启后由 Kafka 重新投递。
func (k *KafkaConsumer) commit(ctx context.Context, pending []kafka.Message) []kafka.Message {
	if len(pending) == 0 {
		return pending
	}
	events := decodeClicks(pending)
	wait := k.retryWait
	for {
		err := k.batcher.flush(events)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			slog.Warn("kafka consumer: batch left uncommitted", "count", len(pending))
			return pending[:0]
		case <-time.After(wait):
		}
		wait = min(wait*2, maxRetryWait)
	}

	commitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.reader.CommitMessages(commitCtx, pending...); err != nil {
		slog.Error("kafka commit failed", "err", err, "count", len(pending))
	}
	return pending[:0]
}

func (k *KafkaConsumer) Close() {
	if err := k.reader.Close(); err != nil {
		slog.Error("kafka reader close failed", "err", err)
	}
}

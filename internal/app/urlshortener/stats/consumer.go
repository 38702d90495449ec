package stats

import (
	"context"
	"time"
)

// Consumer 消费 ChannelCollector 的事件并批量写入 Sink。
type Consumer struct {
	collector *ChannelCollector
	batcher   batcher
}

func NewConsumer(sink Sink, collector *ChannelCollector) *Consumer {
	return &Consumer{
		collector: collector,
		batcher: batcher{
			sink:     sink,
			size:     100,         // 批量写入大小
			interval: time.Second, // 最大等待时间
			name:     "click stats",
		},
	}
}

// Run 阻塞直到 ctx 取消或 collector 关闭。
func (c *Consumer) Run(ctx context.Context) {
	c.batcher.run(ctx, c.collector.Events())
}

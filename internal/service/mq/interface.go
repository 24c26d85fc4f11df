package mq

import "context"

// Message 代表一条通用的业务消息
type Message struct {
	ID      string // 消息ID (例如 Redis Stream ID)
	Topic   string // 主题 (例如 "reserve_events_deposit")
	Key     string // 分区键 (例如 DepositID), 同样用于 Kafka Partition
	Payload []byte // 消息体 (JSON)
}

// Producer 生产者接口
// 下游记账系统自行消费，核心只负责投递。
type Producer interface {
	// Publish 发送消息
	// key: 用于分区排序 (Partition Key), 例如记录ID. 传空字符串则随机分区.
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

package xqueue

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// Producer 是主题的写句柄，并发安全。
type Producer struct {
	env   *Env
	topic string
}

// Topic 返回主题名。
func (p *Producer) Topic() string { return p.topic }

// Append 追加一条消息到队尾。
func (p *Producer) Append(payload []byte) error {
	return p.AppendBatch([][]byte{payload})
}

// AppendBatch 在一个事务内按顺序追加多条消息，要么全部成功要么全部失败。
func (p *Producer) AppendBatch(payloads [][]byte) error {
	if len(payloads) == 0 {
		return nil
	}
	err := p.env.update(func(root *bbolt.Bucket) error {
		b, err := topicBucket(root, p.topic)
		if err != nil {
			return err
		}
		_, tail, err := readCounters(b)
		if err != nil {
			return err
		}
		msgs := b.Bucket(bucketMsgs)
		if msgs == nil {
			return fmt.Errorf("%w: missing msgs bucket", ErrCorrupt)
		}
		for _, payload := range payloads {
			if payload == nil {
				payload = []byte{}
			}
			if err := msgs.Put(encodeSeq(tail), payload); err != nil {
				return err
			}
			tail++
		}
		return b.Put(keyTail, encodeSeq(tail))
	})
	if err != nil {
		return fmt.Errorf("xqueue: append to %q: %w", p.topic, err)
	}
	return nil
}

// Lag 返回未消费的消息数。
func (p *Producer) Lag() (uint64, error) {
	return lagOf(p.env, p.topic)
}

func lagOf(env *Env, topic string) (uint64, error) {
	var lag uint64
	err := env.view(func(root *bbolt.Bucket) error {
		b, err := topicBucket(root, topic)
		if err != nil {
			return err
		}
		head, tail, err := readCounters(b)
		if err != nil {
			return err
		}
		lag = tail - head
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("xqueue: lag of %q: %w", topic, err)
	}
	return lag, nil
}

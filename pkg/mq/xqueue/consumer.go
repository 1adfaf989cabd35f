package xqueue

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// Item 是弹出的一条消息。
type Item struct {
	Seq     uint64
	Payload []byte
}

// Consumer 是主题的读句柄。
type Consumer struct {
	env   *Env
	topic string
}

// Topic 返回主题名。
func (c *Consumer) Topic() string { return c.topic }

// PopFrontN 按追加顺序弹出至多 n 条消息，并从队列中删除。
// 队列为空或 n <= 0 时返回空切片。
func (c *Consumer) PopFrontN(n int) ([]Item, error) {
	if n <= 0 {
		return nil, nil
	}
	var items []Item
	err := c.env.update(func(root *bbolt.Bucket) error {
		b, err := topicBucket(root, c.topic)
		if err != nil {
			return err
		}
		head, tail, err := readCounters(b)
		if err != nil {
			return err
		}
		msgs := b.Bucket(bucketMsgs)
		if msgs == nil {
			return fmt.Errorf("%w: missing msgs bucket", ErrCorrupt)
		}

		count := min(uint64(n), tail-head)
		items = make([]Item, 0, count)
		for range count {
			key := encodeSeq(head)
			v := msgs.Get(key)
			if v == nil {
				return fmt.Errorf("%w: missing message %d", ErrCorrupt, head)
			}
			// bbolt 返回的切片只在事务内有效
			items = append(items, Item{Seq: head, Payload: append([]byte(nil), v...)})
			if err := msgs.Delete(key); err != nil {
				return err
			}
			head++
		}
		return b.Put(keyHead, encodeSeq(head))
	})
	if err != nil {
		return nil, fmt.Errorf("xqueue: pop from %q: %w", c.topic, err)
	}
	return items, nil
}

// Lag 返回未消费的消息数。
func (c *Consumer) Lag() (uint64, error) {
	return lagOf(c.env, c.topic)
}

package xqueue

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.etcd.io/bbolt"
	bolterrors "go.etcd.io/bbolt/errors"

	"github.com/omeyang/xbridge/pkg/util/xfile"
)

var (
	bucketTopics = []byte("topics")
	bucketMsgs   = []byte("msgs")
	keyHead      = []byte("head")
	keyTail      = []byte("tail")
)

// Env 是一个打开的队列数据库，可被多个 goroutine 共享。
type Env struct {
	db     *bbolt.DB
	path   string
	closed atomic.Bool
}

// Open 在 dir 下打开（或创建）队列数据库，目录不存在时自动创建。
func Open(dir string, opts ...Option) (*Env, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrEmptyDir
	}
	o := defaultEnvOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	cleanDir, err := xfile.EnsureDirAll(dir)
	if err != nil {
		return nil, fmt.Errorf("xqueue: prepare data dir: %w", err)
	}
	path := filepath.Join(cleanDir, o.fileName)

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: o.openTimeout, NoSync: o.noSync})
	if err != nil {
		return nil, fmt.Errorf("xqueue: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTopics)
		return err
	}); err != nil {
		return nil, errors.Join(fmt.Errorf("xqueue: init buckets: %w", err), db.Close())
	}

	return &Env{db: db, path: path}, nil
}

// Path 返回数据库文件路径。
func (e *Env) Path() string { return e.path }

// Close 关闭数据库，重复调用返回 ErrClosed。
func (e *Env) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return e.db.Close()
}

// Topics 返回已创建的主题，按字节序排列。
func (e *Env) Topics() ([]string, error) {
	var topics []string
	err := e.view(func(root *bbolt.Bucket) error {
		return root.ForEachBucket(func(k []byte) error {
			topics = append(topics, string(k))
			return nil
		})
	})
	return topics, err
}

// Producer 返回主题的写句柄，主题不存在时创建。
func (e *Env) Producer(topic string) (*Producer, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	err := e.update(func(root *bbolt.Bucket) error {
		b, err := root.CreateBucketIfNotExists([]byte(topic))
		if err != nil {
			return err
		}
		if _, err := b.CreateBucketIfNotExists(bucketMsgs); err != nil {
			return err
		}
		for _, k := range [][]byte{keyHead, keyTail} {
			if b.Get(k) == nil {
				if err := b.Put(k, encodeSeq(0)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("xqueue: create topic %q: %w", topic, err)
	}
	return &Producer{env: e, topic: topic}, nil
}

// Consumer 返回已存在主题的读句柄。
func (e *Env) Consumer(topic string) (*Consumer, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	err := e.view(func(root *bbolt.Bucket) error {
		if root.Bucket([]byte(topic)) == nil {
			return fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Consumer{env: e, topic: topic}, nil
}

func (e *Env) view(fn func(root *bbolt.Bucket) error) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return mapClosed(e.db.View(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(bucketTopics))
	}))
}

func (e *Env) update(fn func(root *bbolt.Bucket) error) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return mapClosed(e.db.Update(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(bucketTopics))
	}))
}

// topicBucket 定位主题 bucket，缺失时返回 ErrUnknownTopic。
func topicBucket(root *bbolt.Bucket, topic string) (*bbolt.Bucket, error) {
	b := root.Bucket([]byte(topic))
	if b == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	return b, nil
}

func mapClosed(err error) error {
	if errors.Is(err, bolterrors.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

func encodeSeq(v uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), v)
}

func readSeq(b *bbolt.Bucket, key []byte) (uint64, error) {
	v := b.Get(key)
	if len(v) != 8 {
		return 0, fmt.Errorf("%w: bad %s counter", ErrCorrupt, key)
	}
	return binary.BigEndian.Uint64(v), nil
}

func readCounters(b *bbolt.Bucket) (head, tail uint64, err error) {
	if head, err = readSeq(b, keyHead); err != nil {
		return 0, 0, err
	}
	if tail, err = readSeq(b, keyTail); err != nil {
		return 0, 0, err
	}
	if tail < head {
		return 0, 0, fmt.Errorf("%w: tail %d < head %d", ErrCorrupt, tail, head)
	}
	return head, tail, nil
}

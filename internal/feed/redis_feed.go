package feed

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

const channelPrefix = "records:"

// redisFeed pushes change signals over redis pub/sub so that every portal
// process sees mutations made by any of them.
type redisFeed struct {
	client *redis.Client
	logger *zap.Logger
	local  *dispatcher

	mu      sync.Mutex
	readers map[domain.RecordKind]*kindReader
	closed  bool
}

type kindReader struct {
	pubsub *redis.PubSub
	done   chan struct{}
	refs   int
}

// NewRedis builds a push feed over the given client.
func NewRedis(client *redis.Client, logger *zap.Logger) Feed {
	return &redisFeed{
		client:  client,
		logger:  logger,
		local:   newDispatcher(),
		readers: make(map[domain.RecordKind]*kindReader),
	}
}

func (f *redisFeed) Subscribe(kind domain.RecordKind, fn func()) func() {
	cancelLocal := f.local.add(kind, fn)
	f.retainReader(kind)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelLocal()
			f.releaseReader(kind)
		})
	}
}

func (f *redisFeed) Publish(ctx context.Context, kind domain.RecordKind) {
	if err := f.client.Publish(ctx, channelPrefix+string(kind), "changed").Err(); err != nil {
		f.logger.Warn("feed publish failed", zap.String("kind", string(kind)), zap.Error(err))
		// Deliver locally anyway so this process stays fresh.
		f.local.dispatch(kind)
	}
}

func (f *redisFeed) Close() {
	f.mu.Lock()
	f.closed = true
	readers := f.readers
	f.readers = make(map[domain.RecordKind]*kindReader)
	f.mu.Unlock()

	for _, reader := range readers {
		_ = reader.pubsub.Close()
		<-reader.done
	}
	f.local.close()
}

// retainReader starts the pub/sub goroutine for the kind on first use.
func (f *redisFeed) retainReader(kind domain.RecordKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if reader, ok := f.readers[kind]; ok {
		reader.refs++
		return
	}

	pubsub := f.client.Subscribe(context.Background(), channelPrefix+string(kind))
	reader := &kindReader{pubsub: pubsub, done: make(chan struct{}), refs: 1}
	f.readers[kind] = reader

	go func() {
		defer close(reader.done)
		for range pubsub.Channel() {
			f.local.dispatch(kind)
		}
	}()
}

func (f *redisFeed) releaseReader(kind domain.RecordKind) {
	f.mu.Lock()
	reader, ok := f.readers[kind]
	if ok {
		reader.refs--
		if reader.refs > 0 {
			f.mu.Unlock()
			return
		}
		delete(f.readers, kind)
	}
	f.mu.Unlock()

	if ok {
		_ = reader.pubsub.Close()
		<-reader.done
	}
}

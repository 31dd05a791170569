package history

import (
	"context"
	"sync"
)

// mockKV はメモリ上の KVStore です。setFunc を指定すると保存前に呼び出されます。
type mockKV struct {
	mu      sync.Mutex
	data    map[string]string
	setFunc func(key, value string) error
	sets    int
	deletes []string
}

func newMockKV() *mockKV {
	return &mockKV{data: map[string]string{}}
}

func (m *mockKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setFunc != nil {
		if err := m.setFunc(key, value); err != nil {
			return err
		}
	}
	m.data[key] = value
	return nil
}

func (m *mockKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	delete(m.data, key)
	return nil
}

// blockingKV は最初の Set をロック外で release まで止める KVStore です。
type blockingKV struct {
	*mockKV
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newBlockingKV(kv *mockKV) *blockingKV {
	return &blockingKV{mockKV: kv, entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingKV) Set(ctx context.Context, key, value string) error {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
	}
	return b.mockKV.Set(ctx, key, value)
}

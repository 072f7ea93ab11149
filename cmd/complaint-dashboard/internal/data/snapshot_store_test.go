package data

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/pkg/monitoring"

	"github.com/fsnotify/fsnotify"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// writeDataset 写入数据文件并设置修改时间
func writeDataset(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestSnapshotStore_Current(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "complaints.csv")
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	writeDataset(t, path, requiredHeader+"3/1/2024 9:15,3/2/2024 9:15,Email,Alice,Resolved\n", base)
	store := NewSnapshotStore(path, fixtureOptions, zap.NewNop())

	var notified atomic.Int32
	store.Subscribe(func(*domain.Table) { notified.Add(1) })

	t.Run("FirstLoad", func(t *testing.T) {
		table, err := store.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
		assert.NoError(t, store.Ping(ctx))
		// 首次加载不通知订阅者
		assert.Equal(t, int32(0), notified.Load())
	})

	t.Run("UnchangedReturnsSameSnapshot", func(t *testing.T) {
		a, err := store.Current(ctx)
		require.NoError(t, err)
		b, err := store.Current(ctx)
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("ReloadsOnChange", func(t *testing.T) {
		before, err := store.Current(ctx)
		require.NoError(t, err)

		writeDataset(t, path, requiredHeader+
			"3/1/2024 9:15,3/2/2024 9:15,Email,Alice,Resolved\n"+
			"3/2/2024 9:15,3/3/2024 9:15,Phone,Bob,In Progress\n", base.Add(time.Hour))

		after, err := store.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, after.Len())
		assert.NotEqual(t, before.Version, after.Version)
		assert.Equal(t, int32(1), notified.Load())
	})

	t.Run("KeepsPreviousOnMalformedChange", func(t *testing.T) {
		writeDataset(t, path, "Origin,Owner\nEmail,Alice\n", base.Add(2*time.Hour))

		table, err := store.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())

		_, err = store.Reload(ctx)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
		assert.Equal(t, int32(1), notified.Load())
	})

	t.Run("KeepsPreviousWhenFileRemoved", func(t *testing.T) {
		require.NoError(t, os.Remove(path))

		table, err := store.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())
	})
}

func TestSnapshotStore_FirstLoadFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingFile", func(t *testing.T) {
		store := NewSnapshotStore(filepath.Join(t.TempDir(), "missing.csv"), fixtureOptions, zap.NewNop())

		_, err := store.Current(ctx)
		assert.ErrorIs(t, err, domain.ErrSnapshotUnavailable)
		assert.ErrorIs(t, store.Ping(ctx), domain.ErrSnapshotUnavailable)
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		writeDataset(t, path, "Origin\nEmail\n", time.Now())
		store := NewSnapshotStore(path, fixtureOptions, zap.NewNop())

		_, err := store.Current(ctx)
		assert.ErrorIs(t, err, domain.ErrSnapshotUnavailable)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})
}

// loadCount 读取快照加载计数
func loadCount(t *testing.T, result string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, monitoring.SnapshotLoadsTotal.WithLabelValues(result).Write(&m))
	return m.GetCounter().GetValue()
}

func TestSnapshotStore_BrokenFileLoadedOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "complaints.csv")
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	writeDataset(t, path, requiredHeader+"3/1/2024 9:15,3/2/2024 9:15,Email,Alice,Resolved\n", base)
	store := NewSnapshotStore(path, fixtureOptions, zap.NewNop())
	previous, err := store.Current(ctx)
	require.NoError(t, err)

	writeDataset(t, path, "Origin,Owner\nEmail,Alice\n", base.Add(time.Hour))

	errorsBefore := loadCount(t, monitoring.ResultError)
	for i := 0; i < 5; i++ {
		table, err := store.Current(ctx)
		require.NoError(t, err)
		assert.Same(t, previous, table)
	}
	assert.Equal(t, errorsBefore+1, loadCount(t, monitoring.ResultError))

	// 显式重新加载不受失败记录影响
	_, err = store.Reload(ctx)
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Equal(t, errorsBefore+2, loadCount(t, monitoring.ResultError))

	// 文件修复后立即生效
	writeDataset(t, path, requiredHeader+
		"3/1/2024 9:15,3/2/2024 9:15,Email,Alice,Resolved\n"+
		"3/2/2024 9:15,3/3/2024 9:15,Phone,Bob,In Progress\n", base.Add(2*time.Hour))
	table, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestSnapshotStore_BrokenFirstLoadLoadedOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bad.csv")
	writeDataset(t, path, "Origin\nEmail\n", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	store := NewSnapshotStore(path, fixtureOptions, zap.NewNop())

	errorsBefore := loadCount(t, monitoring.ResultError)
	for i := 0; i < 3; i++ {
		_, err := store.Current(ctx)
		assert.ErrorIs(t, err, domain.ErrSnapshotUnavailable)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	}
	assert.Equal(t, errorsBefore+1, loadCount(t, monitoring.ResultError))
}

func TestSnapshotStore_ConcurrentCurrentLoadsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "complaints.csv")
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	writeDataset(t, path, requiredHeader+"3/1/2024 9:15,3/2/2024 9:15,Email,Alice,Resolved\n", base)
	store := NewSnapshotStore(path, fixtureOptions, zap.NewNop())
	_, err := store.Current(ctx)
	require.NoError(t, err)

	var notified atomic.Int32
	store.Subscribe(func(*domain.Table) { notified.Add(1) })

	writeDataset(t, path, requiredHeader+
		"3/1/2024 9:15,3/2/2024 9:15,Email,Alice,Resolved\n"+
		"3/2/2024 9:15,3/3/2024 9:15,Phone,Bob,In Progress\n", base.Add(time.Hour))

	successBefore := loadCount(t, monitoring.ResultSuccess)

	var wg sync.WaitGroup
	tables := make([]*domain.Table, 8)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i], _ = store.Current(ctx)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, successBefore+1, loadCount(t, monitoring.ResultSuccess))
	assert.Equal(t, int32(1), notified.Load())
	for _, table := range tables {
		require.NotNil(t, table)
		assert.Same(t, tables[0], table)
	}
}

func TestSnapshotStore_Watch(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "complaints.csv")
	writeDataset(t, path, requiredHeader+"3/1/2024 9:15,3/2/2024 9:15,Email,Alice,Resolved\n", time.Now())

	store := NewSnapshotStore(path, fixtureOptions, zap.NewNop())
	_, err := store.Reload(context.Background())
	require.NoError(t, err)

	reloaded := make(chan *domain.Table, 16)
	store.Subscribe(func(table *domain.Table) {
		select {
		case reloaded <- table:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, 20*time.Millisecond)
	}()

	content := requiredHeader +
		"3/1/2024 9:15,3/2/2024 9:15,Email,Alice,Resolved\n" +
		"3/2/2024 9:15,3/3/2024 9:15,Phone,Bob,In Progress\n"

	// 监听建立前的写入可能丢失，重复写入直到收到通知
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(content), 0o644)
		select {
		case table := <-reloaded:
			return table.Len() == 2
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRelevant(t *testing.T) {
	target, err := filepath.Abs("testdata/cases.csv")
	require.NoError(t, err)

	assert.True(t, relevant(fsnotify.Event{Name: "testdata/cases.csv", Op: fsnotify.Write}, target))
	assert.True(t, relevant(fsnotify.Event{Name: "testdata/cases.csv", Op: fsnotify.Create}, target))
	assert.True(t, relevant(fsnotify.Event{Name: "testdata/cases.csv", Op: fsnotify.Rename}, target))
	assert.False(t, relevant(fsnotify.Event{Name: "testdata/other.csv", Op: fsnotify.Write}, target))
	assert.False(t, relevant(fsnotify.Event{Name: "testdata/cases.csv", Op: fsnotify.Chmod}, target))
}

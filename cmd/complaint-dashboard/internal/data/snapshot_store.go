package data

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/pkg/monitoring"

	"go.uber.org/zap"
)

// SnapshotStore 以文件路径、修改时间、大小为键缓存 CSV 快照
//
// 快照本身只读；重新加载时整体替换指针。
type SnapshotStore struct {
	path   string
	opts   LoadOptions
	logger *zap.Logger

	mu          sync.RWMutex
	table       *domain.Table
	subscribers []func(*domain.Table)

	// failed 最近一次失败加载时的文件状态，文件未变时不再重试
	failed *fileState

	// loadMu 串行化加载
	loadMu sync.Mutex
}

// fileState 文件修改时间与大小
type fileState struct {
	modTime time.Time
	size    int64
	err     error
}

func (f *fileState) matches(info os.FileInfo) bool {
	return f != nil && f.modTime.Equal(info.ModTime()) && f.size == info.Size()
}

func tableMatches(table *domain.Table, info os.FileInfo) bool {
	return table != nil && table.ModTime.Equal(info.ModTime()) && table.Size == info.Size()
}

// NewSnapshotStore 创建快照存储（不立即加载）
func NewSnapshotStore(path string, opts LoadOptions, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		path:   path,
		opts:   opts,
		logger: logger.With(zap.String("module", "snapshot-store"), zap.String("path", path)),
	}
}

// Path 数据文件路径
func (s *SnapshotStore) Path() string {
	return s.path
}

// Current 返回当前快照；文件有变化时先重新加载
//
// 重新加载失败时继续返回旧快照；从未成功加载过则返回错误。
func (s *SnapshotStore) Current(ctx context.Context) (*domain.Table, error) {
	table := s.snapshot()

	info, err := os.Stat(s.path)
	if err != nil {
		if table != nil {
			s.logger.Warn("Failed to stat dataset, serving previous snapshot", zap.Error(err))
			return table, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSnapshotUnavailable, err)
	}

	if tableMatches(table, info) {
		return table, nil
	}

	reloaded, err := s.load(ctx, false)
	if err != nil {
		if table != nil {
			return table, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSnapshotUnavailable, err)
	}
	return reloaded, nil
}

// Reload 强制重新加载；失败时保留旧快照并返回错误
func (s *SnapshotStore) Reload(ctx context.Context) (*domain.Table, error) {
	return s.load(ctx, true)
}

// Subscribe 注册重新加载成功后的回调
func (s *SnapshotStore) Subscribe(fn func(*domain.Table)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Ping 就绪检查：是否持有可用快照
func (s *SnapshotStore) Ping(ctx context.Context) error {
	if s.snapshot() == nil {
		return domain.ErrSnapshotUnavailable
	}
	return nil
}

func (s *SnapshotStore) snapshot() *domain.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// load 加载数据文件；force 为 false 时，文件与当前快照或上次失败时一致则跳过
func (s *SnapshotStore) load(ctx context.Context, force bool) (*domain.Table, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	info, statErr := os.Stat(s.path)
	if !force && statErr == nil {
		s.mu.RLock()
		current, failed := s.table, s.failed
		s.mu.RUnlock()

		if tableMatches(current, info) {
			return current, nil
		}
		if failed.matches(info) {
			return nil, failed.err
		}
	}

	start := time.Now()
	table, err := LoadCSV(ctx, s.path, s.opts)
	if err != nil {
		monitoring.SnapshotLoadsTotal.WithLabelValues(monitoring.ResultError).Inc()
		s.logger.Error("Failed to load snapshot", zap.Error(err))
		if statErr == nil {
			s.mu.Lock()
			s.failed = &fileState{modTime: info.ModTime(), size: info.Size(), err: err}
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	previous := s.table
	s.table = table
	s.failed = nil
	subscribers := make([]func(*domain.Table), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	monitoring.SnapshotLoadsTotal.WithLabelValues(monitoring.ResultSuccess).Inc()
	monitoring.SnapshotRows.Set(float64(table.Len()))

	s.logger.Info("Snapshot loaded",
		zap.String("version", table.Version),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns)),
		zap.Duration("duration", time.Since(start)),
	)

	if previous != nil {
		for _, fn := range subscribers {
			fn(table)
		}
	}
	return table, nil
}

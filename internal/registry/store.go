package registry

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Source nguồn dữ liệu registry
type Source interface {
	Load(ctx context.Context) (*Table, error)
	Fetch(ctx context.Context) (*Table, error)
}

// StoreStats thống kê bảng đang dùng
type StoreStats struct {
	Loaded   bool      `json:"loaded"`
	Entries  int       `json:"entries"`
	Listed   int       `json:"listed"`
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Reloads  int64     `json:"reloads"`
}

// Store giữ Table hiện tại. Load tối đa một lần thành công; các caller
// đồng thời lần đầu dùng chung một lần load. Reload thay Table nguyên khối.
type Store struct {
	source   Source
	table    atomic.Pointer[Table]
	loadedAt atomic.Int64
	reloads  atomic.Int64
	group    singleflight.Group
	logger   *zap.Logger
}

// NewStore tạo mới Store
func NewStore(source Source, logger *zap.Logger) *Store {
	return &Store{source: source, logger: logger}
}

// Table trả về bảng hiện tại, load lần đầu nếu cần
func (s *Store) Table(ctx context.Context) (*Table, error) {
	if t := s.table.Load(); t != nil {
		return t, nil
	}

	// Lần load dùng chung không bị hủy theo request của caller đầu tiên;
	// Loader tự giới hạn thời gian tải từ DART.
	loadCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do("load", func() (interface{}, error) {
		if t := s.table.Load(); t != nil {
			return t, nil
		}
		t, err := s.source.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		s.swap(t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Dùng chung kết quả load registry")
	}
	return v.(*Table), nil
}

// Reload tải lại từ upstream và thay bảng hiện tại. Bảng cũ giữ nguyên nếu lỗi.
func (s *Store) Reload(ctx context.Context) (*Table, error) {
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("reload", func() (interface{}, error) {
		t, err := s.source.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		old := s.table.Load()
		s.swap(t)
		s.reloads.Add(1)
		s.logger.Info("Đã reload registry",
			zap.String("old_version", old.Version()),
			zap.String("new_version", t.Version()),
			zap.Int("entries", t.Len()))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Current bảng hiện tại, nil nếu chưa load
func (s *Store) Current() *Table {
	return s.table.Load()
}

// Stats thống kê
func (s *Store) Stats() StoreStats {
	t := s.table.Load()
	st := StoreStats{
		Loaded:  t != nil,
		Entries: t.Len(),
		Listed:  t.ListedCount(),
		Version: t.Version(),
		Reloads: s.reloads.Load(),
	}
	if ts := s.loadedAt.Load(); ts > 0 {
		st.LoadedAt = time.Unix(0, ts)
	}
	return st
}

func (s *Store) swap(t *Table) {
	s.table.Store(t)
	s.loadedAt.Store(time.Now().UnixNano())
}

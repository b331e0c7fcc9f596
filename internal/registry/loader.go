package registry

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/corp-resolver/internal/errs"
	"go.uber.org/zap"
)

// DefaultBaseURL endpoint OpenDART
const DefaultBaseURL = "https://opendart.fss.or.kr/api"

// LoaderConfig cấu hình Loader
type LoaderConfig struct {
	BaseURL      string
	APIKey       string
	SnapshotPath string
	Timeout      time.Duration
}

// Loader load registry từ snapshot CSV, hoặc tải từ DART khi chưa có snapshot
type Loader struct {
	config LoaderConfig
	client *http.Client
	logger *zap.Logger
}

// NewLoader tạo mới Loader với http.Client dùng chung
func NewLoader(config LoaderConfig, client *http.Client, logger *zap.Logger) *Loader {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		config: config,
		client: client,
		logger: logger,
	}
}

// HasSnapshot kiểm tra file snapshot có tồn tại không
func (l *Loader) HasSnapshot() bool {
	if l.config.SnapshotPath == "" {
		return false
	}
	st, err := os.Stat(l.config.SnapshotPath)
	return err == nil && !st.IsDir()
}

// CheckConfig trả về ConfigError khi không có API key và cũng không có snapshot
func (l *Loader) CheckConfig() error {
	if l.config.APIKey == "" && !l.HasSnapshot() {
		return errs.NewConfigError("dart.api_key", "không có API key và không có snapshot "+l.config.SnapshotPath)
	}
	return nil
}

// Load đọc snapshot nếu có, nếu không thì tải từ DART
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	if l.config.SnapshotPath != "" {
		entries, err := ReadSnapshot(l.config.SnapshotPath)
		switch {
		case err == nil:
			l.logger.Info("Đã load registry từ snapshot",
				zap.String("path", l.config.SnapshotPath),
				zap.Int("entries", len(entries)))
			return NewTable(entries), nil
		case errors.Is(err, fs.ErrNotExist):
			l.logger.Info("Chưa có snapshot, tải registry từ DART", zap.String("path", l.config.SnapshotPath))
		default:
			if l.config.APIKey == "" {
				return nil, errs.Upstream("read snapshot", err)
			}
			l.logger.Warn("Snapshot lỗi, tải lại từ DART", zap.Error(err))
		}
	}

	return l.Fetch(ctx)
}

// Fetch luôn tải từ DART và ghi lại snapshot. Không retry.
func (l *Loader) Fetch(ctx context.Context) (*Table, error) {
	if l.config.APIKey == "" {
		return nil, errs.NewConfigError("dart.api_key", "cần API key để tải registry")
	}

	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	start := time.Now()
	entries, err := fetchCorpCodes(ctx, l.client, l.config.BaseURL, l.config.APIKey)
	if err != nil {
		l.logger.Error("Lỗi tải registry từ DART", zap.Error(err))
		return nil, err
	}

	l.logger.Info("Đã tải registry từ DART",
		zap.Int("entries", len(entries)),
		zap.Duration("duration", time.Since(start)))

	if l.config.SnapshotPath != "" {
		if err := WriteSnapshot(l.config.SnapshotPath, entries); err != nil {
			l.logger.Warn("Không ghi được snapshot", zap.Error(err), zap.String("path", l.config.SnapshotPath))
		}
	}

	return NewTable(entries), nil
}

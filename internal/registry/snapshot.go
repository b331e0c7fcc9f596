package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var snapshotHeader = []string{"corp_code", "corp_name", "stock_code", "modify_date"}

// ReadSnapshot đọc file snapshot CSV. Cột thiếu hoặc rỗng load thành "".
func ReadSnapshot(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeSnapshot(f)
}

func decodeSnapshot(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("snapshot rỗng, thiếu header")
		}
		return nil, fmt.Errorf("đọc header snapshot: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := cols["corp_code"]; !ok {
		return nil, errors.New("snapshot thiếu cột corp_code")
	}
	if _, ok := cols["corp_name"]; !ok {
		return nil, errors.New("snapshot thiếu cột corp_name")
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("đọc dòng snapshot: %w", err)
		}
		entries = append(entries, Entry{
			Code:       field(rec, "corp_code"),
			Name:       field(rec, "corp_name"),
			StockCode:  field(rec, "stock_code"),
			ModifyDate: field(rec, "modify_date"),
		})
	}

	return entries, nil
}

// WriteSnapshot ghi snapshot qua file tạm rồi rename để không để lại file dở dang
func WriteSnapshot(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tạo thư mục snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".corpcode-*.csv")
	if err != nil {
		return fmt.Errorf("tạo file tạm: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeSnapshot(tmp, entries); err != nil {
		tmp.Close()
		return fmt.Errorf("ghi snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// EncodeSnapshot ghi entries theo định dạng CSV của snapshot
func EncodeSnapshot(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshotHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Code, e.Name, e.StockCode, e.ModifyDate}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

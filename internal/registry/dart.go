package registry

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/corp-resolver/internal/errs"
)

// maxArchiveBytes giới hạn kích thước file ZIP tải về
const maxArchiveBytes = 64 << 20

const corpCodeFile = "CORPCODE.xml"

type corpCodeDocument struct {
	XMLName xml.Name       `xml:"result"`
	List    []corpCodeItem `xml:"list"`
}

type corpCodeItem struct {
	CorpCode   string `xml:"corp_code"`
	CorpName   string `xml:"corp_name"`
	StockCode  string `xml:"stock_code"`
	ModifyDate string `xml:"modify_date"`
}

// dartStatus body lỗi DART trả về thay cho ZIP (key sai, vượt quota...)
type dartStatus struct {
	Status  string `xml:"status"`
	Message string `xml:"message"`
}

// fetchCorpCodes tải corpCode.xml (ZIP) từ DART và parse thành entries
func fetchCorpCodes(ctx context.Context, client *http.Client, baseURL, apiKey string) ([]Entry, error) {
	endpoint, err := url.Parse(strings.TrimRight(baseURL, "/") + "/corpCode.xml")
	if err != nil {
		return nil, errs.Upstream("build request", err)
	}
	q := endpoint.Query()
	q.Set("crtfc_key", apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, errs.Upstream("build request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Upstream("fetch corpCode.xml", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Upstream("fetch corpCode.xml", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes))
	if err != nil {
		return nil, errs.Upstream("read archive", err)
	}

	return parseCorpCodeArchive(body)
}

// parseCorpCodeArchive giải nén ZIP và parse CORPCODE.xml
func parseCorpCodeArchive(body []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		if st, ok := decodeStatus(body); ok {
			return nil, errs.Upstream("open archive", fmt.Errorf("DART status %s: %s", st.Status, st.Message))
		}
		return nil, errs.Upstream("open archive", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, corpCodeFile) {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, errs.Upstream("open archive", errors.New(corpCodeFile+" not found in archive"))
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, errs.Upstream("open "+corpCodeFile, err)
	}
	defer rc.Close()

	var parsed corpCodeDocument
	if err := xml.NewDecoder(rc).Decode(&parsed); err != nil {
		return nil, errs.Upstream("parse "+corpCodeFile, err)
	}

	entries := make([]Entry, 0, len(parsed.List))
	for _, item := range parsed.List {
		entries = append(entries, Entry{
			Code:       strings.TrimSpace(item.CorpCode),
			Name:       strings.TrimSpace(item.CorpName),
			StockCode:  strings.TrimSpace(item.StockCode),
			ModifyDate: strings.TrimSpace(item.ModifyDate),
		})
	}

	return entries, nil
}

func decodeStatus(body []byte) (dartStatus, bool) {
	var st struct {
		XMLName xml.Name `xml:"result"`
		dartStatus
	}
	if err := xml.Unmarshal(body, &st); err != nil || st.Status == "" {
		return dartStatus{}, false
	}
	return st.dartStatus, true
}

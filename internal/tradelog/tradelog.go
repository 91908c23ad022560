// Package tradelog keeps a plain-file journal of submitted orders,
// complementing the sqlite ledger with a grep-friendly audit trail.
package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var mu sync.Mutex

// kst is the exchange's local zone; journal files roll daily on it.
var kst = time.FixedZone("KST", 9*3600)

// Entry is one submitted order.
type Entry struct {
	Time    string  `json:"time"`
	Market  string  `json:"market"`
	Side    string  `json:"side"`
	Amount  float64 `json:"amount,omitempty"` // KRW spent on a buy
	Volume  float64 `json:"volume,omitempty"` // BTC sold on a sell
	Price   float64 `json:"price"`            // best ask at decision time
	OrderID string  `json:"order_id"`
	Reason  string  `json:"reason"`
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	d := t.In(kst).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

// Append writes one entry to today's journal file, creating it as
// needed.
func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(kst)
	e.Time = now.Format("2006-01-02 15:04:05")
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files older than retentionDays and
// removes the originals. Errors on individual files are skipped; a
// missing log dir is not an error.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		compressFile(p, gz)
		return nil
	})
}

func compressFile(src, dst string) {
	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err == nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(src)
		return
	}
	_ = gw.Close()
	_ = out.Close()
}

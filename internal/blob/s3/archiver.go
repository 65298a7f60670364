package s3blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// BlobPutter is the narrow upload surface the archiver needs.
type BlobPutter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// multipartThreshold is the file size above which history uploads switch to
// multipart.
const multipartThreshold int64 = 64 * 1024 * 1024

// Archiver periodically uploads the history log and the statistics snapshot
// to object storage. The local files stay untouched; the uploads are
// point-in-time copies keyed by date, so a lost disk costs at most one
// archive interval of records.
type Archiver struct {
	writer BlobPutter
	dir    string
	log    *slog.Logger
	now    func() time.Time
}

// NewArchiver creates an Archiver reading from the history directory dir.
func NewArchiver(writer BlobPutter, dir string, log *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		dir:    dir,
		log:    log.With(slog.String("component", "archiver")),
		now:    time.Now,
	}
}

// Run uploads on every tick until ctx is cancelled. Upload failures are
// logged and retried on the next tick, never fatal.
func (a *Archiver) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.ArchiveHistory(ctx); err != nil {
				a.log.Warn("history archive failed", slog.Any("error", err))
			}
			if err := a.ArchiveStats(ctx); err != nil {
				a.log.Warn("stats archive failed", slog.Any("error", err))
			}
		}
	}
}

// ArchiveHistory uploads the current history log to
// archive/history/YYYY-MM-DD/arbitrage_history.jsonl. A missing or empty log
// is a no-op.
func (a *Archiver) ArchiveHistory(ctx context.Context) error {
	local := filepath.Join(a.dir, "arbitrage_history.jsonl")
	f, err := os.Open(local)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("s3blob: open history log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("s3blob: stat history log: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	key := a.datedKey("history", "arbitrage_history.jsonl")
	if info.Size() > multipartThreshold {
		err = a.writer.PutMultipart(ctx, key, f, minPartSize)
	} else {
		err = a.writer.Put(ctx, key, f, "application/x-ndjson")
	}
	if err != nil {
		return err
	}

	a.log.Info("history archived",
		slog.String("key", key),
		slog.Int64("bytes", info.Size()))
	return nil
}

// ArchiveStats uploads the statistics snapshot to
// archive/stats/YYYY-MM-DD/arbitrage_stats.json. A missing snapshot is a
// no-op; the snapshot is regenerable from the log anyway.
func (a *Archiver) ArchiveStats(ctx context.Context) error {
	local := filepath.Join(a.dir, "arbitrage_stats.json")
	f, err := os.Open(local)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("s3blob: open stats snapshot: %w", err)
	}
	defer f.Close()

	key := a.datedKey("stats", "arbitrage_stats.json")
	if err := a.writer.Put(ctx, key, f, "application/json"); err != nil {
		return err
	}

	a.log.Info("stats archived", slog.String("key", key))
	return nil
}

// datedKey builds the S3 key for an archive file, partitioned by day.
//
//	archive/history/2026-08-31/arbitrage_history.jsonl
//	archive/stats/2026-08-31/arbitrage_stats.json
func (a *Archiver) datedKey(kind, name string) string {
	return fmt.Sprintf("archive/%s/%s/%s", kind, a.now().UTC().Format("2006-01-02"), name)
}

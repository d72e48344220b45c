package textfile

import (
	"context"
	"os"
	"path/filepath"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
)

const DefaultPath = "h2h_results.txt"

// Writer renders reports as plain text lines and replaces the file at path
// atomically on every save.
type Writer struct {
	path   string
	logger *logging.Logger
}

var _ report.Writer = (*Writer)(nil)

func NewWriter(path string, logger *logging.Logger) *Writer {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Writer{path: path, logger: logger}
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Save(ctx context.Context, item report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for _, line := range report.FormatReport(item) {
		_, _ = buf.WriteString(line)
		_ = buf.WriteByte('\n')
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".h2h-results-*")
	if err != nil {
		return crerr.Wrapf(err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.B); err != nil {
		_ = tmp.Close()
		cleanup()
		return crerr.Wrap(err, "write results")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return crerr.Wrap(err, "close results")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return crerr.Wrap(err, "chmod results")
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		cleanup()
		return crerr.Wrapf(err, "replace %s", w.path)
	}

	w.logger.InfoContext(ctx, "results saved", "path", w.path, "entries", len(item.Entries))
	return nil
}

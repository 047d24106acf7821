package email

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"bookbliss/internal/types"
)

// ZstdArchiver persists send log entries evicted from the in-memory ring as
// zstd-compressed JSON lines, one file per archiver lifetime. Writes are
// appended and flushed per batch so a crash loses at most the current batch.
type ZstdArchiver struct {
	mu      sync.Mutex
	file    *os.File
	encoder *zstd.Encoder
	clock   types.Clock
}

// ZstdArchiverConfig holds the configuration for a ZstdArchiver.
type ZstdArchiverConfig struct {
	// Dir is the directory archive files are created in. Created if missing.
	Dir string
	// Clock defaults to the real clock when nil. Used to name the archive.
	Clock types.Clock
}

// NewZstdArchiver creates the archive directory and opens a new archive file
// named by the current UTC time.
func NewZstdArchiver(cfg ZstdArchiverConfig) (*ZstdArchiver, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}

	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	name := fmt.Sprintf("send-log-%s.jsonl.zst", clock.Now().Format("20060102T150405Z"))
	file, err := os.OpenFile(filepath.Join(cfg.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening archive file: %w", err)
	}

	encoder, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("creating zstd writer: %w", err)
	}

	return &ZstdArchiver{
		file:    file,
		encoder: encoder,
		clock:   clock,
	}, nil
}

// Archive appends the entries to the compressed archive as JSON lines and
// flushes the compressor so the batch is recoverable.
func (a *ZstdArchiver) Archive(entries []LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.encoder == nil {
		return fmt.Errorf("archiver is closed")
	}

	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encoding archive entry: %w", err)
		}
		line = append(line, '\n')
		if _, err := a.encoder.Write(line); err != nil {
			return fmt.Errorf("writing archive entry: %w", err)
		}
	}

	if err := a.encoder.Flush(); err != nil {
		return fmt.Errorf("flushing archive: %w", err)
	}
	return nil
}

// Close finalizes the compressed stream and closes the archive file.
func (a *ZstdArchiver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.encoder == nil {
		return nil
	}
	encErr := a.encoder.Close()
	a.encoder = nil
	fileErr := a.file.Close()
	if encErr != nil {
		return fmt.Errorf("closing zstd stream: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("closing archive file: %w", fileErr)
	}
	return nil
}

// Compile-time assertion that ZstdArchiver satisfies EntrySink.
var _ EntrySink = (*ZstdArchiver)(nil)

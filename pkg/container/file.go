package container

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/avrokit/pkg/schema"
	"github.com/ssargent/avrokit/pkg/value"
)

// FileConfig configures a FileWriter.
type FileConfig struct {
	FilePath   string
	BufferSize int // bufio buffer in front of the file, 0 for the bufio default

	// FsyncInterval is how long after a flushed block the file is synced.
	// Zero syncs after every block.
	FsyncInterval time.Duration

	Writer WriterConfig
}

// FileWriter writes a container to a file. Unlike Writer it is safe for
// concurrent use.
type FileWriter struct {
	file       *os.File
	buf        *bufio.Writer
	w          *Writer
	fsyncTimer *time.Timer
	config     FileConfig
	mutex      sync.Mutex
}

// CreateFile creates or truncates config.FilePath, creating parent
// directories as needed, and writes the container header.
func CreateFile(s *schema.Schema, config FileConfig) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}

	buf := bufio.NewWriter(file)
	if config.BufferSize > 0 {
		buf = bufio.NewWriterSize(file, config.BufferSize)
	}

	w, err := NewStreamWriter(buf, s, config.Writer)
	if err != nil {
		file.Close()
		return nil, err
	}

	fw := &FileWriter{
		file:   file,
		buf:    buf,
		w:      w,
		config: config,
	}

	if config.FsyncInterval > 0 {
		fw.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			fw.mutex.Lock()
			defer fw.mutex.Unlock()
			fw.sync() // nolint:errcheck
		})
	}

	return fw, nil
}

// Append adds one encoded object. See Writer.Append.
func (fw *FileWriter) Append(encoded []byte) (int, error) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	blocks := fw.w.Blocks()
	n, err := fw.w.Append(encoded)
	if err != nil {
		return n, err
	}
	if fw.w.Blocks() != blocks {
		return n, fw.afterFlush()
	}
	return n, nil
}

// AppendValue encodes and adds one object. See Writer.AppendValue.
func (fw *FileWriter) AppendValue(v *value.Value) (int, error) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	blocks := fw.w.Blocks()
	n, err := fw.w.AppendValue(v)
	if err != nil {
		return n, err
	}
	if fw.w.Blocks() != blocks {
		return n, fw.afterFlush()
	}
	return n, nil
}

// Flush writes pending objects as a block.
func (fw *FileWriter) Flush() (int, error) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	n, err := fw.w.Flush()
	if err != nil || n == 0 {
		return n, err
	}
	return n, fw.afterFlush()
}

func (fw *FileWriter) afterFlush() error {
	if fw.config.FsyncInterval == 0 {
		return fw.sync()
	}
	if fw.fsyncTimer != nil {
		fw.fsyncTimer.Reset(fw.config.FsyncInterval)
	}
	return nil
}

// Sync flushes buffered bytes of written blocks and fsyncs the file.
// Pending objects are not flushed.
func (fw *FileWriter) Sync() error {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	return fw.sync()
}

func (fw *FileWriter) sync() error {
	if err := fw.buf.Flush(); err != nil {
		return err
	}
	return fw.file.Sync()
}

// Close flushes pending objects, syncs and closes the file.
func (fw *FileWriter) Close() error {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	if fw.fsyncTimer != nil {
		fw.fsyncTimer.Stop()
	}

	if err := fw.w.Close(); err != nil {
		fw.file.Close()
		return err
	}
	if err := fw.sync(); err != nil {
		fw.file.Close()
		return err
	}
	return fw.file.Close()
}

// Size returns the container size in bytes, excluding pending objects.
func (fw *FileWriter) Size() int64 {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	return fw.w.Size()
}

// Path returns the file path.
func (fw *FileWriter) Path() string {
	return fw.config.FilePath
}

// SyncMarker returns the marker written after every block.
func (fw *FileWriter) SyncMarker() SyncMarker {
	return fw.w.SyncMarker()
}

// OpenFile reads the container at path and returns a Reader over it.
func OpenFile(path string, expected *schema.Schema, config ReaderConfig) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(data, expected, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ReadFrom reads a whole container from src and returns a Reader over it.
func ReadFrom(src io.Reader, expected *schema.Schema, config ReaderConfig) (*Reader, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return NewReader(data, expected, config)
}

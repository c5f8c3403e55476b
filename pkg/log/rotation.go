// Log file output with size-based rotation
//
// Rotated files are shifted through numbered suffixes: emulator.log
// becomes emulator.log.1, the previous .1 becomes .2 and so on up to
// MaxBackups. Backups may optionally be gzip-compressed.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// Filename is the path to the log file.
	Filename string

	// MaxSize is the size in bytes that triggers rotation.
	// Default is 10 MiB.
	MaxSize int64

	// MaxBackups is the number of rotated files to retain.
	// Default is 3.
	MaxBackups int

	// Compress gzips rotated files.
	Compress bool
}

// RotatingFileWriter is an io.Writer that rotates its file by size.
type RotatingFileWriter struct {
	mu   sync.Mutex
	cfg  RotationConfig
	file *os.File
	size int64
}

// NewRotatingFileWriter opens (or creates) cfg.Filename for appending.
func NewRotatingFileWriter(cfg RotationConfig) (*RotatingFileWriter, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("log filename is required")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10 << 20
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	w := &RotatingFileWriter{cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.cfg.Filename), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(w.cfg.Filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.cfg.MaxSize {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %w", err)
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingFileWriter) backupName(i int) string {
	name := fmt.Sprintf("%s.%d", w.cfg.Filename, i)
	if w.cfg.Compress {
		name += ".gz"
	}
	return name
}

// rotate must be called with w.mu held.
func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	os.Remove(w.backupName(w.cfg.MaxBackups))
	for i := w.cfg.MaxBackups - 1; i >= 1; i-- {
		os.Rename(w.backupName(i), w.backupName(i+1))
	}

	if w.cfg.Compress {
		if err := gzipFile(w.cfg.Filename, w.backupName(1)); err != nil {
			return err
		}
		os.Remove(w.cfg.Filename)
	} else if err := os.Rename(w.cfg.Filename, w.backupName(1)); err != nil {
		w.open()
		return err
	}
	return w.open()
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Size returns the number of bytes in the current file.
func (w *RotatingFileWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Filename returns the active log filename.
func (w *RotatingFileWriter) Filename() string {
	return w.cfg.Filename
}

// Close closes the active file. Further writes fail.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// TeeToFile makes l write to both its current destination (stderr by
// default) and a rotating file. Colors are disabled since they would
// end up in the file.
func TeeToFile(l *Logger, cfg RotationConfig) (*RotatingFileWriter, error) {
	fw, err := NewRotatingFileWriter(cfg)
	if err != nil {
		return nil, err
	}
	l.cfg.mu.Lock()
	l.cfg.writer = io.MultiWriter(l.cfg.writer, fw)
	l.cfg.colorize = false
	l.cfg.mu.Unlock()
	return fw, nil
}

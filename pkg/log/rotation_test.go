// Log rotation tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingFileWriter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "emu.log")

	w, err := NewRotatingFileWriter(RotationConfig{Filename: logFile})
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}
	defer w.Close()

	msg := "loop tick\n"
	n, err := w.Write([]byte(msg))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("expected %d bytes written, got %d", len(msg), n)
	}
	if w.Size() != int64(len(msg)) {
		t.Errorf("expected size %d, got %d", len(msg), w.Size())
	}
	if w.Filename() != logFile {
		t.Errorf("unexpected filename %s", w.Filename())
	}
}

func TestRotatingFileWriterShiftsBackups(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "emu.log")

	w, err := NewRotatingFileWriter(RotationConfig{
		Filename:   logFile,
		MaxSize:    16,
		MaxBackups: 2,
	})
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}
	defer w.Close()

	for _, line := range []string{"first-line-0001\n", "second-line-002\n", "third-line-0003\n", "fourth-line-004\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	cur, _ := os.ReadFile(logFile)
	if string(cur) != "fourth-line-004\n" {
		t.Errorf("unexpected active file content %q", cur)
	}
	b1, _ := os.ReadFile(logFile + ".1")
	if string(b1) != "third-line-0003\n" {
		t.Errorf("unexpected .1 content %q", b1)
	}
	b2, _ := os.ReadFile(logFile + ".2")
	if string(b2) != "second-line-002\n" {
		t.Errorf("unexpected .2 content %q", b2)
	}
	if _, err := os.Stat(logFile + ".3"); !os.IsNotExist(err) {
		t.Error("expected at most two backups")
	}
}

func TestRotatingFileWriterCompress(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "emu.log")

	w, err := NewRotatingFileWriter(RotationConfig{
		Filename: logFile,
		MaxSize:  8,
		Compress: true,
	})
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}
	defer w.Close()

	w.Write([]byte("1234567\n"))
	w.Write([]byte("abcdefg\n"))

	f, err := os.Open(logFile + ".1.gz")
	if err != nil {
		t.Fatalf("expected compressed backup: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	data, _ := io.ReadAll(gz)
	if string(data) != "1234567\n" {
		t.Errorf("unexpected backup content %q", data)
	}
}

func TestRotatingFileWriterClosed(t *testing.T) {
	w, err := NewRotatingFileWriter(RotationConfig{Filename: filepath.Join(t.TempDir(), "x.log")})
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	if _, err := w.Write([]byte("late")); err == nil {
		t.Error("expected write after close to fail")
	}
}

func TestTeeToFile(t *testing.T) {
	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "emu.log")

	logger := New("api")
	logger.SetWriter(&console)
	fw, err := TeeToFile(logger, RotationConfig{Filename: logFile})
	if err != nil {
		t.Fatalf("tee failed: %v", err)
	}
	defer fw.Close()

	logger.Info("listening on %s", ":8080")

	data, _ := os.ReadFile(logFile)
	if !strings.Contains(string(data), "api: listening on :8080") {
		t.Errorf("file missing message: %q", data)
	}
	if !strings.Contains(console.String(), "listening on :8080") {
		t.Errorf("console missing message: %q", console.String())
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Error("file output must not contain color codes")
	}
}

package loggen

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

const csvBufferSize = 1 << 20

// RecordWriter consumes generated records in generation order
type RecordWriter interface {
	Write(ctx context.Context, rec *LogRecord) error
	Flush(ctx context.Context) error
	Close() error
}

// countingWriter tracks how many bytes reached the file
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// CSVWriter writes records as a header-prefixed CSV file
type CSVWriter struct {
	path    string
	file    *os.File
	counter *countingWriter
	buf     *bufio.Writer
	csv     *csv.Writer
	fields  []string
	rows    int64
	closed  bool
}

// NewCSVWriter creates (or truncates) the file at path and writes the header.
// The parent directory must already exist.
func NewCSVWriter(path string) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	counter := &countingWriter{w: file}
	buf := bufio.NewWriterSize(counter, csvBufferSize)
	w := &CSVWriter{
		path:    path,
		file:    file,
		counter: counter,
		buf:     buf,
		csv:     csv.NewWriter(buf),
		fields:  make([]string, 0, len(CSVHeader)),
	}

	if err := w.csv.Write(CSVHeader); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	return w, nil
}

// Path returns the output file path
func (w *CSVWriter) Path() string {
	return w.path
}

// Rows returns the number of records written, header excluded
func (w *CSVWriter) Rows() int64 {
	return w.rows
}

// BytesWritten returns the number of bytes flushed to the file so far
func (w *CSVWriter) BytesWritten() int64 {
	return w.counter.n
}

// Write appends one record
func (w *CSVWriter) Write(_ context.Context, rec *LogRecord) error {
	w.fields = rec.appendCSVFields(w.fields[:0])
	if err := w.csv.Write(w.fields); err != nil {
		return fmt.Errorf("failed to write record to %s: %w", w.path, err)
	}
	w.rows++
	return nil
}

// Flush pushes buffered rows to the file
func (w *CSVWriter) Flush(_ context.Context) error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", w.path, err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", w.path, err)
	}
	return nil
}

// Close flushes and closes the file. Calling Close twice is a no-op.
func (w *CSVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.Flush(context.Background())
	closeErr := w.file.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("failed to close %s: %w", w.path, closeErr)
	}
	return errors.Join(flushErr, closeErr)
}

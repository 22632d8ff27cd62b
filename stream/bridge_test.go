package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

type trackingCloser struct {
	io.Reader
	closes int
}

func (c *trackingCloser) Close() error {
	c.closes++
	return nil
}

func TestFromReaderChunks(t *testing.T) {
	src := &trackingCloser{Reader: strings.NewReader("hello world")}
	s := FromReader(src, nil, WithChunkSize(4))

	chunks, err := Collect(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Errorf("expected 3 chunks of at most 4 bytes, got %d", len(chunks))
	}
	if got := string(bytes.Join(chunks, nil)); got != "hello world" {
		t.Errorf("got %q", got)
	}
	if src.closes != 1 {
		t.Errorf("expected reader closed once, got %d", src.closes)
	}

	// Not restartable: a second run sees nothing.
	again, err := Collect(context.Background(), s)
	if err != nil || len(again) != 0 {
		t.Errorf("expected empty second iteration, got %v %v", again, err)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }
func (r failingReader) Close() error             { return nil }

func TestFromReaderMapsErrors(t *testing.T) {
	raw := errors.New("disk on fire")
	mapped := errors.New("classified")
	s := FromReader(failingReader{err: raw}, func(err error) error {
		if err != raw {
			t.Errorf("onError got %v", err)
		}
		return mapped
	})
	if _, err := Collect(context.Background(), s); err != mapped {
		t.Errorf("expected mapped error, got %v", err)
	}
}

func TestFromReaderCancel(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := FromReader(r, nil)
	done := make(chan error, 1)
	go func() {
		_, err := Collect(ctx, s)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked read was not interrupted by cancellation")
	}
}

type recordingWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closes int
	failAt int
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failAt > 0 && w.buf.Len()+len(p) > w.failAt {
		return 0, errors.New("write failed")
	}
	return w.buf.Write(p)
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closes++
	return nil
}

func TestWriterSinkCompletes(t *testing.T) {
	w := &recordingWriter{}
	sink := ToWriter(w, nil)
	err := sink.Consume(context.Background(), FromValues([]byte("ab"), []byte("cd")))
	if err != nil {
		t.Fatal(err)
	}
	if w.buf.String() != "abcd" {
		t.Errorf("got %q", w.buf.String())
	}
	if w.closes != 1 {
		t.Errorf("expected one close, got %d", w.closes)
	}
	_ = sink.Close()
	if w.closes != 1 {
		t.Errorf("expected close to stay idempotent, got %d", w.closes)
	}
}

func TestWriterSinkUpstreamFailure(t *testing.T) {
	w := &recordingWriter{}
	boom := errors.New("upstream")
	err := ToWriter(w, nil).Consume(context.Background(), Concat(FromValues([]byte("x")), Fail[[]byte](boom)))
	if !errors.Is(err, boom) {
		t.Errorf("expected upstream error, got %v", err)
	}
	if w.closes != 1 {
		t.Errorf("expected writer closed on failure, got %d", w.closes)
	}
}

func TestWriterSinkWriteFailureIsMapped(t *testing.T) {
	w := &recordingWriter{failAt: 1}
	mapped := errors.New("mapped")
	err := ToWriter(w, func(error) error { return mapped }).Consume(context.Background(), FromString("too long"))
	if err != mapped {
		t.Errorf("expected mapped write error, got %v", err)
	}
	if w.closes != 1 {
		t.Errorf("expected writer closed, got %d", w.closes)
	}
}

func TestWriterSinkCancelClosesWriter(t *testing.T) {
	w := &recordingWriter{}
	ctx, cancel := context.WithCancel(context.Background())
	blocked := FromFunc(func(ctx context.Context) Iterator[[]byte] {
		return &blockingIter{}
	})

	done := make(chan error, 1)
	go func() { done <- ToWriter(w, nil).Consume(ctx, blocked) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not return after cancellation")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closes != 1 {
		t.Errorf("expected exactly one close, got %d", w.closes)
	}
}

type blockingIter struct{}

func (blockingIter) Next(ctx context.Context) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}
func (blockingIter) Close() error { return nil }

func TestNewReaderRoundTrip(t *testing.T) {
	r := NewReader(context.Background(), FromValues([]byte("ab"), []byte("cde")))
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abcde" {
		t.Errorf("got %q", got)
	}
}

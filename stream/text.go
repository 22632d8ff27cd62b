package stream

import (
	"context"
	"strings"
	"unicode/utf8"
)

// FromString returns a single-chunk byte stream holding text.
func FromString(text string) *Stream[[]byte] {
	return FromValues([]byte(text))
}

// DecodeText decodes a UTF-8 byte stream into strings. Multi-byte runes
// split across chunks are reassembled.
func DecodeText(s *Stream[[]byte]) *Stream[string] {
	return &Stream[string]{
		create: func(ctx context.Context) Iterator[string] {
			return &decodeIter{source: s.create(ctx)}
		},
	}
}

// SplitLines re-chunks a text stream into lines. "\n", "\r\n" and a lone
// "\r" all terminate a line; terminators are not included. A final line
// without terminator is emitted; an empty trailing line is not.
func SplitLines(s *Stream[string]) *Stream[string] {
	return &Stream[string]{
		create: func(ctx context.Context) Iterator[string] {
			return &linesIter{source: s.create(ctx)}
		},
	}
}

// Lines decodes a byte stream and splits it into lines.
func Lines(s *Stream[[]byte]) *Stream[string] {
	return SplitLines(DecodeText(s))
}

// Text collects a byte stream into a string.
func Text(ctx context.Context, s *Stream[[]byte]) (string, error) {
	var b strings.Builder
	err := ForEach(ctx, s, func(_ context.Context, chunk []byte) error {
		b.Write(chunk)
		return nil
	})
	return b.String(), err
}

type decodeIter struct {
	source  Iterator[[]byte]
	pending []byte
	done    bool
}

func (it *decodeIter) Next(ctx context.Context) (string, bool, error) {
	for !it.done {
		chunk, ok, err := it.source.Next(ctx)
		if err != nil {
			return "", false, err
		}
		if !ok {
			it.done = true
			break
		}
		data := append(it.pending, chunk...)
		cut := incompleteTail(data)
		it.pending = append([]byte(nil), data[cut:]...)
		if cut > 0 {
			return string(data[:cut]), true, nil
		}
	}
	if len(it.pending) > 0 {
		rest := string(it.pending)
		it.pending = nil
		return rest, true, nil
	}
	return "", false, nil
}

func (it *decodeIter) Close() error { return it.source.Close() }

// incompleteTail returns the index where a trailing partial rune starts, or
// len(data) if data ends on a rune boundary.
func incompleteTail(data []byte) int {
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				return i
			}
			break
		}
	}
	return len(data)
}

type linesIter struct {
	source Iterator[string]
	buf    string
	queue  []string
	done   bool
}

func (it *linesIter) Next(ctx context.Context) (string, bool, error) {
	for len(it.queue) == 0 {
		if it.done {
			return "", false, nil
		}
		chunk, ok, err := it.source.Next(ctx)
		if err != nil {
			return "", false, err
		}
		if !ok {
			it.done = true
			rest := strings.TrimSuffix(it.buf, "\r")
			it.buf = ""
			if rest != "" {
				it.queue = append(it.queue, rest)
			}
			continue
		}
		it.split(it.buf + chunk)
	}
	line := it.queue[0]
	it.queue = it.queue[1:]
	return line, true, nil
}

func (it *linesIter) split(data string) {
	start := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			it.queue = append(it.queue, data[start:i])
			start = i + 1
		case '\r':
			if i+1 == len(data) {
				// Wait for the next chunk to know whether "\n" follows.
				it.buf = data[start:]
				return
			}
			it.queue = append(it.queue, data[start:i])
			if data[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	it.buf = data[start:]
}

func (it *linesIter) Close() error { return it.source.Close() }

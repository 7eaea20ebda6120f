package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ZstdExt is the suffix that marks a zstd-compressed stream.
const ZstdExt = ".zst"

// IsCompressed reports whether p names a zstd-compressed file.
func IsCompressed(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ZstdExt)
}

// TrimCompressedExt returns p without a trailing ".zst".
func TrimCompressedExt(p string) string {
	if IsCompressed(p) {
		return p[:len(p)-len(ZstdExt)]
	}
	return p
}

// ParseZstdLevel converts "fastest", "default", "better" or "best" into a
// zstd encoder level. An empty string selects the default level.
func ParseZstdLevel(s string) (zstd.EncoderLevel, error) {
	if s == "" {
		return zstd.SpeedDefault, nil
	}
	ok, level := zstd.EncoderLevelFromString(s)
	if !ok {
		return 0, fmt.Errorf("invalid zstd level: %s (must be fastest, default, better, or best)", s)
	}
	return level, nil
}

// OpenFile opens p for reading, falling back to a case-insensitive lookup.
// The returned *os.File is seekable.
func OpenFile(p string) (*os.File, error) {
	actual, err := ResolvePath(p)
	if err != nil {
		return nil, err
	}
	return os.Open(actual)
}

// OpenFS opens name in fsys, falling back to a case-insensitive lookup.
func OpenFS(fsys fs.FS, name string) (fs.File, error) {
	actual, err := ResolvePathFS(fsys, name)
	if err != nil {
		return nil, err
	}
	return fsys.Open(actual)
}

// Open opens p for reading. A ".zst" file is decompressed transparently;
// in that case the returned reader is not seekable.
func Open(p string) (io.ReadCloser, error) {
	f, err := OpenFile(p)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(p) {
		return f, nil
	}

	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create zstd decoder for %s: %w", p, err)
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}

// Create creates p for writing. A ".zst" path is compressed at level.
// Close must be called to flush the stream; its error reports whether the
// file was written completely.
func Create(p string, level zstd.EncoderLevel) (io.WriteCloser, error) {
	f, err := os.Create(p)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(p) {
		return f, nil
	}

	enc, err := zstd.NewWriter(f,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(level),
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create zstd encoder for %s: %w", p, err)
	}
	return &zstdWriteCloser{enc: enc, f: f}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

type zstdWriteCloser struct {
	enc *zstd.Encoder
	f   *os.File
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) {
	return z.enc.Write(p)
}

// Close はエンコーダーを閉じて残りを書き出してからファイルを閉じる
func (z *zstdWriteCloser) Close() error {
	return errors.Join(z.enc.Close(), z.f.Close())
}

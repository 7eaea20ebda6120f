package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// rawBMP はテスト用にヘッダーの各フィールドを直接指定してBMPのバイト列を組み立てる
type rawBMP struct {
	signature   [2]byte
	dataOffset  uint32
	infoSize    uint32
	width       int32
	height      int32
	bitCount    uint16
	compression uint32
	gap         []byte // ヘッダーとピクセルデータの間のバイト
	pixels      []byte
}

// validRaw は width x height の正しい24ビットBMPのひな形を返す（ピクセルは0）
func validRaw(width, height int) rawBMP {
	return rawBMP{
		signature:  [2]byte{'B', 'M'},
		dataOffset: 54,
		infoSize:   40,
		width:      int32(width),
		height:     int32(height),
		bitCount:   24,
		pixels:     make([]byte, Stride(width)*height),
	}
}

func (r rawBMP) bytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	le := binary.LittleEndian
	write := func(v any) {
		if err := binary.Write(&buf, le, v); err != nil {
			t.Fatalf("Failed to build BMP: %v", err)
		}
	}

	// ファイルヘッダー (14バイト)
	buf.Write(r.signature[:])
	write(uint32(54 + len(r.gap) + len(r.pixels))) // ファイルサイズ
	write(uint16(0))                               // 予約1
	write(uint16(0))                               // 予約2
	write(r.dataOffset)                            // データオフセット

	// 情報ヘッダー (40バイト)
	write(r.infoSize)
	write(r.width)
	write(r.height)
	write(uint16(1)) // プレーン数
	write(r.bitCount)
	write(r.compression)
	write(uint32(len(r.pixels))) // 画像サイズ
	write(int32(2835))           // 水平解像度
	write(int32(2835))           // 垂直解像度
	write(uint32(0))             // 使用色数
	write(uint32(0))             // 重要な色数

	buf.Write(r.gap)
	buf.Write(r.pixels)
	return buf.Bytes()
}

// onlyReader は io.Seeker を隠す
type onlyReader struct {
	r *bytes.Reader
}

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

// failingWriter は limit バイトを超えた書き込みを失敗させ、呼び出し回数を数える
type failingWriter struct {
	limit   int
	written int
	calls   int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	if f.written+len(p) > f.limit {
		n := f.limit - f.written
		f.written = f.limit
		return n, errDiskFull
	}
	f.written += len(p)
	return len(p), nil
}

var errDiskFull = errors.New("disk full")

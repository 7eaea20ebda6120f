package bmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ヘッダー関連の定数
const (
	FileHeaderSize = 14 // BITMAPFILEHEADER
	InfoHeaderSize = 40 // BITMAPINFOHEADER

	// Signature は "BM" をリトルエンディアンの16ビット値として読んだもの
	Signature uint16 = 0x4D42

	// PixelDataOffset は書き込み時のピクセルデータの位置
	PixelDataOffset = FileHeaderSize + InfoHeaderSize

	// PixelsPerMeter は書き込み時の解像度（約300DPI）
	PixelsPerMeter int32 = 11811

	// ColorsImportant は書き込み時の biClrImportant の値
	// 既存の出力とバイト単位で一致させるため 0 ではなくこの値を書く
	ColorsImportant uint32 = 0x1000000

	bitCount24 = 24
	biRGB      = 0
)

// FileHeader はBMPファイルヘッダー (14バイト)
type FileHeader struct {
	Signature  uint16 // 0x4D42 ("BM")
	FileSize   uint32 // ファイルサイズ
	Reserved1  uint16 // 予約（書き込み時は0、読み込み時は無視）
	Reserved2  uint16 // 予約（書き込み時は0、読み込み時は無視）
	DataOffset uint32 // ファイル先頭からピクセルデータまでのオフセット
}

// InfoHeader はBMP情報ヘッダー (BITMAPINFOHEADER, 40バイト)
type InfoHeader struct {
	Size            uint32 // ヘッダーサイズ (40)
	Width           int32  // 画像の幅
	Height          int32  // 画像の高さ（正ならボトムアップ）
	Planes          uint16 // プレーン数 (常に1)
	BitCount        uint16 // ビット深度 (24)
	Compression     uint32 // 圧縮方式 (0 = BI_RGB)
	ImageSize       uint32 // 画像データサイズ
	XPixelsPerMeter int32  // 水平解像度
	YPixelsPerMeter int32  // 垂直解像度
	ColorsUsed      uint32 // 使用色数
	ColorsImportant uint32 // 重要な色数
}

// フィールドは構造体のレイアウトに頼らず、固定オフセットに1つずつ書き込む

func (h *FileHeader) put(b []byte) {
	le := binary.LittleEndian
	le.PutUint16(b[0:], h.Signature)
	le.PutUint32(b[2:], h.FileSize)
	le.PutUint16(b[6:], h.Reserved1)
	le.PutUint16(b[8:], h.Reserved2)
	le.PutUint32(b[10:], h.DataOffset)
}

func (h *FileHeader) parse(b []byte) {
	le := binary.LittleEndian
	h.Signature = le.Uint16(b[0:])
	h.FileSize = le.Uint32(b[2:])
	h.Reserved1 = le.Uint16(b[6:])
	h.Reserved2 = le.Uint16(b[8:])
	h.DataOffset = le.Uint32(b[10:])
}

func (h *InfoHeader) put(b []byte) {
	le := binary.LittleEndian
	le.PutUint32(b[0:], h.Size)
	le.PutUint32(b[4:], uint32(h.Width))
	le.PutUint32(b[8:], uint32(h.Height))
	le.PutUint16(b[12:], h.Planes)
	le.PutUint16(b[14:], h.BitCount)
	le.PutUint32(b[16:], h.Compression)
	le.PutUint32(b[20:], h.ImageSize)
	le.PutUint32(b[24:], uint32(h.XPixelsPerMeter))
	le.PutUint32(b[28:], uint32(h.YPixelsPerMeter))
	le.PutUint32(b[32:], h.ColorsUsed)
	le.PutUint32(b[36:], h.ColorsImportant)
}

func (h *InfoHeader) parse(b []byte) {
	le := binary.LittleEndian
	h.Size = le.Uint32(b[0:])
	h.Width = int32(le.Uint32(b[4:]))
	h.Height = int32(le.Uint32(b[8:]))
	h.Planes = le.Uint16(b[12:])
	h.BitCount = le.Uint16(b[14:])
	h.Compression = le.Uint32(b[16:])
	h.ImageSize = le.Uint32(b[20:])
	h.XPixelsPerMeter = int32(le.Uint32(b[24:]))
	h.YPixelsPerMeter = int32(le.Uint32(b[28:]))
	h.ColorsUsed = le.Uint32(b[32:])
	h.ColorsImportant = le.Uint32(b[36:])
}

// newHeaders は検証済みの寸法から書き込み用のヘッダーを組み立てる
func newHeaders(width, height int) (FileHeader, InfoHeader) {
	imageSize := uint32(Stride(width) * height)

	fh := FileHeader{
		Signature:  Signature,
		FileSize:   FileHeaderSize + InfoHeaderSize + imageSize,
		DataOffset: PixelDataOffset,
	}
	ih := InfoHeader{
		Size:            InfoHeaderSize,
		Width:           int32(width),
		Height:          int32(height),
		Planes:          1,
		BitCount:        bitCount24,
		Compression:     biRGB,
		ImageSize:       imageSize,
		XPixelsPerMeter: PixelsPerMeter,
		YPixelsPerMeter: PixelsPerMeter,
		ColorsUsed:      0,
		ColorsImportant: ColorsImportant,
	}
	return fh, ih
}

// writeHeaders は両ヘッダーを54バイトにまとめて書き込む
func writeHeaders(w io.Writer, fh *FileHeader, ih *InfoHeader) error {
	var b [FileHeaderSize + InfoHeaderSize]byte
	fh.put(b[:FileHeaderSize])
	ih.put(b[FileHeaderSize:])
	if _, err := w.Write(b[:]); err != nil {
		return fmt.Errorf("%w: headers: %w", ErrWrite, err)
	}
	return nil
}

// readHeaders は14バイト、40バイトの順にヘッダーを読み込み、最初の不正で打ち切って検証する
func readHeaders(r io.Reader) (FileHeader, InfoHeader, error) {
	var fh FileHeader
	var ih InfoHeader
	var b [InfoHeaderSize]byte

	if _, err := io.ReadFull(r, b[:FileHeaderSize]); err != nil {
		return fh, ih, fmt.Errorf("%w: file header: %w", ErrTruncatedHeader, unexpectedEOF(err))
	}
	fh.parse(b[:FileHeaderSize])

	if fh.Signature != Signature {
		return fh, ih, fmt.Errorf("%w: 0x%04X", ErrInvalidSignature, fh.Signature)
	}

	if _, err := io.ReadFull(r, b[:InfoHeaderSize]); err != nil {
		return fh, ih, fmt.Errorf("%w: info header: %w", ErrTruncatedHeader, unexpectedEOF(err))
	}
	ih.parse(b[:InfoHeaderSize])

	switch {
	case ih.Size != InfoHeaderSize:
		return fh, ih, fmt.Errorf("%w: %d", ErrUnsupportedHeader, ih.Size)
	case ih.BitCount != bitCount24:
		return fh, ih, fmt.Errorf("%w: %d", ErrUnsupportedBitCount, ih.BitCount)
	case ih.Compression != biRGB:
		return fh, ih, fmt.Errorf("%w: %d", ErrUnsupportedCompression, ih.Compression)
	case ih.Width > 0 && ih.Height < 0:
		return fh, ih, fmt.Errorf("%w: %w: %dx%d", ErrInvalidDimensions, ErrTopDown, ih.Width, ih.Height)
	case ih.Width <= 0 || ih.Height <= 0:
		return fh, ih, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, ih.Width, ih.Height)
	}

	return fh, ih, nil
}

// unexpectedEOF は途中で終わった読み込みを io.ErrUnexpectedEOF に揃える
func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Config はヘッダーのみをデコードした結果
type Config struct {
	File    FileHeader
	Info    InfoHeader
	Stride  int
	Padding int
}

func (c Config) Width() int  { return int(c.Info.Width) }
func (c Config) Height() int { return int(c.Info.Height) }

// DecodeConfig はピクセルデータを読まずにヘッダーだけをデコードする
func DecodeConfig(r io.Reader) (Config, error) {
	fh, ih, err := readHeaders(r)
	if err != nil {
		return Config{}, err
	}
	w := int(ih.Width)
	return Config{
		File:    fh,
		Info:    ih,
		Stride:  Stride(w),
		Padding: Padding(w),
	}, nil
}

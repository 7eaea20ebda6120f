// Package bmp は非圧縮24ビットBMPの読み書きを実装する。
//
// 対応するのは BITMAPFILEHEADER + BITMAPINFOHEADER、BI_RGB、24ビット、
// 高さが正（ボトムアップ）の形式のみ。アルファは保存せず、読み込み時は常に255になる。
//
// ファイル形式（リトルエンディアン、フィールド間のパディングなし）:
//
//	0   2  シグネチャ "BM"
//	2   4  ファイルサイズ
//	6   2  予約1
//	8   2  予約2
//	10  4  ピクセルデータのオフセット (54)
//	14  40 BITMAPINFOHEADER
//	54  .. ピクセル行（最下行から、各行 stride バイト、B,G,R の順）
package bmp

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/zurustar/imglib/pkg/fileutil"
	"github.com/zurustar/imglib/pkg/imglib"
	"github.com/zurustar/imglib/pkg/logger"
)

// Encode は img をBMP形式で w に書き込む
func Encode(w io.Writer, img *imglib.Image) error {
	if err := checkEncodable(img); err != nil {
		return err
	}

	fh, ih := newHeaders(img.Width(), img.Height())
	if err := writeHeaders(w, &fh, &ih); err != nil {
		return err
	}
	return writeRows(w, img)
}

// Decode は r からBMPを読み込む
// 失敗した場合、途中まで埋まった画像は返さない
func Decode(r io.Reader) (*imglib.Image, error) {
	fh, ih, err := readHeaders(r)
	if err != nil {
		return nil, err
	}

	// 寸法を信用して確保する前に、データが足りるかを確認する
	if err := checkPixelData(r, fh, ih); err != nil {
		return nil, err
	}

	if err := seekPixelData(r, int64(fh.DataOffset)); err != nil {
		return nil, err
	}

	img := imglib.NewImage(int(ih.Width), int(ih.Height), imglib.Black())
	if err := readRows(r, img); err != nil {
		return nil, err
	}
	return img, nil
}

// seekPixelData はピクセルデータの先頭へ移動する
// シーク可能ならファイル先頭からの絶対位置へ、そうでなければ読み飛ばす
func seekPixelData(r io.Reader, offset int64) error {
	if s, ok := r.(io.Seeker); ok {
		if _, err := s.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("%w: %d: %w", ErrInvalidOffset, offset, err)
		}
		return nil
	}

	// ヘッダー直後にいるので、そこからの差分だけ読み飛ばす
	skip := offset - PixelDataOffset
	if skip < 0 {
		return fmt.Errorf("%w: %d is inside the headers", ErrInvalidOffset, offset)
	}
	if skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return fmt.Errorf("%w: skipping to %d: %w", ErrTruncatedPixelData, offset, unexpectedEOF(err))
		}
	}
	return nil
}

// Save は img を path にBMPとして保存する
// バッファのフラッシュとファイルのクローズまで成功した場合のみ nil を返す
func Save(path string, img *imglib.Image) (err error) {
	if err := checkEncodable(img); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close: %w", ErrWrite, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Encode(w, img); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrWrite, err)
	}
	return nil
}

// Load は path からBMPを読み込む
// 完全一致するファイルがない場合は大文字小文字を無視して探す
func Load(path string) (*imglib.Image, error) {
	f, err := fileutil.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer f.Close()

	return Decode(f)
}

// LoadFS は fsys（embed.FS や os.DirFS など）からBMPを読み込む
func LoadFS(fsys fs.FS, name string) (*imglib.Image, error) {
	f, err := fileutil.OpenFS(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer f.Close()

	return Decode(f)
}

// SaveBMP は Save の結果を真偽値で返す
func SaveBMP(path string, img *imglib.Image) bool {
	if err := Save(path, img); err != nil {
		logger.GetLogger().Debug("SaveBMP failed", "path", path, "error", err)
		return false
	}
	return true
}

// LoadBMP は Load の結果を返す。失敗した場合は空の画像を返す
func LoadBMP(path string) imglib.Image {
	img, err := Load(path)
	if err != nil {
		logger.GetLogger().Debug("LoadBMP failed", "path", path, "error", err)
		return imglib.Image{}
	}
	return *img
}

package bmp

import (
	"fmt"
	"io"
	"math"

	"github.com/zurustar/imglib/pkg/imglib"
)

// MaxStreamPixels はシークできない入力から読み込める画像の最大ピクセル数
// 残りのデータ量を確認できないため、ヘッダーの寸法だけで確保するメモリを制限する
const MaxStreamPixels = 1 << 28

// maxImagePixels は []imglib.Color として確保できる最大ピクセル数
const maxImagePixels = math.MaxInt / 4

// pixelDataSize は stride*height をオーバーフローさせずに計算する
func pixelDataSize(width, height int64) (int64, bool) {
	if width <= 0 || height <= 0 {
		return 0, false
	}
	stride := (width*bytesPerPixel + 3) &^ 3
	if height > math.MaxInt64/stride {
		return 0, false
	}
	return stride * height, true
}

// checkPixelData は画像を確保する前に、ヘッダーの寸法に見合うピクセルデータがあるかを確認する
// シーク可能なら残りのバイト数と比べ、そうでなければ MaxStreamPixels で制限する
func checkPixelData(r io.Reader, fh FileHeader, ih InfoHeader) error {
	w, h := int64(ih.Width), int64(ih.Height)
	size, sizeOK := pixelDataSize(w, h)

	s, seekable := r.(io.Seeker)
	if !seekable {
		if !sizeOK || w*h > MaxStreamPixels {
			return fmt.Errorf("%w: %dx%d exceeds %d pixels for a non-seekable stream", ErrInvalidDimensions, w, h, MaxStreamPixels)
		}
		return nil
	}

	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOffset, err)
	}
	remaining := end - int64(fh.DataOffset)
	if !sizeOK || remaining < size {
		return fmt.Errorf("%w: %dx%d declared, %d bytes available", ErrTruncatedPixelData, w, h, max(remaining, 0))
	}
	if w*h > maxImagePixels {
		return fmt.Errorf("%w: %dx%d is too large", ErrInvalidDimensions, w, h)
	}
	return nil
}

// checkEncodable は img がBMPのヘッダーで表せる寸法かを確認する
func checkEncodable(img *imglib.Image) error {
	if img.IsEmpty() {
		return fmt.Errorf("%w: empty image", ErrInvalidDimensions)
	}
	return checkEncodeSize(int64(img.Width()), int64(img.Height()))
}

// checkEncodeSize は幅・高さが int32 に、ファイルサイズが uint32 に収まるかを確認する
func checkEncodeSize(width, height int64) error {
	if width > math.MaxInt32 || height > math.MaxInt32 {
		return fmt.Errorf("%w: %dx%d does not fit in the info header", ErrInvalidDimensions, width, height)
	}
	size, ok := pixelDataSize(width, height)
	if !ok || size > math.MaxUint32-PixelDataOffset {
		return fmt.Errorf("%w: %dx%d exceeds the 4 GiB file size limit", ErrInvalidDimensions, width, height)
	}
	return nil
}

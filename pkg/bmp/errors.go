package bmp

import "errors"

var (
	// ErrOpen はファイルを開けない（作成できない）場合のエラー
	ErrOpen = errors.New("bmp: cannot open file")

	// ErrTruncatedHeader はヘッダーの途中でデータが終わっている場合のエラー
	ErrTruncatedHeader = errors.New("bmp: truncated header")

	// ErrInvalidSignature はシグネチャが "BM" でない場合のエラー
	ErrInvalidSignature = errors.New("bmp: invalid signature")

	// ErrUnsupportedHeader は情報ヘッダーが BITMAPINFOHEADER (40バイト) でない場合のエラー
	ErrUnsupportedHeader = errors.New("bmp: unsupported info header size")

	// ErrUnsupportedBitCount はビット深度が24でない場合のエラー
	ErrUnsupportedBitCount = errors.New("bmp: unsupported bit count")

	// ErrUnsupportedCompression は圧縮方式が BI_RGB でない場合のエラー
	ErrUnsupportedCompression = errors.New("bmp: unsupported compression")

	// ErrInvalidDimensions は幅または高さが正でない場合のエラー
	ErrInvalidDimensions = errors.New("bmp: invalid dimensions")

	// ErrTopDown は高さが負（トップダウン）の場合のエラー。ErrInvalidDimensions と一緒に返す
	ErrTopDown = errors.New("bmp: top-down bitmap")

	// ErrInvalidOffset はピクセルデータの位置へ移動できない場合のエラー
	ErrInvalidOffset = errors.New("bmp: invalid pixel data offset")

	// ErrTruncatedPixelData はピクセルデータが stride*height に満たない場合のエラー
	ErrTruncatedPixelData = errors.New("bmp: truncated pixel data")

	// ErrWrite は書き込みに失敗した場合のエラー
	ErrWrite = errors.New("bmp: write failed")
)

// IsUnsupported は入力が正しいBMPだが、このコーデックが扱わない形式であるかを判定する
// トップダウンのBMPもここに含む
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrTopDown) ||
		errors.Is(err, ErrUnsupportedHeader) ||
		errors.Is(err, ErrUnsupportedBitCount) ||
		errors.Is(err, ErrUnsupportedCompression)
}

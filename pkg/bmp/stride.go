package bmp

// bytesPerPixel は24ビットBMPの1ピクセルあたりのバイト数
const bytesPerPixel = 3

// Stride は幅 width の行のディスク上のバイト数（4バイト境界に切り上げ）を返す
// width は正であること
func Stride(width int) int {
	return (width*bytesPerPixel + 3) &^ 3
}

// Padding は各行の末尾に付くパディングのバイト数（0〜3）を返す
func Padding(width int) int {
	return Stride(width) - width*bytesPerPixel
}

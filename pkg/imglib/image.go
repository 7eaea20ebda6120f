// Package imglib はコーデックが読み書きするメモリ上の画像コンテナを提供する。
package imglib

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Color は1ピクセルを表す（各チャンネル8ビット、非乗算アルファ）
type Color struct {
	R, G, B, A byte
}

// Black は不透明の黒を返す
func Black() Color {
	return Color{A: 255}
}

// RGBA は color.Color を実装する
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// Image は行優先・上の行から順に並んだピクセルの矩形グリッド
// ゼロ値は空の画像（読み込み失敗を表す）
type Image struct {
	width  int
	height int
	pix    []Color
}

// NewImage は fill で初期化された width x height の画像を作成する
// どちらかの寸法が0以下の場合は空の画像を返す
func NewImage(width, height int, fill Color) *Image {
	if width <= 0 || height <= 0 {
		return &Image{}
	}
	pix := make([]Color, width*height)
	for i := range pix {
		pix[i] = fill
	}
	return &Image{width: width, height: height, pix: pix}
}

// FromImage は任意の image.Image をこのコンテナに変換する
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	dst := NewImage(b.Dx(), b.Dy(), Black())
	if dst.IsEmpty() {
		return dst
	}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func (m *Image) Width() int  { return m.width }
func (m *Image) Height() int { return m.height }

// IsEmpty は画像がピクセルを持たない場合にtrueを返す
func (m *Image) IsEmpty() bool {
	return m == nil || m.width <= 0 || m.height <= 0
}

// Line は y 行目のピクセルを返す（書き込みは画像に反映される）
func (m *Image) Line(y int) []Color {
	return m.pix[y*m.width : (y+1)*m.width]
}

// Pixel は (x, y) のピクセルを返す。範囲外ならゼロ値
func (m *Image) Pixel(x, y int) Color {
	if !m.inBounds(x, y) {
		return Color{}
	}
	return m.pix[y*m.width+x]
}

// SetPixel は (x, y) のピクセルを設定する。範囲外は無視する
func (m *Image) SetPixel(x, y int, c Color) {
	if !m.inBounds(x, y) {
		return
	}
	m.pix[y*m.width+x] = c
}

// Equal は寸法と全ピクセルが一致するかを判定する
func (m *Image) Equal(other *Image) bool {
	if m.IsEmpty() || other.IsEmpty() {
		return m.IsEmpty() && other.IsEmpty()
	}
	if m.width != other.width || m.height != other.height {
		return false
	}
	for i := range m.pix {
		if m.pix[i] != other.pix[i] {
			return false
		}
	}
	return true
}

func (m *Image) inBounds(x, y int) bool {
	return !m.IsEmpty() && x >= 0 && y >= 0 && x < m.width && y < m.height
}

// 以下は image.Image / draw.Image の実装

func (m *Image) ColorModel() color.Model { return color.NRGBAModel }

func (m *Image) Bounds() image.Rectangle {
	if m.IsEmpty() {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, m.width, m.height)
}

func (m *Image) At(x, y int) color.Color {
	c := m.Pixel(x, y)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (m *Image) Set(x, y int, c color.Color) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	m.SetPixel(x, y, Color{R: n.R, G: n.G, B: n.B, A: n.A})
}

package bmp

import (
	"fmt"
	"io"

	"github.com/zurustar/imglib/pkg/imglib"
)

// writeRows はピクセルを最下行から順に書き込む
// BMPはB,G,Rの順で格納し、アルファは書かない。パディングは0のまま
func writeRows(w io.Writer, img *imglib.Image) error {
	width := img.Width()
	row := make([]byte, Stride(width))

	for y := img.Height() - 1; y >= 0; y-- {
		line := img.Line(y)
		for x := 0; x < width; x++ {
			row[x*3+0] = line[x].B
			row[x*3+1] = line[x].G
			row[x*3+2] = line[x].R
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrWrite, y, err)
		}
	}
	return nil
}

// readRows はディスク上のボトムアップの行を img の最下行から順に埋める
// 行が stride に満たない場合は即座に失敗する
func readRows(r io.Reader, img *imglib.Image) error {
	width := img.Width()
	row := make([]byte, Stride(width))

	for y := img.Height() - 1; y >= 0; y-- {
		if _, err := io.ReadFull(r, row); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrTruncatedPixelData, y, unexpectedEOF(err))
		}

		line := img.Line(y)
		for x := 0; x < width; x++ {
			line[x] = imglib.Color{
				B: row[x*3+0],
				G: row[x*3+1],
				R: row[x*3+2],
				A: 255,
			}
		}
	}
	return nil
}

package app

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF デコーダを登録
	_ "image/jpeg" // JPEG デコーダを登録
	"image/png"
	"io"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // 24ビット以外のBMP用のデコーダを登録

	"github.com/zurustar/imglib/pkg/bmp"
	"github.com/zurustar/imglib/pkg/fileutil"
	"github.com/zurustar/imglib/pkg/imglib"
)

// runInfo はBMPのヘッダーを表示する
func (app *Application) runInfo(path string) error {
	rc, err := fileutil.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	cfg, err := bmp.DecodeConfig(rc)
	if err != nil {
		return err
	}

	w := app.stdout
	fmt.Fprintf(w, "File:        \t%s\n", path)
	fmt.Fprintf(w, "Filesize:    \t%d bytes\n", cfg.File.FileSize)
	fmt.Fprintf(w, "PixelOffset: \t%d bytes\n", cfg.File.DataOffset)
	fmt.Fprintf(w, "Width:       \t%d px\n", cfg.Info.Width)
	fmt.Fprintf(w, "Height:      \t%d px\n", cfg.Info.Height)
	fmt.Fprintf(w, "Planes:      \t%d\n", cfg.Info.Planes)
	fmt.Fprintf(w, "BitCount:    \t%d bits\n", cfg.Info.BitCount)
	fmt.Fprintf(w, "ImageSize:   \t%d bytes\n", cfg.Info.ImageSize)
	fmt.Fprintf(w, "Resolution:  \t%dx%d px/m\n", cfg.Info.XPixelsPerMeter, cfg.Info.YPixelsPerMeter)
	fmt.Fprintf(w, "Stride:      \t%d bytes\n", cfg.Stride)
	fmt.Fprintf(w, "Padding:     \t%d bytes\n", cfg.Padding)
	return nil
}

// runConvert は入力画像を読み込み、出力の拡張子に応じた形式で書き出す
func (app *Application) runConvert(input, output string) error {
	img, err := app.readImage(input)
	if err != nil {
		return err
	}
	app.log.Info("Image loaded", "path", input, "width", img.Width(), "height", img.Height())

	if err := app.writeImage(output, img); err != nil {
		return err
	}
	app.log.Info("Image saved", "path", output)
	return nil
}

// runVerify はBMPを読み込んで再エンコードし、ピクセル部分が元のファイルと一致するかを確認する
// パディングの内容は規定されていないので比較しない
func (app *Application) runVerify(path string) error {
	data, err := readAll(path)
	if err != nil {
		return err
	}

	cfg, err := bmp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return err
	}
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return err
	}
	encoded := buf.Bytes()

	rowBytes := img.Width() * 3
	for i := 0; i < img.Height(); i++ {
		src := int(cfg.File.DataOffset) + i*cfg.Stride
		dst := bmp.PixelDataOffset + i*cfg.Stride
		if !bytes.Equal(data[src:src+rowBytes], encoded[dst:dst+rowBytes]) {
			return fmt.Errorf("pixel data mismatch in stored row %d", i)
		}
		if cfg.Padding > 0 && !allZero(data[src+rowBytes:src+cfg.Stride]) {
			app.log.Warn("Non-zero row padding", "row", i)
		}
	}

	fmt.Fprintf(app.stdout, "%s: OK (%dx%d)\n", path, img.Width(), img.Height())
	return nil
}

// readImage は画像を読み込む
// まずこのパッケージのBMPデコーダを試し、対象外の形式なら登録済みのデコーダを使う
func (app *Application) readImage(path string) (*imglib.Image, error) {
	data, err := readAll(path)
	if err != nil {
		return nil, err
	}

	img, err := bmp.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if !bmp.IsUnsupported(err) && !errors.Is(err, bmp.ErrInvalidSignature) && !errors.Is(err, bmp.ErrTruncatedHeader) {
		return nil, err
	}

	app.log.Debug("Falling back to registered decoders", "path", path, "reason", err)

	// 登録済みのデコーダは寸法どおりに確保するので、先に大きさを確認する
	cfg, _, derr := image.DecodeConfig(bytes.NewReader(data))
	if derr != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, errors.Join(err, derr))
	}
	if int64(cfg.Width)*int64(cfg.Height) > bmp.MaxStreamPixels {
		return nil, fmt.Errorf("%w: %s is %dx%d", bmp.ErrInvalidDimensions, path, cfg.Width, cfg.Height)
	}

	m, format, derr := image.Decode(bytes.NewReader(data))
	if derr != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, errors.Join(err, derr))
	}
	app.log.Debug("Decoded with registered decoder", "path", path, "format", format)
	return imglib.FromImage(m), nil
}

// writeImage は出力パスの拡張子（.zst を除く）に応じた形式で書き出す
func (app *Application) writeImage(path string, img *imglib.Image) (err error) {
	ext := strings.ToLower(filepath.Ext(fileutil.TrimCompressedExt(path)))
	if ext != ".bmp" && ext != ".png" {
		return fmt.Errorf("unsupported output format: %q (must be .bmp, .bmp.zst, or .png)", ext)
	}

	level, err := fileutil.ParseZstdLevel(app.config.ZstdLevel)
	if err != nil {
		return err
	}

	wc, err := fileutil.Create(path, level)
	if err != nil {
		return fmt.Errorf("%w: %w", bmp.ErrOpen, err)
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(wc)
	switch ext {
	case ".bmp":
		err = bmp.Encode(w, img)
	case ".png":
		err = png.Encode(w, img)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

func readAll(path string) ([]byte, error) {
	rc, err := fileutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

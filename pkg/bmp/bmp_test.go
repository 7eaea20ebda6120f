package bmp

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	xbmp "golang.org/x/image/bmp"

	"github.com/zurustar/imglib/pkg/imglib"
)

// gradient は各ピクセルの色が座標から決まるテスト用画像を作成する
func gradient(width, height int) *imglib.Image {
	img := imglib.NewImage(width, height, imglib.Black())
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetPixel(x, y, imglib.Color{
				R: uint8(x * 37),
				G: uint8(y * 91),
				B: uint8(x*13 + y*7),
				A: 255,
			})
		}
	}
	return img
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"幅1（パディング最大）", 1, 3},
		{"幅2", 2, 2},
		{"幅3", 3, 5},
		{"幅4（パディングなし）", 4, 4},
		{"高さ1", 7, 1},
		{"1x1", 1, 1},
		{"横長", 33, 2},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := gradient(tt.width, tt.height)
			path := filepath.Join(dir, tt.name+".bmp")

			if !SaveBMP(path, src) {
				t.Fatalf("SaveBMP(%s) failed", path)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Failed to stat: %v", err)
			}
			wantSize := int64(54 + Stride(tt.width)*tt.height)
			if info.Size() != wantSize {
				t.Errorf("file size = %d, want %d", info.Size(), wantSize)
			}

			got := LoadBMP(path)
			if got.IsEmpty() {
				t.Fatal("LoadBMP returned an empty image")
			}
			if !got.Equal(src) {
				t.Errorf("round trip mismatch for %dx%d", tt.width, tt.height)
			}
		})
	}
}

// TestSave_ChannelOrder は (r=10,g=20,b=30) がファイル上で 30,20,10 になることを確認する
func TestSave_ChannelOrder(t *testing.T) {
	img := imglib.NewImage(1, 1, imglib.Color{R: 10, G: 20, B: 30, A: 7})
	path := filepath.Join(t.TempDir(), "pixel.bmp")

	if err := Save(path, img); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	want := []byte{30, 20, 10, 0} // B, G, R, パディング
	if got := data[PixelDataOffset:]; !bytes.Equal(got, want) {
		t.Errorf("pixel bytes = %v, want %v", got, want)
	}
}

// TestEncode_BottomUp は最下行が先に書かれることを確認する
func TestEncode_BottomUp(t *testing.T) {
	img := imglib.NewImage(1, 2, imglib.Black())
	img.SetPixel(0, 0, imglib.Color{R: 1, G: 2, B: 3, A: 255}) // 上の行
	img.SetPixel(0, 1, imglib.Color{R: 4, G: 5, B: 6, A: 255}) // 下の行

	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := []byte{
		6, 5, 4, 0, // 下の行が先
		3, 2, 1, 0,
	}
	if got := buf.Bytes()[PixelDataOffset:]; !bytes.Equal(got, want) {
		t.Errorf("pixel rows = %v, want %v", got, want)
	}
}

// TestLoad_AlphaIsOpaque は保存前のアルファに関係なく読み込み結果が不透明になることを確認する
func TestLoad_AlphaIsOpaque(t *testing.T) {
	img := imglib.NewImage(3, 2, imglib.Color{R: 200, G: 100, B: 50, A: 0})

	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for y := 0; y < got.Height(); y++ {
		for x, c := range got.Line(y) {
			want := imglib.Color{R: 200, G: 100, B: 50, A: 255}
			if c != want {
				t.Errorf("pixel (%d,%d) = %+v, want %+v", x, y, c, want)
			}
		}
	}
}

func TestLoad_PaddingIgnored(t *testing.T) {
	raw := validRaw(1, 1)
	raw.pixels = []byte{30, 20, 10, 0xFF} // パディングが0でない
	img, err := Decode(bytes.NewReader(raw.bytes(t)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := img.Pixel(0, 0); got != (imglib.Color{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel = %+v", got)
	}
}

func TestLoadBMP_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(r *rawBMP)
		wantErr error
	}{
		{"不正なシグネチャ", func(r *rawBMP) { r.signature = [2]byte{'P', 'K'} }, ErrInvalidSignature},
		{"32ビット", func(r *rawBMP) { r.bitCount = 32 }, ErrUnsupportedBitCount},
		{"圧縮あり", func(r *rawBMP) { r.compression = 2 }, ErrUnsupportedCompression},
		{"幅0", func(r *rawBMP) { r.width = 0 }, ErrInvalidDimensions},
		{"高さ-1", func(r *rawBMP) { r.height = -1 }, ErrInvalidDimensions},
		{"ピクセルデータ不足", func(r *rawBMP) { r.pixels = r.pixels[:len(r.pixels)-1] }, ErrTruncatedPixelData},
		{"ピクセルデータなし", func(r *rawBMP) { r.pixels = nil }, ErrTruncatedPixelData},
		{"巨大な寸法でピクセルなし", func(r *rawBMP) { r.width, r.height, r.pixels = 0x7fffffff, 0x7fffffff, nil }, ErrTruncatedPixelData},
		{"50000x50000でピクセルなし", func(r *rawBMP) { r.width, r.height, r.pixels = 50000, 50000, nil }, ErrTruncatedPixelData},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw(3, 3)
			tt.modify(&raw)
			path := filepath.Join(dir, tt.name+".bmp")
			if err := os.WriteFile(path, raw.bytes(t), 0644); err != nil {
				t.Fatalf("Failed to write file: %v", err)
			}

			if got := LoadBMP(path); !got.IsEmpty() {
				t.Errorf("LoadBMP returned %dx%d image, want empty", got.Width(), got.Height())
			}

			img, err := Load(path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if img != nil {
				t.Error("Load() returned a partial image")
			}
		})
	}
}

func TestLoad_TruncatedSavedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "full.bmp")
	if err := Save(path, gradient(5, 4)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	for _, keep := range []int{54, 55, 54 + Stride(5), len(data) - 1} {
		cut := filepath.Join(dir, "cut.bmp")
		if err := os.WriteFile(cut, data[:keep], 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		if _, err := Load(cut); !errors.Is(err, ErrTruncatedPixelData) {
			t.Errorf("keep=%d: Load() error = %v, want ErrTruncatedPixelData", keep, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bmp")

	if got := LoadBMP(path); !got.IsEmpty() {
		t.Error("LoadBMP should return an empty image for a missing file")
	}
	if _, err := Load(path); !errors.Is(err, ErrOpen) {
		t.Errorf("Load() error = %v, want ErrOpen", err)
	}
}

func TestLoad_CaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	if err := Save(filepath.Join(dir, "PHOTO.BMP"), gradient(2, 2)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	img, err := Load(filepath.Join(dir, "photo.bmp"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !img.Equal(gradient(2, 2)) {
		t.Error("loaded image does not match")
	}
}

func TestSaveBMP_UnwritableDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "out.bmp")

	if SaveBMP(path, gradient(2, 2)) {
		t.Error("SaveBMP should fail for an unwritable destination")
	}
	if err := Save(path, gradient(2, 2)); !errors.Is(err, ErrOpen) {
		t.Errorf("Save() error = %v, want ErrOpen", err)
	}
}

func TestSave_EmptyImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bmp")

	if SaveBMP(path, &imglib.Image{}) {
		t.Error("SaveBMP should fail for an empty image")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created for an empty image")
	}
}

// TestEncode_StopsOnWriteError は書き込みに失敗した時点で残りの行を書かないことを確認する
func TestEncode_StopsOnWriteError(t *testing.T) {
	img := gradient(4, 10) // stride 12

	// ヘッダーと2行分だけ書ける
	w := &failingWriter{limit: 54 + 2*12}
	err := Encode(w, img)
	if !errors.Is(err, ErrWrite) || !errors.Is(err, errDiskFull) {
		t.Fatalf("Encode() error = %v, want ErrWrite wrapping disk full", err)
	}
	// ヘッダー1回 + 成功した2行 + 失敗した1行
	if w.calls != 4 {
		t.Errorf("Write called %d times, want 4", w.calls)
	}

	// ヘッダーの書き込み自体が失敗する場合
	w = &failingWriter{limit: 10}
	if err := Encode(w, img); !errors.Is(err, ErrWrite) {
		t.Errorf("Encode() error = %v, want ErrWrite", err)
	}
	if w.calls != 1 {
		t.Errorf("Write called %d times after header failure, want 1", w.calls)
	}
}

// TestDecode_DataOffset はヘッダーに記録されたオフセットからピクセルを読むことを確認する
func TestDecode_DataOffset(t *testing.T) {
	raw := validRaw(1, 1)
	raw.dataOffset = 58
	raw.gap = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	raw.pixels = []byte{3, 2, 1, 0}
	data := raw.bytes(t)
	want := imglib.Color{R: 1, G: 2, B: 3, A: 255}

	t.Run("シーク可能", func(t *testing.T) {
		img, err := Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got := img.Pixel(0, 0); got != want {
			t.Errorf("pixel = %+v, want %+v", got, want)
		}
	})

	t.Run("シーク不可", func(t *testing.T) {
		img, err := Decode(onlyReader{bytes.NewReader(data)})
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got := img.Pixel(0, 0); got != want {
			t.Errorf("pixel = %+v, want %+v", got, want)
		}
	})

	t.Run("シーク不可でオフセットがヘッダー内", func(t *testing.T) {
		raw := validRaw(1, 1)
		raw.dataOffset = 20
		_, err := Decode(onlyReader{bytes.NewReader(raw.bytes(t))})
		if !errors.Is(err, ErrInvalidOffset) {
			t.Errorf("Decode() error = %v, want ErrInvalidOffset", err)
		}
	})

	t.Run("オフセットがファイル末尾より後", func(t *testing.T) {
		raw := validRaw(1, 1)
		raw.dataOffset = 1000
		_, err := Decode(bytes.NewReader(raw.bytes(t)))
		if !errors.Is(err, ErrTruncatedPixelData) {
			t.Errorf("Decode() error = %v, want ErrTruncatedPixelData", err)
		}
	})
}

func TestLoadFS(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, gradient(3, 2)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	fsys := fstest.MapFS{
		"assets/Sprite.BMP": &fstest.MapFile{Data: buf.Bytes()},
	}

	for _, name := range []string{"assets/Sprite.BMP", "assets/sprite.bmp", "/assets/SPRITE.bmp"} {
		img, err := LoadFS(fsys, name)
		if err != nil {
			t.Errorf("LoadFS(%q) failed: %v", name, err)
			continue
		}
		if !img.Equal(gradient(3, 2)) {
			t.Errorf("LoadFS(%q) image mismatch", name)
		}
	}

	if _, err := LoadFS(fsys, "assets/missing.bmp"); !errors.Is(err, ErrOpen) {
		t.Errorf("LoadFS() error = %v, want ErrOpen", err)
	}
}

// TestEncode_DecodableByXImage は出力が golang.org/x/image/bmp で読めることを確認する
func TestEncode_DecodableByXImage(t *testing.T) {
	src := gradient(5, 3)

	var buf bytes.Buffer
	if err := Encode(&buf, src); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	m, err := xbmp.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("x/image/bmp failed to decode: %v", err)
	}
	if m.Bounds() != image.Rect(0, 0, 5, 3) {
		t.Fatalf("bounds = %v", m.Bounds())
	}

	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			r, g, b, _ := m.At(x, y).RGBA()
			want := src.Pixel(x, y)
			if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
				t.Errorf("pixel (%d,%d) = (%d,%d,%d), want %+v", x, y, r>>8, g>>8, b>>8, want)
			}
		}
	}
}

package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zurustar/imglib/pkg/fileutil"
)

// コマンド名
const (
	CommandInfo    = "info"
	CommandConvert = "convert"
	CommandVerify  = "verify"
)

// commandArgs はコマンドごとの位置引数の数
var commandArgs = map[string]int{
	CommandInfo:    1,
	CommandConvert: 2,
	CommandVerify:  1,
}

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Command    string   // info, convert, verify
	Args       []string // コマンドの位置引数（入力、出力）
	ConfigPath string   // 設定ファイルのパス
	LogLevel   string   // ログレベル（debug, info, warn, error）
	LogFormat  string   // ログ形式（text, json）
	ZstdLevel  string   // .zst 出力の圧縮レベル（fastest, default, better, best）
	ShowHelp   bool     // ヘルプ表示フラグ
}

// Input は入力ファイルのパスを返す
func (c *Config) Input() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// Output は出力ファイルのパスを返す（convert のみ）
func (c *Config) Output() string {
	if len(c.Args) < 2 {
		return ""
	}
	return c.Args[1]
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 優先順位: コマンドラインフラグ > 環境変数 > 設定ファイル > デフォルト値
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("imgbmp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFormat, "log-format", "text", "ログ形式（text, json）")
	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイル（YAML）")
	fs.StringVar(&config.ConfigPath, "c", "", "設定ファイル（短縮形）")
	fs.StringVar(&config.ZstdLevel, "zstd-level", "default", "zstd圧縮レベル")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 明示的に指定されたフラグを記録
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var fileConfig FileConfig
	if config.ConfigPath != "" {
		fc, err := LoadConfigFile(config.ConfigPath)
		if err != nil {
			return nil, err
		}
		fileConfig = *fc
	}

	// 環境変数・設定ファイルからの設定（コマンドラインフラグが優先）
	if !set["log-level"] && !set["l"] {
		config.LogLevel = firstNonEmpty(strings.ToLower(os.Getenv("LOG_LEVEL")), fileConfig.LogLevel, config.LogLevel)
	}
	if !set["log-format"] {
		config.LogFormat = firstNonEmpty(strings.ToLower(os.Getenv("LOG_FORMAT")), fileConfig.LogFormat, config.LogFormat)
	}
	if !set["zstd-level"] {
		config.ZstdLevel = firstNonEmpty(fileConfig.ZstdLevel, config.ZstdLevel)
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if config.LogFormat != "text" && config.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format: %s (must be text or json)", config.LogFormat)
	}

	if _, err := fileutil.ParseZstdLevel(config.ZstdLevel); err != nil {
		return nil, err
	}

	if config.ShowHelp {
		return config, nil
	}

	// 位置引数（コマンドとファイル）
	if fs.NArg() == 0 {
		config.ShowHelp = true
		return config, nil
	}

	config.Command = strings.ToLower(fs.Arg(0))
	want, ok := commandArgs[config.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s (must be info, convert, or verify)", fs.Arg(0))
	}

	config.Args = fs.Args()[1:]
	if len(config.Args) != want {
		return nil, fmt.Errorf("%s requires %d file argument(s), got %d", config.Command, want, len(config.Args))
	}

	return config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h":     true,
	"--h":    true,
	"-help":  true,
	"--help": true,
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -l debug のように値が次の引数にある場合
			if !boolFlags[arg] && !strings.Contains(arg, "=") && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `imgbmp - 24-bit BMP image tool

Usage:
  imgbmp [options] info    <file.bmp>
  imgbmp [options] convert <input> <output>
  imgbmp [options] verify  <file.bmp>

Commands:
  info       BMPヘッダーの内容を表示
  convert    画像を変換（出力形式は拡張子で決定: .bmp, .bmp.zst, .png）
             入力は BMP, PNG, JPEG, GIF（末尾が .zst なら zstd 展開）
  verify     BMPを読み込み、再エンコード結果と一致するかを検証

Options:
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --log-format <format>       ログ形式: text, json（デフォルト: text）
  -c, --config <file>         設定ファイル（YAML）
  --zstd-level <level>        .zst 出力の圧縮レベル: fastest, default, better, best
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  LOG_FORMAT=<format>         ログ形式

Config file (YAML):
  log_level: debug
  log_format: json
  zstd_level: best

Examples:
  imgbmp info photo.bmp
  imgbmp convert photo.png photo.bmp
  imgbmp --zstd-level best convert photo.bmp photo.bmp.zst
  imgbmp -l debug verify photo.bmp
`)
}

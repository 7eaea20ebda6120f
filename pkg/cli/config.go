package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// FileConfig は設定ファイル（YAML）の内容
// 未指定の項目は空文字列のままになる
type FileConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	ZstdLevel string `yaml:"zstd_level"`
}

// LoadConfigFile は YAML の設定ファイルを読み込む
// ファイルが存在しない場合は空の設定を返す
func LoadConfigFile(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return cfg, nil
}

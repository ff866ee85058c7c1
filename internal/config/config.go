package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Business BusinessConfig `toml:"business"`
	Limits   LimitsConfig   `toml:"limits"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// BusinessConfig 业务配置
type BusinessConfig struct {
	// Timezone 固定参考时区：排期里的裸日号与“今天”都按它解释
	Timezone string `toml:"timezone"`
	// ProductBatchSize 商品源单批行数（CSV 流式读取的批大小）
	ProductBatchSize int `toml:"product_batch_size"`
	// SpillThreshold 商品行数超过该值时索引落盘 SQLite；0 表示始终内存
	SpillThreshold int `toml:"spill_threshold"`
}

// LimitsConfig 上传限制
type LimitsConfig struct {
	MaxUploadMB int `toml:"max_upload_mb"`
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20372,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Business: BusinessConfig{
			Timezone:         "Africa/Cairo",
			ProductBatchSize: 300000,
			SpillThreshold:   0,
		},
		Limits: LimitsConfig{
			MaxUploadMB: 200,
		},
	}
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig 从可执行文件同目录的 config.toml 加载配置
// 文件不存在时落一份默认配置供运营编辑，本次仍按默认值运行；
// 部分键支持环境变量覆盖（E2E / 本地运行）。
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 首次运行：写出默认配置；目录只读时照常启动
			_ = SaveConfig(config)
			applyEnvOverrides(config)
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)
	return config, nil
}

func applyEnvOverrides(config *AppConfig) {
	if v := os.Getenv("STOCK_TIMEZONE"); v != "" {
		config.Business.Timezone = v
	}
	if v := os.Getenv("STOCK_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("STOCK_SPILL_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Business.SpillThreshold = n
		}
	}
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}

// EnsureDataDir 确保数据目录与 uploads/exports 子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	dataDir := filepath.Join(exeDir, config.Data.DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	for _, subdir := range []string{"uploads", "exports"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

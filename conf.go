package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var conf *Conf

type Conf struct {
	App struct {
		Version string `toml:"version"`
		Title   string `toml:"title"`
	} `toml:"app"`
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`
	Output struct {
		LogDir         string `toml:"logDir"`
		OutputTerminal bool   `toml:"outputTerminal"`
	} `toml:"output"`
	Cache struct {
		Dir string `toml:"dir"`
	} `toml:"cache"`
	Task struct {
		Workers   int `toml:"workers"`
		Timedelay int `toml:"timedelay"` // 每次请求前的基础延迟, 毫秒
		Jitter    int `toml:"jitter"`    // 基础延迟之上的随机抖动上限, 毫秒
	} `toml:"task"`
	Fetch struct {
		Timeout int `toml:"timeout"` // 单次请求超时, 秒
		Retries int `toml:"retries"`
	} `toml:"fetch"`
	Limit struct {
		MaxTiles int `toml:"maxTiles"`
		Margin   int `toml:"margin"`
	} `toml:"limit"`
	Styles map[string]string `toml:"styles"`
}

// InitConf 初始化配置, 配置文件可选, 缺省值覆盖全部配置项
func InitConf(cfgFile string) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			fmt.Printf("config file(%s) not exist", cfgFile)
			os.Exit(1)
		}
		viper.SetConfigType("toml")
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Warnf("read config file(%s) error, details: %s", viper.ConfigFileUsed(), err)
		}
	}
	viper.AutomaticEnv() // read in environment variables that match

	// 设置默认值
	viper.SetDefault("app.version", "v 0.1.0")
	viper.SetDefault("app.title", "Offline Tile Downloader")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("output.outputTerminal", true)
	viper.SetDefault("cache.dir", "tiles")
	viper.SetDefault("task.workers", 4)
	viper.SetDefault("task.timedelay", 100)
	viper.SetDefault("task.jitter", 100)
	viper.SetDefault("fetch.timeout", 10)
	viper.SetDefault("fetch.retries", 3)
	viper.SetDefault("limit.maxTiles", 20000)
	viper.SetDefault("limit.margin", 1)
	viper.SetDefault("styles.standard", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	// 卫星影像源的 URL 里 y 在 x 之前, 模板替换不依赖顺序
	viper.SetDefault("styles.satellite", "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}")

	if err := viper.Unmarshal(&conf); err != nil {
		panic("配置文件解析失败")
	}
}

package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TileSize 默认瓦片大小
const TileSize = 256

// ZoomMin 最小级别
const ZoomMin = 0

// ZoomMax 最大级别
const ZoomMax = 20

// UserAgent 瓦片请求标识
const UserAgent = "OfflineTileDownloader/1.0"

// 内置样式
const (
	StyleStandard  = "standard"
	StyleSatellite = "satellite"
)

// 输出格式
const (
	FormatZip     = "zip"
	FormatMBTiles = "mbtiles"
)

// 瓦片来源
const (
	SourceCached  = "cached"
	SourceFetched = "fetched"
	SourceMissing = "missing"
)

// Coord 瓦片坐标, 有符号: margin 扩展可能产生越界行列号, 原样传递
type Coord struct {
	Z int
	X int
	Y int
}

// FlipY slippy 行号转 TMS 行号, 自逆
func (c Coord) FlipY() int {
	return (1 << uint(c.Z)) - 1 - c.Y
}

// Key 包内条目路径 {z}/{x}/{y}.png, 使用未翻转行号
func (c Coord) Key() string {
	return fmt.Sprintf("%d/%d/%d.png", c.Z, c.X, c.Y)
}

// Tile 单瓦片结果
type Tile struct {
	C      Coord
	Data   []byte
	Source string
}

// Deg2num 经纬度转瓦片行列号
// 与既有缓存路径兼容: 向零截断, 不做 floor, 不裁剪范围
func Deg2num(lat, lon float64, zoom int) (x, y int) {
	latRad := lat * math.Pi / 180.0
	n := math.Exp2(float64(zoom))
	x = int((lon + 180.0) / 360.0 * n)
	y = int((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n)
	return x, y
}

// TileURL 模板替换, 模板内 {x} {y} {z} 顺序不限
func TileURL(tpl string, c Coord) string {
	url := strings.Replace(tpl, "{x}", strconv.Itoa(c.X), -1)
	url = strings.Replace(url, "{y}", strconv.Itoa(c.Y), -1)
	url = strings.Replace(url, "{z}", strconv.Itoa(c.Z), -1)
	return url
}

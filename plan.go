package main

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
)

// Bounds 地理范围, 不校验方向: 角点次序由 zoomRange 排序消化
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// ErrTileLimit 超出瓦片数量上限
type ErrTileLimit struct {
	Total int
}

func (e *ErrTileLimit) Error() string {
	return fmt.Sprintf("too many tiles: %d", e.Total)
}

// zoomRange 单级别行列范围, 已含 margin 扩展, 两端闭区间
func zoomRange(b Bounds, z, margin int) (xMin, xMax, yMin, yMax int) {
	x1, y1 := Deg2num(b.North, b.West, z)
	x2, y2 := Deg2num(b.South, b.East, z)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return x1 - margin, x2 + margin, y1 - margin, y2 + margin
}

// CountBounds 预估瓦片总数, 逐级累加, 中途超限即返回 ErrTileLimit
func CountBounds(b Bounds, zooms []int, margin, max int) (int, error) {
	total := 0
	for _, z := range zooms {
		xMin, xMax, yMin, yMax := zoomRange(b, z, margin)
		total += (xMax - xMin + 1) * (yMax - yMin + 1)
		if total > max {
			return 0, &ErrTileLimit{Total: total}
		}
	}
	return total, nil
}

// PlanBounds 枚举待下载瓦片, 超限时不返回部分结果
func PlanBounds(b Bounds, zooms []int, margin, max int) ([]Coord, error) {
	total, err := CountBounds(b, zooms, margin, max)
	if err != nil {
		return nil, err
	}
	coords := make([]Coord, 0, total)
	for _, z := range zooms {
		xMin, xMax, yMin, yMax := zoomRange(b, z, margin)
		for x := xMin; x <= xMax; x++ {
			for y := yMin; y <= yMax; y++ {
				coords = append(coords, Coord{Z: z, X: x, Y: y})
			}
		}
	}
	return coords, nil
}

// LoadRegion 解析 GeoJSON FeatureCollection 为几何集合
func LoadRegion(data []byte) (orb.Collection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	var collection orb.Collection
	for _, f := range fc.Features {
		collection = append(collection, f.Geometry)
	}
	if len(collection) == 0 {
		return nil, errors.New("empty feature collection")
	}
	return collection, nil
}

// CountRegion 区域覆盖瓦片总数, 与 CountBounds 同样的超限语义
func CountRegion(c orb.Collection, zooms []int, max int) (int, error) {
	total := 0
	for _, z := range zooms {
		total += int(tilecover.CollectionCount(c, maptile.Zoom(z)))
		if total > max {
			return 0, &ErrTileLimit{Total: total}
		}
	}
	return total, nil
}

// PlanRegion 枚举区域覆盖瓦片, 区域模式不做 margin 扩展
func PlanRegion(c orb.Collection, zooms []int, max int) ([]Coord, error) {
	total, err := CountRegion(c, zooms, max)
	if err != nil {
		return nil, err
	}
	coords := make([]Coord, 0, total)
	for _, z := range zooms {
		tilelist := make(chan maptile.Tile, 64)
		go tilecover.CollectionChannel(c, maptile.Zoom(z), tilelist)
		for t := range tilelist {
			coords = append(coords, Coord{Z: int(t.Z), X: int(t.X), Y: int(t.Y)})
		}
	}
	return coords, nil
}

package main

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// buildZip 将瓦片打包为内存 zip, 缺失瓦片直接跳过
// 条目路径 {z}/{x}/{y}.png, 行号不翻转
func buildZip(results <-chan Tile) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for tile := range results {
		if tile.Source == SourceMissing {
			continue
		}
		w, err := zw.Create(tile.C.Key())
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", tile.C.Key(), err)
		}
		if _, err := w.Write(tile.Data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", tile.C.Key(), err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf, nil
}

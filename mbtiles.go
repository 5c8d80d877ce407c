package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

const mbtilesSchema = `
CREATE TABLE metadata (name TEXT, value TEXT);
CREATE TABLE tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB);
CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row);
`

// buildMBTiles 将瓦片写入单文件 sqlite 库, 读回内存后删除临时文件
func buildMBTiles(results <-chan Tile) (*bytes.Buffer, error) {
	tmp, err := os.CreateTemp("", "*.mbtiles")
	if err != nil {
		return nil, fmt.Errorf("create mbtiles temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open mbtiles: %w", err)
	}
	if err := fillMBTiles(db, results); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("close mbtiles: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mbtiles: %w", err)
	}
	return bytes.NewBuffer(data), nil
}

// fillMBTiles 建表写入, 行号按 TMS 规范翻转一次: tile_row = 2^z - 1 - y
// (zoom_level, tile_column, tile_row) 上的唯一索引让重复写入成为硬错误
func fillMBTiles(db *sql.DB, results <-chan Tile) error {
	if _, err := db.Exec(mbtilesSchema); err != nil {
		return fmt.Errorf("create mbtiles schema: %w", err)
	}
	meta := [][2]string{
		{"name", "Offline Map"},
		{"type", "baselayer"},
		{"format", "png"},
	}
	for _, kv := range meta {
		if _, err := db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert metadata %s: %w", kv[0], err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tiles tx: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare tiles insert: %w", err)
	}
	defer stmt.Close()
	for tile := range results {
		if tile.Source == SourceMissing {
			continue
		}
		if _, err := stmt.Exec(tile.C.Z, tile.C.X, tile.C.FlipY(), tile.Data); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert tile(z:%d, x:%d, y:%d): %w", tile.C.Z, tile.C.X, tile.C.Y, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tiles: %w", err)
	}
	return nil
}

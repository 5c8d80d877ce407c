package main

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func collectTiles(tiles ...Tile) <-chan Tile {
	ch := make(chan Tile, len(tiles))
	for _, tile := range tiles {
		ch <- tile
	}
	close(ch)
	return ch
}

func TestBuildZipEntries(t *testing.T) {
	buf, err := buildZip(collectTiles(
		Tile{C: Coord{Z: 3, X: 1, Y: 2}, Data: []byte("a"), Source: SourceFetched},
		Tile{C: Coord{Z: 3, X: 1, Y: 3}, Source: SourceMissing},
		Tile{C: Coord{Z: 4, X: 9, Y: 9}, Data: []byte("bb"), Source: SourceCached},
	))
	if err != nil {
		t.Fatalf("buildZip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	want := map[string]string{
		"3/1/2.png": "a",
		"4/9/9.png": "bb",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("zip has %d entries, want %d", len(zr.File), len(want))
	}
	for _, zf := range zr.File {
		body, ok := want[zf.Name]
		if !ok {
			t.Errorf("unexpected entry %s", zf.Name)
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("open %s: %v", zf.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if string(data) != body {
			t.Errorf("entry %s = %q, want %q", zf.Name, data, body)
		}
	}
}

func TestBuildZipEmpty(t *testing.T) {
	buf, err := buildZip(collectTiles())
	if err != nil {
		t.Fatalf("buildZip: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("empty artifact must still be a valid zip: %v", err)
	}
	if len(zr.File) != 0 {
		t.Errorf("zip has %d entries, want 0", len(zr.File))
	}
}

package main

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func runTask(t *testing.T, coords []Coord, style, format string, f *Fetcher) *Task {
	t.Helper()
	task := NewTask(coords, style, format, f, 2)
	task.Run()
	return task
}

func TestTaskRunZipDone(t *testing.T) {
	srv, _ := tileServer([]byte("tile"))
	defer srv.Close()
	f := newTestFetcher(t, srv.URL+"/{z}/{x}/{y}.png", 3)

	coords, err := PlanBounds(Bounds{North: 52.6, South: 52.3, East: 13.6, West: 13.2}, []int{10}, 0, 100)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	task := runTask(t, coords, StyleStandard, FormatZip, f)

	if task.Status() != StatusDone {
		t.Fatalf("status = %s, want done (err: %s)", task.Status(), task.Err())
	}
	current, total := task.Progress()
	if current != total || total != int64(len(coords)) {
		t.Errorf("progress = %d/%d, want %d/%d", current, total, len(coords), len(coords))
	}
	if task.File() == nil {
		t.Fatal("done task must expose its artifact")
	}
	zr, err := zip.NewReader(bytes.NewReader(task.File().Bytes()), int64(task.File().Len()))
	if err != nil {
		t.Fatalf("artifact is not a zip: %v", err)
	}
	if len(zr.File) != len(coords) {
		t.Errorf("zip has %d entries, want %d", len(zr.File), len(coords))
	}
}

func TestTaskMissingTilesStillDone(t *testing.T) {
	srv := httptest404()
	defer srv.Close()
	f := newTestFetcher(t, srv.URL+"/{z}/{x}/{y}.png", 3)

	task := runTask(t, []Coord{{Z: 1, X: 0, Y: 0}, {Z: 1, X: 1, Y: 0}}, StyleStandard, FormatZip, f)
	if task.Status() != StatusDone {
		t.Fatalf("status = %s, want done", task.Status())
	}
	zr, err := zip.NewReader(bytes.NewReader(task.File().Bytes()), int64(task.File().Len()))
	if err != nil {
		t.Fatalf("artifact is not a zip: %v", err)
	}
	if len(zr.File) != 0 {
		t.Errorf("zip has %d entries, want 0 for all-missing input", len(zr.File))
	}
}

// 重复坐标在 mbtiles 下撞唯一索引, 任务必须以 failed 收场而不是挂起
func TestTaskDuplicateCoordMBTilesFails(t *testing.T) {
	srv, _ := tileServer([]byte("tile"))
	defer srv.Close()
	f := newTestFetcher(t, srv.URL+"/{z}/{x}/{y}.png", 3)

	dup := Coord{Z: 2, X: 1, Y: 1}
	done := make(chan *Task, 1)
	go func() {
		done <- runTask(t, []Coord{dup, dup, {Z: 2, X: 0, Y: 0}, {Z: 2, X: 3, Y: 3}}, StyleStandard, FormatMBTiles, f)
	}()
	select {
	case task := <-done:
		if task.Status() != StatusFailed {
			t.Fatalf("status = %s, want failed", task.Status())
		}
		if !strings.Contains(task.Err(), "insert tile") {
			t.Errorf("error %q should name the failed insert", task.Err())
		}
		if task.File() != nil {
			t.Error("failed task must not expose an artifact")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("task hung after builder error")
	}
}

// 瓦片级 panic 降级为 missing, 任务照常完成
func TestTaskPanicDowngradesToMissing(t *testing.T) {
	f := &Fetcher{client: nil, cacheDir: t.TempDir(),
		styles: map[string]string{StyleStandard: "http://x/{z}/{x}/{y}.png"}, retries: 1}

	task := runTask(t, []Coord{{Z: 0, X: 0, Y: 0}}, StyleStandard, FormatZip, f)
	if task.Status() != StatusDone {
		t.Fatalf("status = %s, want done", task.Status())
	}
	current, total := task.Progress()
	if current != 1 || total != 1 {
		t.Errorf("progress = %d/%d, want 1/1", current, total)
	}
}

func TestTaskFormatNormalization(t *testing.T) {
	task := NewTask(nil, StyleStandard, "tar", nil, 0)
	if task.Format != FormatZip {
		t.Errorf("format = %s, want zip fallback", task.Format)
	}
	if task.workers != 4 {
		t.Errorf("workers = %d, want default 4", task.workers)
	}
	task = NewTask(nil, StyleSatellite, FormatMBTiles, nil, 2)
	if task.Format != FormatMBTiles {
		t.Errorf("format = %s, want mbtiles", task.Format)
	}
}

func TestTaskFilename(t *testing.T) {
	cases := []struct{ style, format, want string }{
		{StyleStandard, FormatZip, "standard_tiles.zip"},
		{StyleSatellite, FormatMBTiles, "satellite_tiles.mbtiles"},
	}
	for _, c := range cases {
		task := NewTask(nil, c.style, c.format, nil, 1)
		if got := task.Filename(); got != c.want {
			t.Errorf("Filename(%s, %s) = %s, want %s", c.style, c.format, got, c.want)
		}
	}
}

// httptest404 对任何请求都回 404 的源端
func httptest404() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
}

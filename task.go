package main

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teris-io/shortid"
	"golang.org/x/sync/errgroup"
)

// 任务状态
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Task 下载任务
// 后台任务是唯一写者, 进度与终态可被任意多的轮询端并发读取
type Task struct {
	ID     string
	Style  string
	Format string
	Coords []Coord
	Total  int64

	current int64

	mu     sync.RWMutex
	status string
	errMsg string
	file   *bytes.Buffer

	fetcher *Fetcher
	workers int
}

// NewTask 创建下载任务, Total 在创建时固定为计划的瓦片数
func NewTask(coords []Coord, style, format string, fetcher *Fetcher, workers int) *Task {
	id, _ := shortid.Generate()
	if workers <= 0 {
		workers = 4
	}
	if format != FormatMBTiles {
		format = FormatZip
	}
	return &Task{
		ID:      id,
		Style:   style,
		Format:  format,
		Coords:  coords,
		Total:   int64(len(coords)),
		status:  StatusPending,
		fetcher: fetcher,
		workers: workers,
	}
}

// Progress 当前进度快照, 单调不减, 终态时等于 Total
func (t *Task) Progress() (current, total int64) {
	return atomic.LoadInt64(&t.current), t.Total
}

func (t *Task) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Task) Err() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errMsg
}

// File 终态产物, 到达 done 之前为 nil
func (t *Task) File() *bytes.Buffer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.file
}

// Filename 下载文件名 {style}_tiles.{format}
func (t *Task) Filename() string {
	return fmt.Sprintf("%s_tiles.%s", t.Style, t.Format)
}

func (t *Task) start() {
	t.mu.Lock()
	t.status = StatusRunning
	t.mu.Unlock()
}

func (t *Task) finish(file *bytes.Buffer) {
	t.mu.Lock()
	t.status = StatusDone
	t.file = file
	t.mu.Unlock()
}

func (t *Task) fail(err error) {
	t.mu.Lock()
	t.status = StatusFailed
	t.errMsg = err.Error()
	t.mu.Unlock()
}

// Run 执行下载, 阻塞至终态: 工作池抓取, 完成序交付构建器
func (t *Task) Run() {
	start := time.Now()
	t.start()

	results := make(chan Tile, t.workers)
	go func() {
		g := new(errgroup.Group)
		g.SetLimit(t.workers)
		for _, c := range t.Coords {
			c := c
			g.Go(func() error {
				tile := t.fetchOne(c)
				atomic.AddInt64(&t.current, 1)
				results <- tile
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	var file *bytes.Buffer
	var err error
	switch t.Format {
	case FormatMBTiles:
		file, err = buildMBTiles(results)
	default:
		file, err = buildZip(results)
	}
	if err != nil {
		// 构建中途失败时排空剩余结果, 让工作池收尾
		for range results {
		}
		t.fail(err)
		log.Errorf("task %s failed ~ %s", t.ID, err)
		return
	}

	t.finish(file)
	log.Infof("task %s finished, %d tiles, %.3fs ...", t.ID, t.Total, time.Since(start).Seconds())
}

// fetchOne 单瓦片抓取, 意外 panic 降级为 missing, 单瓦片失败不影响任务
func (t *Task) fetchOne(c Coord) (tile Tile) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("fetch tile(z:%d, x:%d, y:%d) panic: %v", c.Z, c.X, c.Y, r)
			tile = Tile{C: c, Source: SourceMissing}
		}
	}()
	return t.fetcher.Fetch(c, t.Style)
}

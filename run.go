package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pb "gopkg.in/cheggaaa/pb.v1"
)

// InitRun 一次性下载模式: 命令行给定范围, 同步执行并落盘
func InitRun() {
	bounds, err := parseBounds(runBounds)
	if err != nil {
		log.Fatalf("invalid -bounds: %s", err)
	}
	zooms, err := parseZooms(runZooms)
	if err != nil {
		log.Fatalf("invalid -zooms: %s", err)
	}

	coords, err := PlanBounds(bounds, zooms, conf.Limit.Margin, conf.Limit.MaxTiles)
	if err != nil {
		log.Fatalf("plan error: %s", err)
	}

	task := NewTask(coords, runStyle, runFormat, NewFetcher(), conf.Task.Workers)
	log.Infof("task %s: %d tiles, %d workers", task.ID, task.Total, conf.Task.Workers)

	start := time.Now()
	done := make(chan struct{})
	go func() {
		task.Run()
		close(done)
	}()

	bar := pb.New64(task.Total).Prefix(fmt.Sprintf("Task %s : ", task.ID))
	bar.SetRefreshRate(time.Second)
	bar.Start()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-done:
			break loop
		case <-ticker.C:
			current, _ := task.Progress()
			bar.Set64(current)
		}
	}
	current, _ := task.Progress()
	bar.Set64(current)
	bar.FinishPrint(fmt.Sprintf("Task %s finished ~", task.ID))

	if task.Status() == StatusFailed {
		log.Fatalf("task %s failed ~ %s", task.ID, task.Err())
	}

	out := runOutput
	if out == "" {
		out = task.Filename()
	}
	if err := os.WriteFile(out, task.File().Bytes(), os.ModePerm); err != nil {
		log.Fatalf("write %s error ~ %s", out, err)
	}
	log.Printf("\n%.3fs finished, saved to %s ...", time.Since(start).Seconds(), out)
}

// parseBounds "north,south,east,west"
func parseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("want north,south,east,west")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, err
		}
		vals[i] = v
	}
	return Bounds{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}, nil
}

// parseZooms "3-7" 或 "3,5,7"
func parseZooms(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty zoom list")
	}
	if strings.Contains(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		min, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		max, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		if max < min {
			return nil, fmt.Errorf("bad zoom range %s", s)
		}
		zooms := make([]int, 0, max-min+1)
		for z := min; z <= max; z++ {
			zooms = append(zooms, z)
		}
		return zooms, nil
	}
	var zooms []int
	for _, p := range strings.Split(s, ",") {
		z, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		zooms = append(zooms, z)
	}
	return zooms, nil
}

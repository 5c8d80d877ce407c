package main

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Fetcher 瓦片加载器: 缓存优先, 未命中走远端拉取并回写缓存
// 不同坐标可安全并发; 相同坐标的并发拉取不去重, 缓存写入内容一致, 竞争无害
type Fetcher struct {
	client    *http.Client
	cacheDir  string
	styles    map[string]string
	retries   int
	baseDelay time.Duration // 每次请求前的基础延迟
	jitterMax time.Duration // 基础延迟之上的随机抖动上限
	backoff   time.Duration // 退避单位, 实际退避 2^attempt * backoff + 抖动
	backoffJitterMax time.Duration
}

// NewFetcher 按配置构建
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: time.Duration(conf.Fetch.Timeout) * time.Second},
		cacheDir:  conf.Cache.Dir,
		styles:    conf.Styles,
		retries:   conf.Fetch.Retries,
		baseDelay: time.Duration(conf.Task.Timedelay) * time.Millisecond,
		jitterMax: time.Duration(conf.Task.Jitter) * time.Millisecond,
		backoff:   time.Second,
		backoffJitterMax: time.Second,
	}
}

// Fetch 单瓦片获取: 命中缓存立即返回, 否则带重试拉取
// 404 视为源端确实没有该瓦片, 不重试; 其余失败按指数退避重试至 retries 耗尽
func (f *Fetcher) Fetch(c Coord, style string) Tile {
	path := f.cachePath(style, c)
	if data, err := os.ReadFile(path); err == nil {
		return Tile{C: c, Data: data, Source: SourceCached}
	}

	url := TileURL(f.styleURL(style), c)
	for attempt := 0; attempt < f.retries; attempt++ {
		// 请求前限速, 首次请求同样生效
		f.sleep(f.baseDelay + f.jitter(f.jitterMax))

		data, status, err := f.get(url)
		if err != nil {
			log.Debugf("fetch %s error, details: %s ~", url, err)
			if attempt+1 < f.retries {
				f.sleep(f.backoffDelay(attempt))
			}
			continue
		}
		switch status {
		case http.StatusOK:
			f.writeCache(path, data, c)
			return Tile{C: c, Data: data, Source: SourceFetched}
		case http.StatusNotFound:
			log.Debugf("tile(z:%d, x:%d, y:%d) not on server ~", c.Z, c.X, c.Y)
			return Tile{C: c, Source: SourceMissing}
		default:
			log.Debugf("fetch %s status code: %d ~", url, status)
			if attempt+1 < f.retries {
				f.sleep(f.backoffDelay(attempt))
			}
		}
	}
	return Tile{C: c, Source: SourceMissing}
}

// styleURL 未知样式退回 standard 模板
func (f *Fetcher) styleURL(style string) string {
	if tpl, ok := f.styles[style]; ok && tpl != "" {
		return tpl
	}
	return f.styles[StyleStandard]
}

// cachePath 磁盘缓存路径 {cacheDir}/{style}/{z}/{x}/{y}.png
// style 取请求原值, 即使 URL 模板退回了 standard
func (f *Fetcher) cachePath(style string, c Coord) string {
	return filepath.Join(f.cacheDir, style,
		fmt.Sprintf("%d", c.Z), fmt.Sprintf("%d", c.X), fmt.Sprintf("%d.png", c.Y))
}

func (f *Fetcher) get(url string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}

// writeCache 回写缓存, 失败只降级记日志: 缓存是记忆层, 不是产物来源
func (f *Fetcher) writeCache(path string, data []byte, c Coord) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Warnf("create cache dir for tile(z:%d, x:%d, y:%d) error ~ %s", c.Z, c.X, c.Y, err)
		return
	}
	if err := os.WriteFile(path, data, os.ModePerm); err != nil {
		log.Warnf("write cache %s error ~ %s", path, err)
	}
}

func (f *Fetcher) jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	return (1<<uint(attempt))*f.backoff + f.jitter(f.backoffJitterMax)
}

func (f *Fetcher) sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

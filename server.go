package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Server HTTP 服务: 提交下载, 预估数量, 进度推送, 文件获取
type Server struct {
	store   Store
	fetcher *Fetcher

	workers      int
	margin       int
	maxTiles     int
	pollInterval time.Duration

	title   string
	version string
}

// NewServer 按配置构建
func NewServer(store Store, fetcher *Fetcher) *Server {
	return &Server{
		store:        store,
		fetcher:      fetcher,
		workers:      conf.Task.Workers,
		margin:       conf.Limit.Margin,
		maxTiles:     conf.Limit.MaxTiles,
		pollInterval: 500 * time.Millisecond,
		title:        conf.App.Title,
		version:      conf.App.Version,
	}
}

// InitServer 启动服务
func InitServer() {
	srv := &http.Server{
		Addr:    conf.Server.Addr,
		Handler: NewServer(NewMemStore(), NewFetcher()).Handler(),
	}
	SafeExitInst.Register(func() { srv.Close() })

	log.Infof("%s listening on %s ...", conf.App.Title, conf.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %s", err)
	}
}

// Handler 注册路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/preview_tile_count", s.handlePreview)
	mux.HandleFunc("/download_tiles", s.handleDownload)
	mux.HandleFunc("/progress/", s.handleProgress)
	mux.HandleFunc("/get_file/", s.handleGetFile)
	return mux
}

// downloadRequest 提交参数, bounds 与 region 二选一
type downloadRequest struct {
	Bounds     *Bounds         `json:"bounds"`
	Region     json.RawMessage `json:"region"`
	ZoomLevels []int           `json:"zoom_levels"`
	Format     string          `json:"format"`
	MapStyle   string          `json:"map_style"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    s.title,
		"version": s.version,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	total, err := s.countRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"tile_count": total})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	// 提交前做准入检查, 超限时任务不创建, 不产生任何网络请求
	coords, err := s.planRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	style := req.MapStyle
	if style == "" {
		style = StyleStandard
	}

	task := NewTask(coords, style, req.Format, s.fetcher, s.workers)
	s.store.Put(task)
	// 后台执行, 请求立即返回任务号
	go task.Run()

	log.Infof("task %s accepted, %d tiles, style %s, format %s", task.ID, task.Total, task.Style, task.Format)
	writeJSON(w, http.StatusOK, map[string]string{"job_id": task.ID})
}

// handleProgress SSE 进度推送, 终态后补发一次最终事件并结束
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	id := strings.TrimPrefix(r.URL.Path, "/progress/")
	task, ok := s.store.Get(id)
	if !ok {
		fmt.Fprint(w, "data: error\n\n")
		if flusher != nil {
			flusher.Flush()
		}
		return
	}

	for {
		current, total := task.Progress()
		fmt.Fprintf(w, "data: %d / %d\n\n", current, total)
		if flusher != nil {
			flusher.Flush()
		}
		if status := task.Status(); status == StatusDone || status == StatusFailed {
			return
		}
		time.Sleep(s.pollInterval)
	}
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/get_file/")
	task, ok := s.store.Get(id)
	if !ok {
		log.Warnf("get_file: job %s not found", id)
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	file := task.File()
	if file == nil {
		log.Warnf("get_file: file for job %s not ready", id)
		http.Error(w, "File not ready", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, task.Filename()))
	w.Write(file.Bytes())
}

// decodeRequest 解析并校验提交参数, 失败时已写入响应
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*downloadRequest, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if (req.Bounds == nil && len(req.Region) == 0) || len(req.ZoomLevels) == 0 {
		writeError(w, http.StatusBadRequest, "missing bounds or zoom levels")
		return nil, false
	}
	return &req, true
}

func (s *Server) countRequest(req *downloadRequest) (int, error) {
	if req.Bounds != nil {
		return CountBounds(*req.Bounds, req.ZoomLevels, s.margin, s.maxTiles)
	}
	c, err := LoadRegion(req.Region)
	if err != nil {
		return 0, fmt.Errorf("invalid region: %s", err)
	}
	return CountRegion(c, req.ZoomLevels, s.maxTiles)
}

func (s *Server) planRequest(req *downloadRequest) ([]Coord, error) {
	if req.Bounds != nil {
		return PlanBounds(*req.Bounds, req.ZoomLevels, s.margin, s.maxTiles)
	}
	c, err := LoadRegion(req.Region)
	if err != nil {
		return nil, fmt.Errorf("invalid region: %s", err)
	}
	return PlanRegion(c, req.ZoomLevels, s.maxTiles)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

package main

import "sync"

// Store 任务注册表: 后台任务唯一写入, 轮询端并发读取
type Store interface {
	Put(t *Task)
	Get(id string) (*Task, bool)
}

// MemStore 进程内实现, 进程退出即丢失
type MemStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewMemStore() *MemStore {
	return &MemStore{tasks: make(map[string]*Task)}
}

func (s *MemStore) Put(t *Task) {
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
}

func (s *MemStore) Get(id string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

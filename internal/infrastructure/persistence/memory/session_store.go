// Package memory 提供进程内的会话存储
//
// 设计说明:
// 1. 会话实体内含互斥锁,必须保证同一SessionID永远拿到同一个实例,
//    所以不能用Redis这类序列化存储承载活跃会话
// 2. 代价是会话随进程重启丢失、无法水平扩展,当前单实例部署可接受
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/bookchat/internal/domain/session"
)

// SessionStore 进程内会话存储
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewSessionStore 创建会话存储
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
	}
}

// GetOrCreate 获取会话,不存在则创建
// 教学要点:读多写少用RWMutex,先用读锁探测,
// 未命中再升级写锁并二次检查,避免并发下重复创建
func (s *SessionStore) GetOrCreate(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 二次检查:释放读锁到拿到写锁之间可能已被其他goroutine创建
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	sess = session.NewSession(id)
	s.sessions[id] = sess
	return sess, nil
}

// Reset 清除会话
func (s *SessionStore) Reset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Count 当前会话数量
func (s *SessionStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sessions)), nil
}

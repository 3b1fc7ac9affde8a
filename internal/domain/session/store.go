package session

import (
	"context"
)

// Store 会话存储接口
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现(当前为进程内存)
// 2. GetOrCreate保证同一SessionID始终返回同一个实例,
//    会话锁才能真正互斥同一会话的并发消息
type Store interface {
	// GetOrCreate 获取会话,不存在则创建
	GetOrCreate(ctx context.Context, id string) (*Session, error)

	// Reset 清除会话(测试与运维用)
	Reset(ctx context.Context, id string) error

	// Count 当前会话数量(统计接口)
	Count(ctx context.Context) (int64, error)
}

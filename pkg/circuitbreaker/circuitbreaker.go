// Package circuitbreaker 实现熔断器模式（Circuit Breaker Pattern）
//
// 熔断器核心思想：
// 1. 监控外部服务调用的成功率
// 2. 当失败达到阈值时，快速失败（打开熔断器），不再等待超时
// 3. 过一段时间后进入半开状态，放少量请求探测下游是否恢复
//
// 本项目用途：包裹对Ollama大模型服务的调用（生成、向量化）。
// 模型服务宕机时，对话层能立即走降级路径（规则分类、词法检索），
// 而不是每条消息都等待HTTP超时。
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	// StateClosed 关闭状态（正常），所有请求通过，统计失败次数
	StateClosed State = iota

	// StateOpen 打开状态（熔断），所有请求快速失败
	StateOpen

	// StateHalfOpen 半开状态（探测），放行有限请求探测下游
	StateHalfOpen
)

// String 状态转字符串（便于日志）
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Counts 统计数据
type Counts struct {
	Requests             uint32 // 总请求数
	TotalSuccesses       uint32 // 总成功数
	TotalFailures        uint32 // 总失败数
	ConsecutiveSuccesses uint32 // 连续成功数
	ConsecutiveFailures  uint32 // 连续失败数
}

// FailureRate 计算失败率
func (c *Counts) FailureRate() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.TotalFailures) / float64(c.Requests)
}

func (c *Counts) reset() {
	*c = Counts{}
}

func (c *Counts) onSuccess() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态下允许的最大请求数（建议1-5）
	MaxRequests uint32

	// Interval 关闭状态下的统计时间窗口（窗口结束重置计数）
	Interval time.Duration

	// Timeout 熔断超时时间（OPEN状态持续时间），超时后转HALF_OPEN
	Timeout time.Duration

	// ReadyToTrip 判断是否应该打开熔断器
	// 为nil时默认：连续失败>=5次
	ReadyToTrip func(counts Counts) bool

	// OnStateChange 状态变化回调（可选，用于日志/指标）
	OnStateChange func(name string, from State, to State)
}

// ErrOpenState 熔断器打开错误
var ErrOpenState = errors.New("circuit breaker is open")

// ErrTooManyRequests 半开状态下超过探测配额
var ErrTooManyRequests = errors.New("circuit breaker half-open request limit reached")

// CircuitBreaker 熔断器
type CircuitBreaker struct {
	name        string
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	readyToTrip func(counts Counts) bool
	onChange    func(name string, from State, to State)

	mu         sync.Mutex
	state      State
	generation uint64 // 生成号（每次状态切换/窗口重置递增，防止过期结果污染统计）
	counts     Counts
	halfOpen   uint32 // 半开状态已放行的请求数
	expiry     time.Time
}

// New 创建熔断器
func New(name string, cfg Config) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:        name,
		maxRequests: cfg.MaxRequests,
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		readyToTrip: cfg.ReadyToTrip,
		onChange:    cfg.OnStateChange,
	}

	if cb.maxRequests == 0 {
		cb.maxRequests = 1
	}
	if cb.timeout == 0 {
		cb.timeout = 30 * time.Second
	}
	if cb.readyToTrip == nil {
		cb.readyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}

	cb.toNewGeneration(time.Now())
	return cb
}

// Name 返回熔断器名称
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State 返回当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.currentState(now)
	return cb.state
}

// Do 执行受保护的调用
// 熔断打开时立即返回ErrOpenState，fn不会被调用
func (cb *CircuitBreaker) Do(fn func() error) error {
	generation, err := cb.beforeRequest(time.Now())
	if err != nil {
		return err
	}

	// fn可能panic，保证统计一致性
	defer func() {
		if r := recover(); r != nil {
			cb.afterRequest(generation, false)
			panic(r)
		}
	}()

	callErr := fn()
	cb.afterRequest(generation, callErr == nil)
	return callErr
}

func (cb *CircuitBreaker) beforeRequest(now time.Time) (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.currentState(now)

	switch cb.state {
	case StateOpen:
		return cb.generation, ErrOpenState
	case StateHalfOpen:
		if cb.halfOpen >= cb.maxRequests {
			return cb.generation, ErrTooManyRequests
		}
		cb.halfOpen++
	}

	cb.counts.Requests++
	return cb.generation, nil
}

func (cb *CircuitBreaker) afterRequest(generation uint64, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.currentState(now)

	// 请求开始前的那一代已经过期，结果作废
	if generation != cb.generation {
		return
	}

	if success {
		cb.onSuccess(now)
	} else {
		cb.onFailure(now)
	}
}

func (cb *CircuitBreaker) onSuccess(now time.Time) {
	cb.counts.onSuccess()

	// 半开状态下探测成功达到配额，认为下游恢复
	if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.maxRequests {
		cb.setState(StateClosed, now)
	}
}

func (cb *CircuitBreaker) onFailure(now time.Time) {
	cb.counts.onFailure()

	switch cb.state {
	case StateClosed:
		if cb.readyToTrip(cb.counts) {
			cb.setState(StateOpen, now)
		}
	case StateHalfOpen:
		// 探测失败，回到熔断
		cb.setState(StateOpen, now)
	}
}

// currentState 惰性推进状态（依赖调用触发，不起后台goroutine）
func (cb *CircuitBreaker) currentState(now time.Time) {
	switch cb.state {
	case StateClosed:
		if cb.interval > 0 && !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.toNewGeneration(now)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			cb.setState(StateHalfOpen, now)
		}
	}
}

func (cb *CircuitBreaker) setState(state State, now time.Time) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state
	cb.toNewGeneration(now)

	if cb.onChange != nil {
		cb.onChange(cb.name, prev, state)
	}
}

func (cb *CircuitBreaker) toNewGeneration(now time.Time) {
	cb.generation++
	cb.counts.reset()
	cb.halfOpen = 0

	switch cb.state {
	case StateClosed:
		if cb.interval == 0 {
			cb.expiry = time.Time{}
		} else {
			cb.expiry = now.Add(cb.interval)
		}
	case StateOpen:
		cb.expiry = now.Add(cb.timeout)
	default:
		cb.expiry = time.Time{}
	}
}

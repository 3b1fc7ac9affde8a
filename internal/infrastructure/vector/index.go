// Package vector 实现进程内的余弦相似度向量索引
//
// 设计说明:
// 1. 书目只有几千的量级,全量暴力扫描比引入向量数据库划算得多
// 2. 向量化依赖外部embedding服务,构建失败的书目跳过不入索引,
//    检索层会用词法通道兜底
// 3. 读多写少:Search用读锁并发,Rebuild整体替换后原子切换
package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/xiebiao/bookchat/internal/application/retrieval"
	"github.com/xiebiao/bookchat/internal/domain/book"
)

// Embedder 文本向量化接口(Ollama客户端实现)
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// entry 索引中的一条记录
type entry struct {
	bookID uint
	vector []float64
	norm   float64 // 预计算模长,查询时省一半计算
}

// Index 进程内余弦相似度索引
type Index struct {
	embedder Embedder
	logger   *zap.Logger

	mu      sync.RWMutex
	entries []entry
}

// NewIndex 创建向量索引
func NewIndex(embedder Embedder, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		embedder: embedder,
		logger:   logger,
	}
}

// Rebuild 全量重建索引
// 单本书向量化失败只跳过该书,不中断整体重建
func (idx *Index) Rebuild(ctx context.Context, books []*book.Book) error {
	entries := make([]entry, 0, len(books))

	for _, b := range books {
		vec, err := idx.embedder.Embed(ctx, b.EmbeddingText())
		if err != nil {
			idx.logger.Warn("图书向量化失败,跳过",
				zap.Uint("book_id", b.ID),
				zap.String("title", b.Title),
				zap.Error(err))
			continue
		}

		n := norm(vec)
		if n == 0 {
			continue
		}
		entries = append(entries, entry{bookID: b.ID, vector: vec, norm: n})
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()

	idx.logger.Info("向量索引重建完成",
		zap.Int("indexed", len(entries)),
		zap.Int("total", len(books)))
	return nil
}

// Search 返回与query最相似的topK本书,按相似度降序
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]retrieval.Match, error) {
	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	queryNorm := norm(queryVec)
	if queryNorm == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]retrieval.Match, 0, len(idx.entries))
	for _, e := range idx.entries {
		if len(e.vector) != len(queryVec) {
			// 换了embedding模型后旧索引维度不符,等待重建
			continue
		}
		score := dot(queryVec, e.vector) / (queryNorm * e.norm)
		matches = append(matches, retrieval.Match{BookID: e.bookID, Score: score})
	}

	// 相似度降序,只留topK
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

// Size 当前索引中的书目数(统计与健康检查用)
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

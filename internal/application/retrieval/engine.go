// Package retrieval 实现词法+语义的混合图书检索
//
// 设计说明:
// 1. 语义检索(向量索引)负责"意思相近",词法检索(LIKE)负责"字面命中"
// 2. 两路结果按图书ID合并去重,双路命中加分
// 3. 任何一路失败都降级而不报错:检索是对话的一环,宁可结果差也不能中断对话
package retrieval

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/bookchat/internal/domain/book"
	"github.com/xiebiao/bookchat/pkg/metrics"
)

// Match 向量索引返回的一条命中
type Match struct {
	BookID uint
	Score  float64
}

// SimilarityIndex 向量索引接口(infrastructure层实现)
type SimilarityIndex interface {
	// Search 返回与query最相似的topK本书,按相似度降序
	Search(ctx context.Context, query string, topK int) ([]Match, error)

	// Rebuild 全量重建索引(目录变更后调用)
	Rebuild(ctx context.Context, books []*book.Book) error
}

// Source 候选的来源标记
type Source string

const (
	SourceVector Source = "vector" // 仅语义命中
	SourceText   Source = "text"   // 仅词法命中
	SourceHybrid Source = "hybrid" // 双路命中
)

// Candidate 合并后的检索候选
type Candidate struct {
	Book       *book.Book
	Score      float64 // 合并后的相似度
	Source     Source
	FinalScore float64 // 排序用最终得分(相似度+业务加分)
}

// 合并与排序的打分常量
// 注意:这些数值是排序语义的一部分,调整会改变检索结果顺序
const (
	textBaselineScore = 0.5 // 仅词法命中的基准分
	hybridBoost       = 0.2 // 双路命中加分(封顶1.0)
	inStockBoost      = 0.1 // 有货加分
	titleMatchBoost   = 0.3 // 查询词是书名子串加分
	authorMatchBoost  = 0.2 // 查询词是作者子串加分

	// orderMatchThreshold 下单找书时语义命中的高置信阈值
	orderMatchThreshold = 0.8

	// defaultTopK 默认返回条数
	defaultTopK = 5
)

// Engine 混合检索引擎
type Engine struct {
	books  book.Repository
	index  SimilarityIndex
	logger *zap.Logger
}

// NewEngine 创建检索引擎
func NewEngine(books book.Repository, index SimilarityIndex, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		books:  books,
		index:  index,
		logger: logger,
	}
}

// Retrieve 混合检索,返回按相关度排序的前topK本书
//
// 流程:
// 1. 向量索引取2*topK个候选,逐个回查数据库(索引可能滞后,查不到的丢弃)
// 2. 词法检索(标题/作者/描述LIKE)
// 3. 按图书ID合并:仅语义保留原始相似度;仅词法给基准分0.5;
//    双路命中相似度+0.2封顶1.0
// 4. 计算最终得分并稳定排序(同分保持合并插入顺序)
// 5. 截断到topK
//
// 降级策略:向量检索失败走纯词法;整个流程失败兜底为原始词法检索,
// 本方法不向上传播错误
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) []*book.Book {
	if topK <= 0 {
		topK = defaultTopK
	}

	candidates, err := e.collect(ctx, query, topK)
	if err != nil {
		// 兜底:原始词法检索,失败则空结果
		e.logger.Error("检索流程失败,降级为词法检索",
			zap.String("query", query), zap.Error(err))
		books, lexErr := e.books.Search(ctx, query, topK)
		if lexErr != nil {
			e.logger.Error("词法兜底也失败", zap.Error(lexErr))
			return nil
		}
		return books
	}

	metrics.RetrievalCandidates.Observe(float64(len(candidates)))

	e.rank(candidates, query)

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	result := make([]*book.Book, len(candidates))
	for i, c := range candidates {
		result[i] = c.Book
	}
	return result
}

// collect 执行两路检索并合并
func (e *Engine) collect(ctx context.Context, query string, topK int) ([]*Candidate, error) {
	textResults, err := e.books.Search(ctx, query, 0)
	if err != nil {
		return nil, err
	}

	var vectorResults []*Candidate
	matches, err := e.index.Search(ctx, query, topK*2)
	if err != nil {
		// 语义检索失败:记日志,走纯词法
		e.logger.Warn("向量检索失败,降级为词法检索",
			zap.String("query", query), zap.Error(err))
	} else {
		for _, m := range matches {
			b, err := e.books.FindByID(ctx, m.BookID)
			if err != nil || b == nil {
				// 索引滞后:索引里有但库里没有,丢弃
				continue
			}
			vectorResults = append(vectorResults, &Candidate{
				Book:   b,
				Score:  m.Score,
				Source: SourceVector,
			})
		}
	}

	return mergeCandidates(vectorResults, textResults), nil
}

// mergeCandidates 按图书ID合并两路结果(保持插入顺序,排序稳定性依赖它)
func mergeCandidates(vectorResults []*Candidate, textResults []*book.Book) []*Candidate {
	merged := make([]*Candidate, 0, len(vectorResults)+len(textResults))
	byID := make(map[uint]*Candidate, len(vectorResults)+len(textResults))

	for _, c := range vectorResults {
		merged = append(merged, c)
		byID[c.Book.ID] = c
	}

	for _, b := range textResults {
		if existing, ok := byID[b.ID]; ok {
			existing.Score = existing.Score + hybridBoost
			if existing.Score > 1.0 {
				existing.Score = 1.0
			}
			existing.Source = SourceHybrid
			continue
		}
		c := &Candidate{Book: b, Score: textBaselineScore, Source: SourceText}
		merged = append(merged, c)
		byID[b.ID] = c
	}

	return merged
}

// rank 计算最终得分并稳定排序
func (e *Engine) rank(candidates []*Candidate, query string) {
	queryLower := strings.ToLower(query)

	for _, c := range candidates {
		score := c.Score
		if c.Book.Stock > 0 {
			score += inStockBoost
		}
		if strings.Contains(strings.ToLower(c.Book.Title), queryLower) {
			score += titleMatchBoost
		}
		if strings.Contains(strings.ToLower(c.Book.Author), queryLower) {
			score += authorMatchBoost
		}
		c.FinalScore = score
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})
}

// FindBookForOrder 按书名提示定位要下单的书
//
// 匹配顺序:
// 1. 书名完全一致(忽略大小写)
// 2. 语义命中且相似度超过高置信阈值
// 3. 词法检索的第一条
// 找不到返回nil,本方法不报错
func (e *Engine) FindBookForOrder(ctx context.Context, titleHint string) *book.Book {
	books, err := e.books.Search(ctx, titleHint, 0)
	if err != nil {
		e.logger.Error("下单找书失败", zap.String("hint", titleHint), zap.Error(err))
		return nil
	}
	if len(books) == 0 {
		return nil
	}

	hintLower := strings.ToLower(titleHint)
	for _, b := range books {
		if strings.ToLower(b.Title) == hintLower {
			return b
		}
	}

	if matches, err := e.index.Search(ctx, titleHint, 1); err == nil && len(matches) > 0 {
		if matches[0].Score > orderMatchThreshold {
			if b, err := e.books.FindByID(ctx, matches[0].BookID); err == nil && b != nil {
				return b
			}
		}
	}

	return books[0]
}

package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookchat/internal/domain/book"
)

// fakeBookRepo 内存图书仓储(仅实现检索用到的方法)
type fakeBookRepo struct {
	book.Repository
	books     []*book.Book
	searchErr error
}

func (r *fakeBookRepo) Search(_ context.Context, keyword string, _ int) ([]*book.Book, error) {
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	kw := strings.ToLower(keyword)
	var result []*book.Book
	for _, b := range r.books {
		if strings.Contains(strings.ToLower(b.Title), kw) ||
			strings.Contains(strings.ToLower(b.Author), kw) ||
			strings.Contains(strings.ToLower(b.Description), kw) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *fakeBookRepo) FindByID(_ context.Context, id uint) (*book.Book, error) {
	for _, b := range r.books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, book.ErrBookNotFound
}

// fakeIndex 固定返回预设命中的向量索引
type fakeIndex struct {
	matches []Match
	err     error
}

func (i *fakeIndex) Search(context.Context, string, int) ([]Match, error) {
	return i.matches, i.err
}

func (i *fakeIndex) Rebuild(context.Context, []*book.Book) error { return nil }

func catalog() []*book.Book {
	return []*book.Book{
		{ID: 1, Title: "Đắc Nhân Tâm", Author: "Dale Carnegie", Stock: 50, Description: "giao tiếp"},
		{ID: 2, Title: "Sapiens", Author: "Yuval Noah Harari", Stock: 30, Description: "lịch sử loài người"},
		{ID: 3, Title: "Atomic Habits", Author: "James Clear", Stock: 0, Description: "thói quen"},
		{ID: 4, Title: "Nhà Giả Kim", Author: "Paulo Coelho", Stock: 60, Description: "hành trình"},
	}
}

// TestEngine_HybridBoost 双路命中的书得分不低于纯语义,且排在前面
func TestEngine_HybridBoost(t *testing.T) {
	repo := &fakeBookRepo{books: catalog()}
	// 查询"lịch sử":词法命中Sapiens(描述),向量同时命中Sapiens和Đắc Nhân Tâm
	index := &fakeIndex{matches: []Match{
		{BookID: 1, Score: 0.7},
		{BookID: 2, Score: 0.6},
	}}
	engine := NewEngine(repo, index, nil)

	result := engine.Retrieve(context.Background(), "lịch sử", 5)

	require.Len(t, result, 2)
	// Sapiens: 0.6+0.2(hybrid)+0.1(有货)=0.9 > Đắc Nhân Tâm: 0.7+0.1=0.8
	assert.Equal(t, uint(2), result[0].ID)
	assert.Equal(t, uint(1), result[1].ID)
}

// TestEngine_HybridBoostCapped 双路加分封顶1.0
func TestEngine_HybridBoostCapped(t *testing.T) {
	vector := []*Candidate{{Book: &book.Book{ID: 2}, Score: 0.95, Source: SourceVector}}
	text := []*book.Book{{ID: 2}}

	merged := mergeCandidates(vector, text)

	require.Len(t, merged, 1)
	assert.Equal(t, 1.0, merged[0].Score)
	assert.Equal(t, SourceHybrid, merged[0].Source)
}

// TestEngine_TextOnlyBaseline 仅词法命中给基准分0.5
func TestEngine_TextOnlyBaseline(t *testing.T) {
	merged := mergeCandidates(nil, []*book.Book{{ID: 3}})

	require.Len(t, merged, 1)
	assert.Equal(t, 0.5, merged[0].Score)
	assert.Equal(t, SourceText, merged[0].Source)
}

// TestEngine_TieKeepsInsertionOrder 同分保持合并插入顺序
func TestEngine_TieKeepsInsertionOrder(t *testing.T) {
	engine := NewEngine(&fakeBookRepo{}, &fakeIndex{}, nil)
	candidates := []*Candidate{
		{Book: &book.Book{ID: 10, Title: "A"}, Score: 0.5},
		{Book: &book.Book{ID: 11, Title: "B"}, Score: 0.5},
		{Book: &book.Book{ID: 12, Title: "C"}, Score: 0.5},
	}

	engine.rank(candidates, "không khớp gì cả")

	assert.Equal(t, uint(10), candidates[0].Book.ID)
	assert.Equal(t, uint(11), candidates[1].Book.ID)
	assert.Equal(t, uint(12), candidates[2].Book.ID)
}

// TestEngine_StaleIndexIDDropped 索引里有但库里没有的ID被丢弃,不中断检索
func TestEngine_StaleIndexIDDropped(t *testing.T) {
	repo := &fakeBookRepo{books: catalog()}
	index := &fakeIndex{matches: []Match{
		{BookID: 999, Score: 0.9}, // 已不存在
		{BookID: 4, Score: 0.8},
	}}
	engine := NewEngine(repo, index, nil)

	result := engine.Retrieve(context.Background(), "kho báu", 5)

	require.Len(t, result, 1)
	assert.Equal(t, uint(4), result[0].ID)
}

// TestEngine_VectorFailureFallsBackToLexical 向量检索失败走纯词法
func TestEngine_VectorFailureFallsBackToLexical(t *testing.T) {
	repo := &fakeBookRepo{books: catalog()}
	index := &fakeIndex{err: errors.New("index down")}
	engine := NewEngine(repo, index, nil)

	result := engine.Retrieve(context.Background(), "thói quen", 5)

	require.Len(t, result, 1)
	assert.Equal(t, uint(3), result[0].ID)
}

// TestEngine_TopKTruncation 结果截断到topK
func TestEngine_TopKTruncation(t *testing.T) {
	repo := &fakeBookRepo{books: catalog()}
	index := &fakeIndex{matches: []Match{
		{BookID: 1, Score: 0.9},
		{BookID: 2, Score: 0.8},
		{BookID: 3, Score: 0.7},
		{BookID: 4, Score: 0.6},
	}}
	engine := NewEngine(repo, index, nil)

	result := engine.Retrieve(context.Background(), "sách", 2)

	assert.Len(t, result, 2)
}

func TestEngine_FindBookForOrder(t *testing.T) {
	repo := &fakeBookRepo{books: catalog()}
	engine := NewEngine(repo, &fakeIndex{}, nil)
	ctx := context.Background()

	// 书名完全一致(忽略大小写)
	b := engine.FindBookForOrder(ctx, "nhà giả kim")
	require.NotNil(t, b)
	assert.Equal(t, uint(4), b.ID)

	// 词法有命中但不完全一致:取第一条
	b = engine.FindBookForOrder(ctx, "Nhà Giả")
	require.NotNil(t, b)
	assert.Equal(t, uint(4), b.ID)

	// 完全找不到
	assert.Nil(t, engine.FindBookForOrder(ctx, "không tồn tại"))
}

// TestEngine_FindBookForOrder_SemanticHighConfidence 语义高置信命中优先于词法第一条
func TestEngine_FindBookForOrder_SemanticHighConfidence(t *testing.T) {
	repo := &fakeBookRepo{books: catalog()}
	// 词法对"sử"命中Sapiens(描述里有"lịch sử"),语义高置信指向Đắc Nhân Tâm
	index := &fakeIndex{matches: []Match{{BookID: 1, Score: 0.95}}}
	engine := NewEngine(repo, index, nil)

	b := engine.FindBookForOrder(context.Background(), "sử")
	require.NotNil(t, b)
	assert.Equal(t, uint(1), b.ID)
}

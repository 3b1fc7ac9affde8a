package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookchat/internal/application/intent"
	orderuc "github.com/xiebiao/bookchat/internal/application/order"
	"github.com/xiebiao/bookchat/internal/domain/book"
	"github.com/xiebiao/bookchat/internal/domain/order"
	"github.com/xiebiao/bookchat/internal/domain/session"
)

// ---------- 测试替身 ----------

// memSessionStore 进程内会话存储
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*session.Session)}
}

func (s *memSessionStore) GetOrCreate(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess := session.NewSession(id)
	s.sessions[id] = sess
	return sess, nil
}

func (s *memSessionStore) Reset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memSessionStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sessions)), nil
}

// fakeRetriever 固定返回预设书单
type fakeRetriever struct {
	books []*book.Book
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string, topK int) []*book.Book {
	if topK > 0 && len(r.books) > topK {
		return r.books[:topK]
	}
	return r.books
}

func (r *fakeRetriever) FindBookForOrder(_ context.Context, titleHint string) *book.Book {
	hint := strings.ToLower(titleHint)
	for _, b := range r.books {
		if strings.Contains(strings.ToLower(b.Title), hint) {
			return b
		}
	}
	return nil
}

// chatBookRepo 进程内图书仓储(只实现下单路径用到的方法)
type chatBookRepo struct {
	book.Repository
	mu    sync.Mutex
	books map[uint]*book.Book
}

func newChatBookRepo(books ...*book.Book) *chatBookRepo {
	m := make(map[uint]*book.Book, len(books))
	for _, b := range books {
		m[b.ID] = b
	}
	return &chatBookRepo{books: m}
}

func (r *chatBookRepo) LockByID(_ context.Context, id uint) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *chatBookRepo) UpdateStock(_ context.Context, id uint, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	if b.Stock+delta < 0 {
		return book.ErrInsufficientStock
	}
	b.Stock += delta
	return nil
}

func (r *chatBookRepo) stock(id uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.books[id].Stock
}

// chatOrderRepo 进程内订单仓储
type chatOrderRepo struct {
	mu     sync.Mutex
	nextID uint
	orders []*order.Order
	books  map[uint]*book.Book
}

func newChatOrderRepo(books map[uint]*book.Book) *chatOrderRepo {
	return &chatOrderRepo{nextID: 1, books: books}
}

func (r *chatOrderRepo) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = r.nextID
	r.nextID++
	o.CreatedAt = time.Now()
	r.orders = append(r.orders, o)
	return nil
}

func (r *chatOrderRepo) FindByID(_ context.Context, id uint) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *chatOrderRepo) Update(_ context.Context, _ *order.Order) error { return nil }

func (r *chatOrderRepo) ListByPhone(_ context.Context, phone string) ([]*order.OrderWithBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*order.OrderWithBook
	for i := len(r.orders) - 1; i >= 0; i-- {
		o := r.orders[i]
		if o.Phone != phone {
			continue
		}
		row := &order.OrderWithBook{Order: *o}
		if b, ok := r.books[o.BookID]; ok {
			row.BookTitle = b.Title
			row.PricePerBook = b.Price
		}
		result = append(result, row)
	}
	return result, nil
}

func (r *chatOrderRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

// chatTxManager 直通事务(测试中无需回滚语义)
type chatTxManager struct{}

func (chatTxManager) Transaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// fixedClassifier 返回固定分类结果(绕过规则引擎,单测指定路由)
type fixedClassifier struct {
	result intent.Result
}

func (c *fixedClassifier) Classify(_ context.Context, _ string, _ intent.Context) intent.Result {
	return c.result
}

// panicRetriever 触发顶层recover路径
type panicRetriever struct{}

func (panicRetriever) Retrieve(_ context.Context, _ string, _ int) []*book.Book {
	panic("index corrupted")
}

func (panicRetriever) FindBookForOrder(_ context.Context, _ string) *book.Book {
	panic("index corrupted")
}

// failingGenerator 模型不可用
type failingGenerator struct{}

func (failingGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "", errors.New("connection refused")
}

// ---------- 组装 ----------

func testCatalog() []*book.Book {
	return []*book.Book{
		{ID: 1, Title: "Đắc Nhân Tâm", Author: "Dale Carnegie", Price: 85000, Stock: 50, Category: "Phát triển bản thân"},
		{ID: 2, Title: "Sapiens", Author: "Yuval Noah Harari", Price: 120000, Stock: 30, Category: "Lịch sử"},
		{ID: 3, Title: "Nhà Giả Kim", Author: "Paulo Coelho", Price: 65000, Stock: 0, Category: "Tiểu thuyết"},
	}
}

type managerFixture struct {
	manager   *Manager
	bookRepo  *chatBookRepo
	orderRepo *chatOrderRepo
	store     *memSessionStore
}

func newManagerFixture(books []*book.Book) *managerFixture {
	bookRepo := newChatBookRepo(books...)
	orderRepo := newChatOrderRepo(bookRepo.books)
	store := newMemSessionStore()

	manager := NewManager(
		store,
		intent.NewClassifier(nil, nil),
		&fakeRetriever{books: books},
		orderuc.NewPlaceOrderUseCase(orderRepo, bookRepo, chatTxManager{}),
		orderuc.NewListOrdersUseCase(orderRepo),
		nil, // 无模型,回复全走模板
		5,
		nil,
	)

	return &managerFixture{
		manager:   manager,
		bookRepo:  bookRepo,
		orderRepo: orderRepo,
		store:     store,
	}
}

// ---------- 测试 ----------

// TestFullOrderConversation 完整下单对话:
// 找书 → 指代下单 → 补全信息 → 确认 → 订单落库且库存扣减
func TestFullOrderConversation(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-full-flow"

	// 第一轮:找书,回复带书单,lastBooks被记录
	reply := f.manager.ProcessMessage(ctx, sid, "tìm sách về lịch sử")
	assert.Contains(t, reply, "Đắc Nhân Tâm")
	assert.Contains(t, reply, "Sapiens")

	// 第二轮:顺序指代"cuốn số 1" → Đắc Nhân Tâm,进入确认阶段并提示缺槽
	reply = f.manager.ProcessMessage(ctx, sid, "đặt cuốn số 1")
	assert.Contains(t, reply, "THIẾU THÔNG TIN")
	assert.Contains(t, reply, "Đắc Nhân Tâm")

	sess, err := f.store.GetOrCreate(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, sess.PendingOrder)
	assert.Equal(t, uint(1), sess.PendingOrder.BookID)

	// 第三轮:按模板补全 → 草稿齐全,出确认单(2×85000=170,000)
	reply = f.manager.ProcessMessage(ctx, sid,
		"Tên: Nguyễn Văn A, Số lượng: 2, SĐT: 0912345678, Địa chỉ: Hà Nội")
	assert.Contains(t, reply, "THÔNG TIN ĐƠN HÀNG")
	assert.Contains(t, reply, "Nguyễn Văn A")
	assert.Contains(t, reply, "170,000")

	// 第四轮:确认 → 下单成功,库存50→48,草稿清空
	reply = f.manager.ProcessMessage(ctx, sid, "có")
	assert.Contains(t, reply, "ĐẶT HÀNG THÀNH CÔNG")
	assert.Equal(t, 48, f.bookRepo.stock(1))
	assert.Nil(t, sess.PendingOrder)

	count, _ := f.orderRepo.Count(ctx)
	assert.Equal(t, int64(1), count)

	created := f.orderRepo.orders[0]
	assert.Equal(t, "0912345678", created.Phone)
	assert.Equal(t, 2, created.Quantity)
	assert.Equal(t, order.OrderStatusPending, created.Status)
}

// TestOrderCancellation 确认阶段取消
func TestOrderCancellation(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-cancel"

	f.manager.ProcessMessage(ctx, sid, "tìm sách hay")
	f.manager.ProcessMessage(ctx, sid, "đặt cuốn đầu tiên")

	reply := f.manager.ProcessMessage(ctx, sid, "thôi hủy đi")
	assert.Equal(t, replyCancelled, reply)

	sess, _ := f.store.GetOrCreate(ctx, sid)
	assert.Nil(t, sess.PendingOrder)
	assert.Equal(t, 50, f.bookRepo.stock(1))
}

// TestEditFlowSingleShot 修改流程:一条消息只消费一次修改阶段
func TestEditFlowSingleShot(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-edit"

	f.manager.ProcessMessage(ctx, sid, "tìm sách")
	f.manager.ProcessMessage(ctx, sid, "đặt cuốn số 1")
	f.manager.ProcessMessage(ctx, sid,
		"Tên: Nguyễn Văn A, Số lượng: 2, SĐT: 0912345678, Địa chỉ: Hà Nội")

	// 请求修改电话 → 进入修改阶段
	reply := f.manager.ProcessMessage(ctx, sid, "sửa số điện thoại")
	assert.Contains(t, reply, "số điện thoại")

	sess, _ := f.store.GetOrCreate(ctx, sid)
	require.Equal(t, []session.Field{session.FieldPhone}, sess.EditingFields)

	// 提供新电话 → 覆盖旧值,修改阶段结束,重新出确认单
	reply = f.manager.ProcessMessage(ctx, sid, "SĐT: 0987654321")
	assert.Contains(t, reply, "THÔNG TIN ĐƠN HÀNG")
	assert.Contains(t, reply, "0987654321")
	assert.Empty(t, sess.EditingFields)
	assert.Equal(t, "0987654321", sess.PendingOrder.Phone)
	// 其余字段保持不变
	assert.Equal(t, "Nguyễn Văn A", sess.PendingOrder.CustomerName)
	assert.Equal(t, 2, sess.PendingOrder.Quantity)
}

// TestEditApplyClearsFieldsEvenWithoutValue 修改消息没抽到值也退出修改阶段
func TestEditApplyClearsFieldsEvenWithoutValue(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-edit-miss"

	f.manager.ProcessMessage(ctx, sid, "tìm sách")
	f.manager.ProcessMessage(ctx, sid, "đặt cuốn số 1")
	f.manager.ProcessMessage(ctx, sid,
		"Tên: Nguyễn Văn A, Số lượng: 2, SĐT: 0912345678, Địa chỉ: Hà Nội")
	f.manager.ProcessMessage(ctx, sid, "sửa địa chỉ")

	// 消息里抽不出地址 → 原值保留,修改阶段仍然结束
	f.manager.ProcessMessage(ctx, sid, "ờm để tôi nghĩ")

	sess, _ := f.store.GetOrCreate(ctx, sid)
	assert.Empty(t, sess.EditingFields)
	assert.Equal(t, "Hà Nội", sess.PendingOrder.Address)
}

// TestEditRequestUnknownField 说"sửa"但没说字段 → 追问,停留在确认阶段
func TestEditRequestUnknownField(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-edit-ask"

	f.manager.ProcessMessage(ctx, sid, "tìm sách")
	f.manager.ProcessMessage(ctx, sid, "đặt cuốn số 1")

	reply := f.manager.ProcessMessage(ctx, sid, "sai rồi")
	assert.Equal(t, replyAskEditField, reply)

	sess, _ := f.store.GetOrCreate(ctx, sid)
	assert.Empty(t, sess.EditingFields)
	assert.NotNil(t, sess.PendingOrder)
}

// TestConfirmWithMissingFields 信息不全时确认 → 拒绝并列出缺项
func TestConfirmWithMissingFields(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-confirm-missing"

	f.manager.ProcessMessage(ctx, sid, "tìm sách")
	f.manager.ProcessMessage(ctx, sid, "đặt cuốn số 1")

	reply := f.manager.ProcessMessage(ctx, sid, "có")
	assert.Contains(t, reply, "Vẫn còn thiếu thông tin")
	assert.Contains(t, reply, "số điện thoại")

	count, _ := f.orderRepo.Count(ctx)
	assert.Equal(t, int64(0), count)
}

// TestOrderOutOfStockBook 下单时选中缺货书
func TestOrderOutOfStockBook(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-oos"

	reply := f.manager.ProcessMessage(ctx, sid, "đặt sách Nhà Giả Kim")
	assert.Contains(t, reply, "hết hàng")
	assert.Contains(t, reply, "Nhà Giả Kim")

	sess, _ := f.store.GetOrCreate(ctx, sid)
	assert.Nil(t, sess.PendingOrder)
}

// TestConfirmStockDepletedBetweenTurns 确认瞬间库存被其他会话买光
func TestConfirmStockDepletedBetweenTurns(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-race"

	f.manager.ProcessMessage(ctx, sid, "tìm sách")
	f.manager.ProcessMessage(ctx, sid, "đặt cuốn số 1")
	f.manager.ProcessMessage(ctx, sid,
		"Tên: Trần B, Số lượng: 2, SĐT: 0912345678, Địa chỉ: Đà Nẵng")

	// 确认前库存被清零
	require.NoError(t, f.bookRepo.UpdateStock(ctx, 1, -50))

	reply := f.manager.ProcessMessage(ctx, sid, "xác nhận")
	assert.Contains(t, reply, "hết hàng")

	sess, _ := f.store.GetOrCreate(ctx, sid)
	assert.Nil(t, sess.PendingOrder)
	count, _ := f.orderRepo.Count(ctx)
	assert.Equal(t, int64(0), count)
}

// TestOrderWithoutBookReference 没有任何书名线索
func TestOrderWithoutBookReference(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()

	reply := f.manager.ProcessMessage(ctx, "sess-no-book", "tôi muốn mua")
	assert.Equal(t, replyAskBook, reply)
}

// TestOrderStatusByBarePhone 纯号码消息直接查单
func TestOrderStatusByBarePhone(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()

	// 先生成一笔订单
	const sid = "sess-status-setup"
	f.manager.ProcessMessage(ctx, sid, "tìm sách")
	f.manager.ProcessMessage(ctx, sid, "đặt cuốn số 1")
	f.manager.ProcessMessage(ctx, sid,
		"Tên: Lê C, Số lượng: 1, SĐT: 0901234567, Địa chỉ: Huế")
	f.manager.ProcessMessage(ctx, sid, "có")

	reply := f.manager.ProcessMessage(ctx, "sess-status-query", "0901234567")
	assert.Contains(t, reply, "ĐƠN HÀNG CỦA BẠN")
	assert.Contains(t, reply, "Đắc Nhân Tâm")
	assert.Contains(t, reply, "Chờ xác nhận")
}

// TestOrderStatusNoOrders 查无订单
func TestOrderStatusNoOrders(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()

	reply := f.manager.ProcessMessage(ctx, "sess-status-empty", "0999999999")
	assert.Contains(t, reply, "Không tìm thấy đơn hàng")
	assert.Contains(t, reply, "0999999999")
}

// TestOrderStatusAsksForPhone 查单意图但没给号码
func TestOrderStatusAsksForPhone(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()

	reply := f.manager.ProcessMessage(ctx, "sess-status-ask", "kiểm tra đơn hàng của tôi")
	assert.Equal(t, replyAskPhone, reply)
}

// TestSearchNoResults 检索无结果
func TestSearchNoResults(t *testing.T) {
	f := newManagerFixture(nil)
	ctx := context.Background()

	reply := f.manager.ProcessMessage(ctx, "sess-empty", "tìm sách về vật lý lượng tử")
	assert.Equal(t, replyNoBooks, reply)
}

// TestGeneralFallbackWelcome 闲聊且无模型 → 欢迎语
func TestGeneralFallbackWelcome(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()

	reply := f.manager.ProcessMessage(ctx, "sess-general", "xin chào")
	assert.Equal(t, replyWelcome, reply)
}

// TestGeneratorFailureFallsBackToTemplate 模型故障时检索回复走模板
func TestGeneratorFailureFallsBackToTemplate(t *testing.T) {
	books := testCatalog()
	bookRepo := newChatBookRepo(books...)
	orderRepo := newChatOrderRepo(bookRepo.books)

	manager := NewManager(
		newMemSessionStore(),
		intent.NewClassifier(nil, nil),
		&fakeRetriever{books: books},
		orderuc.NewPlaceOrderUseCase(orderRepo, bookRepo, chatTxManager{}),
		orderuc.NewListOrdersUseCase(orderRepo),
		failingGenerator{},
		5,
		nil,
	)

	reply := manager.ProcessMessage(context.Background(), "sess-gen-fail", "tìm sách hay")
	assert.Contains(t, reply, "Tôi tìm thấy những cuốn sách sau")
}

// TestPanicRecovery 处理过程panic → 道歉文案,不向上传播
func TestPanicRecovery(t *testing.T) {
	bookRepo := newChatBookRepo(testCatalog()...)
	orderRepo := newChatOrderRepo(bookRepo.books)

	manager := NewManager(
		newMemSessionStore(),
		&fixedClassifier{result: intent.Result{Intent: "SEARCH", Confidence: 1.0}},
		panicRetriever{},
		orderuc.NewPlaceOrderUseCase(orderRepo, bookRepo, chatTxManager{}),
		orderuc.NewListOrdersUseCase(orderRepo),
		nil,
		5,
		nil,
	)

	assert.NotPanics(t, func() {
		reply := manager.ProcessMessage(context.Background(), "sess-panic", "tìm sách")
		assert.Equal(t, replyApology, reply)
	})
}

// TestSupplementInfoInConfirmation 确认阶段补充单个字段
func TestSupplementInfoInConfirmation(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-supplement"

	f.manager.ProcessMessage(ctx, sid, "tìm sách")
	f.manager.ProcessMessage(ctx, sid, "đặt 2 cuốn số 1")

	sess, _ := f.store.GetOrCreate(ctx, sid)
	require.NotNil(t, sess.PendingOrder)
	assert.Equal(t, 2, sess.PendingOrder.Quantity)

	// 分多轮补充
	f.manager.ProcessMessage(ctx, sid, "Tên: Phạm D")
	assert.Equal(t, "Phạm D", sess.PendingOrder.CustomerName)

	f.manager.ProcessMessage(ctx, sid, "SĐT: 0912345678")
	assert.Equal(t, "0912345678", sess.PendingOrder.Phone)

	reply := f.manager.ProcessMessage(ctx, sid, "Địa chỉ: Hải Phòng")
	assert.Contains(t, reply, "THÔNG TIN ĐƠN HÀNG")
	assert.True(t, sess.PendingOrder.Complete())
}

// TestSessionHistoryRecorded 每轮用户与助手发言都进历史
func TestSessionHistoryRecorded(t *testing.T) {
	f := newManagerFixture(testCatalog())
	ctx := context.Background()
	const sid = "sess-history"

	f.manager.ProcessMessage(ctx, sid, "xin chào")

	sess, _ := f.store.GetOrCreate(ctx, sid)
	require.Len(t, sess.History, 2)
	assert.Equal(t, session.RoleUser, sess.History[0].Role)
	assert.Equal(t, "xin chào", sess.History[0].Text)
	assert.Equal(t, session.RoleAssistant, sess.History[1].Role)
}

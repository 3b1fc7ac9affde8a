package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookchat/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构并导入种子书目（空库时）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 连接池配置
	// 学习要点：合理的连接池配置对性能至关重要
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Println("✓ 数据库连接成功")

	// 自动迁移表结构（开发环境）
	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	if err := seedBooks(db); err != nil {
		return nil, fmt.Errorf("导入种子书目失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 学习要点:
// 1. AutoMigrate只会创建表、添加字段,不会删除或修改现有字段
// 2. 生产环境应使用版本化的迁移脚本,不要依赖AutoMigrate
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BookModel{},
		&OrderModel{},
	)
}

// seedBooks 空库时导入初始书目
// 对话助手需要开箱即用的目录,上线后由运营维护
func seedBooks(db *gorm.DB) error {
	var count int64
	if err := db.Model(&BookModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []BookModel{
		{
			Title:       "Đắc Nhân Tâm",
			Author:      "Dale Carnegie",
			Price:       85000,
			Stock:       50,
			Category:    "Phát triển bản thân",
			Description: "Cuốn sách về nghệ thuật giao tiếp và ứng xử, giúp bạn thu phục lòng người.",
		},
		{
			Title:       "Sapiens: Lược Sử Loài Người",
			Author:      "Yuval Noah Harari",
			Price:       120000,
			Stock:       30,
			Category:    "Lịch sử",
			Description: "Hành trình tiến hóa của loài người từ thời tiền sử đến hiện đại.",
		},
		{
			Title:       "Atomic Habits",
			Author:      "James Clear",
			Price:       95000,
			Stock:       25,
			Category:    "Phát triển bản thân",
			Description: "Phương pháp xây dựng thói quen tốt và loại bỏ thói quen xấu.",
		},
		{
			Title:       "Tôi Tài Giỏi, Bạn Cũng Thế",
			Author:      "Adam Khoo",
			Price:       75000,
			Stock:       40,
			Category:    "Giáo dục",
			Description: "Phương pháp học tập hiệu quả dành cho học sinh và sinh viên.",
		},
		{
			Title:       "Nhà Giả Kim",
			Author:      "Paulo Coelho",
			Price:       65000,
			Stock:       60,
			Category:    "Tiểu thuyết",
			Description: "Câu chuyện về chàng chăn cừu Santiago đi tìm kho báu và ý nghĩa cuộc đời.",
		},
	}

	if err := db.Create(&seed).Error; err != nil {
		return err
	}

	log.Printf("✓ 已导入%d本种子书目", len(seed))
	return nil
}

// BookModel GORM图书模型
// 设计说明:
// 1. 这是infrastructure层的数据模型,包含GORM tag
// 2. domain/book/entity.go是领域实体,不依赖GORM
// 3. Repository负责两者之间的转换
// 4. 价格使用int64存储越南盾(整数货币,无小数位)
type BookModel struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"index:idx_search;size:200;not null;comment:书名"` // 搜索索引
	Author      string    `gorm:"index:idx_search;size:100;not null;comment:作者"` // 搜索索引
	Price       int64     `gorm:"not null;comment:价格(越南盾)"`
	Stock       int       `gorm:"default:0;comment:库存数量"`
	Category    string    `gorm:"index;size:100;comment:类目"`
	Description string    `gorm:"type:text;comment:图书描述"`
	CreatedAt   time.Time `gorm:"comment:创建时间"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// OrderModel GORM订单模型
// 教学要点:
// 1. 对话下单无账号体系,电话号码即买家身份,必须加索引
// 2. Status使用int存储(节省空间,便于索引)
// 3. 单书单订单:一条消息一笔订单,不做购物车
type OrderModel struct {
	ID           uint      `gorm:"primaryKey"`
	CustomerName string    `gorm:"size:100;not null;comment:收件人姓名"`
	Phone        string    `gorm:"index;size:20;not null;comment:电话号码(查单身份)"`
	Address      string    `gorm:"size:500;not null;comment:收货地址"`
	BookID       uint      `gorm:"index;not null;comment:图书ID"`
	Quantity     int       `gorm:"not null;comment:购买数量"`
	Status       int       `gorm:"index;type:tinyint;default:1;comment:订单状态(1待确认2已确认3配送中4已完成5已取消)"`
	CreatedAt    time.Time `gorm:"index;comment:创建时间"`
	UpdatedAt    time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

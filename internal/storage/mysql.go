package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"careermate-go/internal/config"
	"careermate-go/internal/storage/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("careermate-go/storage/mysql")

// 业务层可感知的存储错误
var (
	ErrJobPostingNotFound = errors.New("岗位不存在")
	ErrResumeNotFound     = errors.New("候选人简历不存在")
)

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

type gormSpanKey struct{}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()); err != nil {
		return err
	}

	return nil
}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		spanName := fmt.Sprintf("%s %s", operation, tableName)
		newCtx, span := p.tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)

		// 将span保存在DB上下文中，以便在after回调中使用
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		// ErrRecordNotFound 是业务逻辑正常情况的一部分，不作为错误处理
		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.SetAttributes(attribute.String("error.type", "database_error"))
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer: mysqlTracer,
		dbName: dbName,
	}
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 构建DSN，添加超时设置
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds)

	// 配置GORM日志级别
	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // 禁用自动外键创建
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true, // 开启预编译语句缓存
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	// 注册OpenTelemetry追踪插件
	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	// 使用 GORM 的 AutoMigrate 功能自动迁移表结构
	if err := m.autoMigrateSchema(); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	currentLogger := m.db.Logger

	// 创建一个静默的logger以关闭迁移期间的SQL日志打印
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	err := silentDB.AutoMigrate(
		&models.Candidate{},
		&models.JobPosting{},
		&models.JobPostingSkill{},
		&models.Resume{},
		&models.ResumeSkill{},
		&models.WorkExperience{},
		&models.Education{},
		&models.Certificate{},
		&models.HighlightProject{},
		&models.Award{},
		&models.ForeignLanguage{},
	)

	// 恢复原来的日志记录器
	m.db = m.db.Session(&gorm.Session{Logger: currentLogger})

	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// GetJobPostingByID 获取岗位及其技能要求。岗位不存在时返回ErrJobPostingNotFound。
func (m *MySQL) GetJobPostingByID(ctx context.Context, jobPostingID uint) (*models.JobPosting, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.GetJobPostingByID",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(attribute.Int("job_posting.id", int(jobPostingID)))

	var job models.JobPosting
	err := m.db.WithContext(ctx).
		Preload("Skills").
		First(&job, "job_posting_id = ?", jobPostingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "job posting not found")
			return nil, ErrJobPostingNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("查询岗位失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return &job, nil
}

// GetResumeByCandidateID 获取候选人完整简历（含候选人信息与全部分节）。
// 简历不存在时返回ErrResumeNotFound。
func (m *MySQL) GetResumeByCandidateID(ctx context.Context, candidateID uint) (*models.Resume, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.GetResumeByCandidateID",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(attribute.Int("candidate.id", int(candidateID)))

	var resume models.Resume
	err := m.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Skills").
		Preload("WorkExperiences").
		Preload("Educations").
		Preload("Certificates").
		Preload("HighlightProjects").
		Preload("Awards").
		Preload("ForeignLanguages").
		First(&resume, "candidate_id = ?", candidateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "resume not found")
			return nil, ErrResumeNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("查询候选人简历失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return &resume, nil
}

// ListCandidateIDsWithResume 列出所有已有简历的候选人ID，供全量档案同步使用
func (m *MySQL) ListCandidateIDsWithResume(ctx context.Context) ([]uint, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.ListCandidateIDsWithResume",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var ids []uint
	err := m.db.WithContext(ctx).
		Model(&models.Resume{}).
		Order("candidate_id ASC").
		Pluck("candidate_id", &ids).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("列出候选人ID失败: %w", err)
	}

	span.SetAttributes(attribute.Int("candidates.count", len(ids)))
	span.SetStatus(codes.Ok, "")
	return ids, nil
}

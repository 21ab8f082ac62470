package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careermate-go/internal/api/handler"
	"careermate-go/internal/api/router"
	"careermate-go/internal/config"
	"careermate-go/internal/logger"
	"careermate-go/internal/matcher"
	"careermate-go/internal/recommender"
	"careermate-go/internal/scorer"
	"careermate-go/internal/storage"
	"careermate-go/internal/tracing"
	"careermate-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"      //nolint:gochecknoglobals
	serviceName = "careermate" //nolint:gochecknoglobals
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 初始化链路追踪
	shutdownTracing, err := tracing.InitProvider(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		ServiceName:  cfg.Tracing.ServiceName,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}
	glog.Info("链路追踪初始化成功")

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	if storageManager.MySQL == nil {
		glog.Fatalf("MySQL未初始化，服务无法启动")
	}
	glog.Info("存储服务初始化成功")

	// 组装核心服务
	skillMatcher := matcher.NewSkillMatcher()
	qualScorer := scorer.NewQualificationScorer(skillMatcher)

	var vectorStore recommender.VectorStore
	var schemaManager recommender.SchemaManager
	if storageManager.Weaviate != nil {
		vectorStore = storageManager.Weaviate
		schemaManager = storageManager.Weaviate
	} else {
		glog.Fatalf("Weaviate未初始化，推荐服务无法启动")
	}

	profileService := recommender.NewProfileService(storageManager.MySQL, vectorStore, schemaManager, qualScorer)
	recommendService := recommender.NewRecommendationService(
		storageManager.MySQL, storageManager.MySQL, vectorStore,
		skillMatcher, qualScorer, cfg.Recommender,
	)
	glog.Info("推荐服务初始化成功")

	// 启动档案同步消费者
	var consumerStop chan struct{}
	if storageManager.RabbitMQ != nil {
		consumerStop, err = storageManager.RabbitMQ.StartProfileSyncConsumer(func(event types.ProfileSyncEvent) bool {
			return profileService.HandleProfileSyncEvent(context.Background(), event)
		})
		if err != nil {
			glog.Fatalf("启动档案同步消费者失败: %v", err)
		}
		glog.Info("档案同步消费者启动成功")
	} else {
		glog.Warn("RabbitMQ未初始化，档案同步仅支持HTTP触发")
	}

	// HTTP服务器
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	recHandler := handler.NewRecommendationHandler(cfg, storageManager, recommendService, profileService)
	router.RegisterRoutes(h, cfg, recHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if consumerStop != nil {
		close(consumerStop)
		glog.Info("档案同步消费者已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("链路追踪关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化zerolog并桥接到Hertz的glog
func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	logger.Logger = logger.Logger.With().
		Str("app", serviceName).
		Str("version", version).
		Logger()

	// Hertz框架日志统一走zerolog
	glog.SetLogger(hertzadapter.From(logger.Logger))
}

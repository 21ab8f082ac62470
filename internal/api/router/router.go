package router

import (
	"context"

	"careermate-go/internal/api/handler"
	"careermate-go/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, cfg *config.Config, rec *handler.RecommendationHandler) {
	api := h.Group("/api/v1")

	// 推荐与评分
	jobs := api.Group("/jobs")
	jobs.GET("/:job_id/candidates/recommend", rec.HandleRecommendCandidates)
	jobs.GET("/:job_id/candidates/:candidate_id/score", rec.HandleScoreCandidate)

	// 档案同步
	candidates := api.Group("/candidates")
	candidates.POST("/sync-all", rec.HandleSyncAllCandidates)
	candidates.POST("/:candidate_id/sync", rec.HandleSyncCandidate)
	candidates.DELETE("/:candidate_id/profile", rec.HandleDeleteCandidateProfile)

	// 管理接口：破坏性操作需要API Key
	admin := api.Group("/admin", keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			return cfg.AdminAPIKey != "" && key == cfg.AdminAPIKey, nil
		}),
	))
	admin.POST("/schema/recreate", rec.HandleRecreateSchema)

	// 健康检查
	api.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

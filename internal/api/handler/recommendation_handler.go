package handler

import (
	"context"
	"errors"
	"strconv"

	"careermate-go/internal/config"
	"careermate-go/internal/logger"
	"careermate-go/internal/recommender"
	"careermate-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RecommendationHandler 负责候选人推荐与档案同步相关的HTTP请求
type RecommendationHandler struct {
	cfg      *config.Config
	storage  *storage.Storage
	recSvc   *recommender.RecommendationService
	profiles *recommender.ProfileService
}

// NewRecommendationHandler 创建推荐处理器
func NewRecommendationHandler(cfg *config.Config, s *storage.Storage, recSvc *recommender.RecommendationService, profiles *recommender.ProfileService) *RecommendationHandler {
	return &RecommendationHandler{
		cfg:      cfg,
		storage:  s,
		recSvc:   recSvc,
		profiles: profiles,
	}
}

// HandleRecommendCandidates 为岗位推荐候选人。
// GET /api/v1/jobs/:job_id/candidates/recommend?max_candidates=&min_match_score=
// 结果按(岗位,参数)缓存；缓存未命中时用岗位级锁防止并发重复计算。
func (h *RecommendationHandler) HandleRecommendCandidates(ctx context.Context, c *app.RequestContext) {
	jobPostingID, ok := parseUintParam(c, "job_id")
	if !ok {
		return
	}

	maxCandidates, minMatchScore := h.recSvc.RecommendationDefaults()
	if v := c.Query("max_candidates"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxCandidates = parsed
		}
	}
	if v := c.Query("min_match_score"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			minMatchScore = parsed
		}
	}

	// 缓存优先
	if h.storage.Redis != nil {
		cached, err := h.storage.Redis.GetCachedRecommendation(ctx, jobPostingID, maxCandidates, minMatchScore)
		if err == nil {
			logger.Ctx(ctx).Debug().Uint("job_posting_id", jobPostingID).Msg("推荐结果缓存命中")
			c.JSON(consts.StatusOK, cached)
			return
		}
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Ctx(ctx).Warn().Err(err).Msg("读取推荐缓存失败，直接计算")
		}

		// 缓存未命中，抢岗位级计算锁
		acquired, lockErr := h.storage.Redis.AcquireRecommendationLock(ctx, jobPostingID)
		if lockErr != nil {
			logger.Ctx(ctx).Warn().Err(lockErr).Msg("获取推荐计算锁失败，继续执行可能导致重复计算")
		} else if !acquired {
			c.JSON(consts.StatusAccepted, utils.H{
				"message":     "推荐计算正在进行中，请稍后重试",
				"status":      "processing",
				"retry_after": 2,
			})
			return
		} else {
			defer func() {
				if releaseErr := h.storage.Redis.ReleaseRecommendationLock(ctx, jobPostingID); releaseErr != nil {
					logger.Ctx(ctx).Warn().Err(releaseErr).Uint("job_posting_id", jobPostingID).Msg("释放推荐计算锁失败")
				}
			}()
		}
	}

	response, err := h.recSvc.RecommendCandidatesForJob(ctx, jobPostingID, maxCandidates, minMatchScore)
	if err != nil {
		h.writeServiceError(ctx, c, err)
		return
	}

	if h.storage.Redis != nil {
		if cacheErr := h.storage.Redis.CacheRecommendation(ctx, jobPostingID, maxCandidates, minMatchScore, response); cacheErr != nil {
			logger.Ctx(ctx).Warn().Err(cacheErr).Msg("写入推荐缓存失败")
		}
	}

	c.JSON(consts.StatusOK, response)
}

// HandleScoreCandidate 单个候选人对岗位的详细评分。
// GET /api/v1/jobs/:job_id/candidates/:candidate_id/score
func (h *RecommendationHandler) HandleScoreCandidate(ctx context.Context, c *app.RequestContext) {
	jobPostingID, ok := parseUintParam(c, "job_id")
	if !ok {
		return
	}
	candidateID, ok := parseUintParam(c, "candidate_id")
	if !ok {
		return
	}

	response, err := h.recSvc.ScoreCandidateForJob(ctx, jobPostingID, candidateID)
	if err != nil {
		h.writeServiceError(ctx, c, err)
		return
	}

	c.JSON(consts.StatusOK, response)
}

// HandleSyncCandidate 同步单个候选人档案到向量库。
// POST /api/v1/candidates/:candidate_id/sync
func (h *RecommendationHandler) HandleSyncCandidate(ctx context.Context, c *app.RequestContext) {
	candidateID, ok := parseUintParam(c, "candidate_id")
	if !ok {
		return
	}

	if err := h.profiles.SyncCandidateProfile(ctx, candidateID); err != nil {
		h.writeServiceError(ctx, c, err)
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"message":      "候选人档案已同步",
		"candidate_id": candidateID,
	})
}

// HandleSyncAllCandidates 全量同步所有候选人档案。
// POST /api/v1/candidates/sync-all
func (h *RecommendationHandler) HandleSyncAllCandidates(ctx context.Context, c *app.RequestContext) {
	result, err := h.profiles.SyncAllCandidateProfiles(ctx)
	if err != nil {
		h.writeServiceError(ctx, c, err)
		return
	}

	c.JSON(consts.StatusOK, result)
}

// HandleDeleteCandidateProfile 从向量库删除候选人档案。
// DELETE /api/v1/candidates/:candidate_id/profile
func (h *RecommendationHandler) HandleDeleteCandidateProfile(ctx context.Context, c *app.RequestContext) {
	candidateID, ok := parseUintParam(c, "candidate_id")
	if !ok {
		return
	}

	if err := h.profiles.DeleteCandidateProfile(ctx, candidateID); err != nil {
		h.writeServiceError(ctx, c, err)
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"message":      "候选人档案已删除",
		"candidate_id": candidateID,
	})
}

// HandleRecreateSchema 重建向量库schema。破坏性操作，路由层有API Key保护。
// POST /api/v1/admin/schema/recreate
func (h *RecommendationHandler) HandleRecreateSchema(ctx context.Context, c *app.RequestContext) {
	if err := h.profiles.RecreateSchema(ctx); err != nil {
		h.writeServiceError(ctx, c, err)
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"message": "向量库schema已重建，请执行全量同步恢复档案",
	})
}

// writeServiceError 统一的服务错误到HTTP状态码映射
func (h *RecommendationHandler) writeServiceError(ctx context.Context, c *app.RequestContext, err error) {
	switch {
	case errors.Is(err, storage.ErrJobPostingNotFound), errors.Is(err, storage.ErrResumeNotFound):
		c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("请求处理失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
	}
}

// parseUintParam 解析路径参数为uint，失败时直接写400响应
func parseUintParam(c *app.RequestContext, name string) (uint, bool) {
	raw := c.Param(name)
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": name + " 必须是正整数"})
		return 0, false
	}
	return uint(parsed), true
}

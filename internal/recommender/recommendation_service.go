package recommender

import (
	"context"
	"sort"
	"strings"
	"time"

	"careermate-go/internal/config"
	"careermate-go/internal/constants"
	"careermate-go/internal/logger"
	"careermate-go/internal/matcher"
	"careermate-go/internal/scorer"
	"careermate-go/internal/storage/models"
	"careermate-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var recommenderTracer = otel.Tracer("careermate-go/recommender")

// 综合分融合公式中各信号的权重与经验系数
const (
	fusionSkillWeight    = 0.5
	fusionSemanticWeight = 0.4

	expFactorMeets = 1.2 // 达到岗位年限要求
	expFactorHalf  = 1.0 // 达到要求的一半以上
	expFactorBelow = 0.8 // 不足要求的一半
)

// JobStore 岗位读取接口
type JobStore interface {
	GetJobPostingByID(ctx context.Context, jobPostingID uint) (*models.JobPosting, error)
}

// RecommendationService 候选人推荐服务：
// 岗位要求 -> 向量召回 -> 技能精确匹配 -> 融合打分 -> 过滤排序截断
type RecommendationService struct {
	jobs    JobStore
	resumes ResumeStore
	vector  VectorStore
	matcher *matcher.SkillMatcher
	scorer  *scorer.QualificationScorer
	cfg     config.RecommenderConfig
}

// NewRecommendationService 创建推荐服务
func NewRecommendationService(jobs JobStore, resumes ResumeStore, vector VectorStore, m *matcher.SkillMatcher, s *scorer.QualificationScorer, cfg config.RecommenderConfig) *RecommendationService {
	if m == nil {
		m = matcher.NewSkillMatcher()
	}
	if s == nil {
		s = scorer.NewQualificationScorer(m)
	}
	return &RecommendationService{
		jobs:    jobs,
		resumes: resumes,
		vector:  vector,
		matcher: m,
		scorer:  s,
		cfg:     cfg,
	}
}

// RecommendCandidatesForJob 为岗位推荐候选人。
// maxCandidates<=0与minMatchScore<=0时使用配置默认值。
// 岗位不存在时返回storage.ErrJobPostingNotFound；向量库故障降级为空结果。
func (s *RecommendationService) RecommendCandidatesForJob(ctx context.Context, jobPostingID uint, maxCandidates int, minMatchScore float64) (*types.RecommendationResponse, error) {
	ctx, span := recommenderTracer.Start(ctx, "RecommendationService.RecommendCandidatesForJob")
	defer span.End()

	started := time.Now()

	if maxCandidates <= 0 {
		maxCandidates = s.cfg.DefaultMaxCandidates
	}
	if minMatchScore <= 0 {
		minMatchScore = s.cfg.DefaultMinMatchScore
	}

	span.SetAttributes(
		attribute.Int("job_posting.id", int(jobPostingID)),
		attribute.Int("request.max_candidates", maxCandidates),
		attribute.Float64("request.min_match_score", minMatchScore),
	)

	job, err := s.jobs.GetJobPostingByID(ctx, jobPostingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	response := &types.RecommendationResponse{
		JobPostingID:    jobPostingID,
		JobTitle:        job.Title,
		Recommendations: []types.RecommendedCandidate{},
	}

	requiredSkills := s.requiredSkillsForJob(ctx, job)
	if len(requiredSkills) == 0 {
		logger.Ctx(ctx).Warn().
			Uint("job_posting_id", jobPostingID).
			Msg("岗位没有任何可用的技能要求，返回空推荐")
		response.ProcessingTimeMillis = time.Since(started).Milliseconds()
		span.SetStatus(codes.Ok, "no required skills")
		return response, nil
	}

	// 放大召回量，给后置过滤留余量
	fetchLimit := maxCandidates * s.cfg.OverFetchMultiplier
	if fetchLimit <= 0 {
		fetchLimit = maxCandidates
	}

	hits, err := s.vector.SearchCandidateProfiles(ctx, requiredSkills, s.cfg.SemanticCertainty, fetchLimit)
	if err != nil {
		// 向量库故障不致命，推荐降级为空结果
		logger.Ctx(ctx).Error().Err(err).
			Uint("job_posting_id", jobPostingID).
			Msg("向量召回失败，推荐降级为空结果")
		span.RecordError(err)
		span.SetStatus(codes.Ok, "vector search degraded")
		response.ProcessingTimeMillis = time.Since(started).Milliseconds()
		return response, nil
	}

	span.SetAttributes(attribute.Int("search.hits", len(hits)))

	scored := make([]types.RecommendedCandidate, 0, len(hits))
	for _, hit := range hits {
		if hit.CandidateID <= 0 {
			continue
		}

		combined := s.fuseScores(requiredSkills, hit.Skills, hit.Certainty, hit.TotalYearsExperience, job.YearsOfExperience)
		if combined < minMatchScore {
			continue
		}

		scored = append(scored, types.RecommendedCandidate{
			CandidateID:          uint(hit.CandidateID),
			Name:                 hit.Name,
			Email:                hit.Email,
			MatchScore:           combined,
			MatchedSkills:        s.matcher.FindMatchingSkills(requiredSkills, hit.Skills),
			MissingSkills:        s.matcher.FindMissingSkills(requiredSkills, hit.Skills),
			TotalYearsExperience: hit.TotalYearsExperience,
			ProfileSummary:       hit.ProfileSummary,
		})
	}

	// 分数降序，同分按经验年限降序
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].MatchScore != scored[j].MatchScore {
			return scored[i].MatchScore > scored[j].MatchScore
		}
		return scored[i].TotalYearsExperience > scored[j].TotalYearsExperience
	})

	// 总数统计在截断之前
	response.TotalCandidatesFound = len(scored)
	if len(scored) > maxCandidates {
		scored = scored[:maxCandidates]
	}
	response.Recommendations = scored
	response.ProcessingTimeMillis = time.Since(started).Milliseconds()

	span.SetAttributes(
		attribute.Int("result.total_found", response.TotalCandidatesFound),
		attribute.Int("result.returned", len(response.Recommendations)),
		attribute.Int64("result.elapsed_ms", response.ProcessingTimeMillis),
	)
	span.SetStatus(codes.Ok, "")

	logger.Ctx(ctx).Info().
		Uint("job_posting_id", jobPostingID).
		Int("total_found", response.TotalCandidatesFound).
		Int("returned", len(response.Recommendations)).
		Int64("elapsed_ms", response.ProcessingTimeMillis).
		Msg("候选人推荐计算完成")
	return response, nil
}

// ScoreCandidateForJob 计算单个候选人对岗位的七维度详细评分。
// 语义分从向量库尽力获取，失败时按0处理，不影响其余维度。
func (s *RecommendationService) ScoreCandidateForJob(ctx context.Context, jobPostingID, candidateID uint) (*types.CandidateScoreResponse, error) {
	ctx, span := recommenderTracer.Start(ctx, "RecommendationService.ScoreCandidateForJob")
	defer span.End()

	span.SetAttributes(
		attribute.Int("job_posting.id", int(jobPostingID)),
		attribute.Int("candidate.id", int(candidateID)),
	)

	job, err := s.jobs.GetJobPostingByID(ctx, jobPostingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resume, err := s.resumes.GetResumeByCandidateID(ctx, candidateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	requiredSkills := s.requiredSkillsForJob(ctx, job)

	semanticScore := 0.0
	if len(requiredSkills) > 0 {
		certainty, certErr := s.vector.GetCandidateCertainty(ctx, requiredSkills, candidateID)
		if certErr != nil {
			logger.Ctx(ctx).Debug().Err(certErr).
				Uint("candidate_id", candidateID).
				Msg("获取语义相似度失败，按0计")
		} else {
			semanticScore = certainty
		}
	}

	score := s.scorer.Score(resume, requiredSkills, job.YearsOfExperience, semanticScore)

	candidateName := ""
	if resume.Candidate != nil {
		candidateName = resume.Candidate.FullName
	}

	span.SetAttributes(attribute.Float64("result.total_score", score.TotalScore))
	span.SetStatus(codes.Ok, "")

	return &types.CandidateScoreResponse{
		JobPostingID:  jobPostingID,
		JobTitle:      job.Title,
		CandidateID:   candidateID,
		CandidateName: candidateName,
		SemanticScore: semanticScore,
		Score:         score,
	}, nil
}

// fuseScores 融合技能匹配分与语义相似度，再按经验年限校正。
// combined = min(1.0, (skillMatch*0.5 + certainty*0.4) * expFactor)
func (s *RecommendationService) fuseScores(requiredSkills, candidateSkills []string, certainty float64, candidateYears, requiredYears int) float64 {
	skillMatch := s.matcher.EnhancedMatchScore(requiredSkills, candidateSkills)
	combined := (skillMatch*fusionSkillWeight + certainty*fusionSemanticWeight) * experienceFactor(candidateYears, requiredYears)
	if combined > 1.0 {
		return 1.0
	}
	if combined < 0.0 {
		return 0.0
	}
	return combined
}

// experienceFactor 经验年限校正系数
func experienceFactor(candidateYears, requiredYears int) float64 {
	if requiredYears <= 0 {
		return expFactorHalf
	}
	if candidateYears >= requiredYears {
		return expFactorMeets
	}
	if float64(candidateYears) >= float64(requiredYears)/2.0 {
		return expFactorHalf
	}
	return expFactorBelow
}

// requiredSkillsForJob 提取岗位的必备技能。
// 优先使用显式技能标签；没有标签时从JD全文降级提取关键词。
func (s *RecommendationService) requiredSkillsForJob(ctx context.Context, job *models.JobPosting) []string {
	skills := make([]string, 0, len(job.Skills))
	seen := make(map[string]struct{}, len(job.Skills))
	for _, skill := range job.Skills {
		name := strings.TrimSpace(skill.SkillName)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, name)
	}
	if len(skills) > 0 {
		return skills
	}

	keywords := extractDescriptionKeywords(job.Description, s.cfg.MaxDescriptionKeywords)
	if len(keywords) > 0 {
		logger.Ctx(ctx).Debug().
			Uint("job_posting_id", job.JobPostingID).
			Int("keywords", len(keywords)).
			Msg("岗位无技能标签，降级使用JD关键词")
	}
	return keywords
}

// extractDescriptionKeywords 从JD全文提取关键词：
// 按非字母数字切词，保留长度大于阈值的词，去重并限量。
func extractDescriptionKeywords(description string, limit int) []string {
	if limit <= 0 {
		limit = 20
	}

	words := strings.FieldsFunc(description, func(r rune) bool {
		return !isWordRune(r)
	})

	keywords := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, word := range words {
		if len(word) <= constants.MinDescriptionKeywordLength {
			continue
		}
		key := strings.ToLower(word)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) >= limit {
			break
		}
	}
	return keywords
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '+' || r == '#' || r == '.':
		// 保留C++、C#、Node.js这类技术名
		return true
	default:
		return false
	}
}

// RecommendationDefaults 返回推荐参数默认值，供HTTP层回填
func (s *RecommendationService) RecommendationDefaults() (maxCandidates int, minMatchScore float64) {
	return s.cfg.DefaultMaxCandidates, s.cfg.DefaultMinMatchScore
}

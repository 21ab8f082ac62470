package recommender

import (
	"context"
	"testing"

	"careermate-go/internal/config"
	"careermate-go/internal/storage"
	"careermate-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- 手写mock协作者 ----

type mockJobStore struct {
	job   *models.JobPosting
	err   error
	calls int
}

func (m *mockJobStore) GetJobPostingByID(ctx context.Context, jobPostingID uint) (*models.JobPosting, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.job, nil
}

type mockResumeStore struct {
	resume  *models.Resume
	ids     []uint
	err     error
	listErr error
}

func (m *mockResumeStore) GetResumeByCandidateID(ctx context.Context, candidateID uint) (*models.Resume, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resume, nil
}

func (m *mockResumeStore) ListCandidateIDsWithResume(ctx context.Context) ([]uint, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.ids, nil
}

type mockVectorStore struct {
	hits         []storage.CandidateHit
	searchErr    error
	searchCalls  int
	lastLimit    int
	lastConcepts []string

	certainty float64
	certErr   error

	upserts   []*storage.CandidateProfile
	deleted   []uint
	upsertErr error
}

func (m *mockVectorStore) UpsertCandidateProfile(ctx context.Context, profile *storage.CandidateProfile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, profile)
	return nil
}

func (m *mockVectorStore) DeleteCandidateProfile(ctx context.Context, candidateID uint) error {
	m.deleted = append(m.deleted, candidateID)
	return nil
}

func (m *mockVectorStore) SearchCandidateProfiles(ctx context.Context, concepts []string, certainty float64, limit int) ([]storage.CandidateHit, error) {
	m.searchCalls++
	m.lastLimit = limit
	m.lastConcepts = concepts
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

func (m *mockVectorStore) GetCandidateCertainty(ctx context.Context, concepts []string, candidateID uint) (float64, error) {
	if m.certErr != nil {
		return 0, m.certErr
	}
	return m.certainty, nil
}

func testRecommenderConfig() config.RecommenderConfig {
	return config.RecommenderConfig{
		DefaultMaxCandidates:   10,
		DefaultMinMatchScore:   0.5,
		SemanticCertainty:      0.3,
		OverFetchMultiplier:    3,
		MaxDescriptionKeywords: 20,
	}
}

func newTestService(jobs *mockJobStore, resumes *mockResumeStore, vector *mockVectorStore) *RecommendationService {
	return NewRecommendationService(jobs, resumes, vector, nil, nil, testRecommenderConfig())
}

// ---- 推荐流程 ----

// TestRecommendSynonymFullMatch 同义技能全匹配且语义分高的候选人拿到高分
func TestRecommendSynonymFullMatch(t *testing.T) {
	jobs := &mockJobStore{job: &models.JobPosting{
		JobPostingID:      1,
		Title:             "Backend Engineer",
		YearsOfExperience: 2,
		Skills: []models.JobPostingSkill{
			{SkillName: "JavaScript"},
			{SkillName: "Kubernetes"},
		},
	}}
	vector := &mockVectorStore{hits: []storage.CandidateHit{
		{
			CandidateID:          42,
			Name:                 "Jordan Smith",
			Email:                "jordan@example.com",
			Skills:               []string{"js", "k8s"},
			TotalYearsExperience: 5,
			Certainty:            0.9,
		},
	}}

	svc := newTestService(jobs, &mockResumeStore{}, vector)
	resp, err := svc.RecommendCandidatesForJob(context.Background(), 1, 0, 0)
	require.NoError(t, err)

	require.Len(t, resp.Recommendations, 1)
	rec := resp.Recommendations[0]
	assert.Equal(t, uint(42), rec.CandidateID)
	// 技能全匹配(1.0*0.5) + 语义0.9*0.4，再乘经验系数1.2后封顶
	assert.Greater(t, rec.MatchScore, 0.8)
	assert.LessOrEqual(t, rec.MatchScore, 1.0)
	assert.ElementsMatch(t, []string{"JavaScript", "Kubernetes"}, rec.MatchedSkills)
	assert.Empty(t, rec.MissingSkills)
	assert.Equal(t, "Backend Engineer", resp.JobTitle)
	assert.Equal(t, 1, resp.TotalCandidatesFound)

	// 召回量按配置放大
	assert.Equal(t, 30, vector.lastLimit)
}

// TestRecommendJobNotFound 岗位不存在时错误原样传播
func TestRecommendJobNotFound(t *testing.T) {
	jobs := &mockJobStore{err: storage.ErrJobPostingNotFound}
	vector := &mockVectorStore{}

	svc := newTestService(jobs, &mockResumeStore{}, vector)
	_, err := svc.RecommendCandidatesForJob(context.Background(), 99, 0, 0)
	assert.ErrorIs(t, err, storage.ErrJobPostingNotFound)
	assert.Equal(t, 0, vector.searchCalls)
}

// TestRecommendNoRequiredSkills 无技能标签且JD为空时不触碰向量库
func TestRecommendNoRequiredSkills(t *testing.T) {
	jobs := &mockJobStore{job: &models.JobPosting{
		JobPostingID: 2,
		Title:        "Mystery Role",
	}}
	vector := &mockVectorStore{}

	svc := newTestService(jobs, &mockResumeStore{}, vector)
	resp, err := svc.RecommendCandidatesForJob(context.Background(), 2, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, resp.TotalCandidatesFound)
	assert.Empty(t, resp.Recommendations)
	assert.Equal(t, 0, vector.searchCalls)
}

// TestRecommendDescriptionFallback 无技能标签时降级使用JD关键词
func TestRecommendDescriptionFallback(t *testing.T) {
	jobs := &mockJobStore{job: &models.JobPosting{
		JobPostingID: 3,
		Title:        "Engineer",
		Description:  "Looking for Java and Spring engineers to join us",
	}}
	vector := &mockVectorStore{}

	svc := newTestService(jobs, &mockResumeStore{}, vector)
	_, err := svc.RecommendCandidatesForJob(context.Background(), 3, 0, 0)
	require.NoError(t, err)

	require.Equal(t, 1, vector.searchCalls)
	assert.Contains(t, vector.lastConcepts, "Java")
	assert.Contains(t, vector.lastConcepts, "Spring")
	// 短词被过滤
	assert.NotContains(t, vector.lastConcepts, "for")
	assert.NotContains(t, vector.lastConcepts, "and")
}

// TestRecommendVectorStoreFailure 向量库故障降级为空结果而非报错
func TestRecommendVectorStoreFailure(t *testing.T) {
	jobs := &mockJobStore{job: &models.JobPosting{
		JobPostingID: 4,
		Title:        "Engineer",
		Skills:       []models.JobPostingSkill{{SkillName: "Go"}},
	}}
	vector := &mockVectorStore{searchErr: assert.AnError}

	svc := newTestService(jobs, &mockResumeStore{}, vector)
	resp, err := svc.RecommendCandidatesForJob(context.Background(), 4, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, resp.TotalCandidatesFound)
	assert.Empty(t, resp.Recommendations)
}

// TestRecommendFilterSortTruncate 过滤、排序、截断与截断前总数统计
func TestRecommendFilterSortTruncate(t *testing.T) {
	jobs := &mockJobStore{job: &models.JobPosting{
		JobPostingID:      5,
		Title:             "Platform Engineer",
		YearsOfExperience: 3,
		Skills: []models.JobPostingSkill{
			{SkillName: "Go"},
			{SkillName: "Kubernetes"},
		},
	}}
	vector := &mockVectorStore{hits: []storage.CandidateHit{
		// 全匹配、经验达标：高分
		{CandidateID: 1, Skills: []string{"golang", "k8s"}, TotalYearsExperience: 6, Certainty: 0.8},
		// 同分候选（同技能同语义），经验更少，排在后面
		{CandidateID: 2, Skills: []string{"golang", "k8s"}, TotalYearsExperience: 4, Certainty: 0.8},
		// 技能不匹配且语义低：被阈值过滤
		{CandidateID: 3, Skills: []string{"photoshop"}, TotalYearsExperience: 1, Certainty: 0.35},
	}}

	svc := newTestService(jobs, &mockResumeStore{}, vector)
	resp, err := svc.RecommendCandidatesForJob(context.Background(), 5, 1, 0.5)
	require.NoError(t, err)

	// 过滤后2人，截断前统计
	assert.Equal(t, 2, resp.TotalCandidatesFound)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, uint(1), resp.Recommendations[0].CandidateID)
}

// TestExperienceFactor 经验校正系数分档
func TestExperienceFactor(t *testing.T) {
	tests := []struct {
		name           string
		candidateYears int
		requiredYears  int
		want           float64
	}{
		{"岗位不限年限", 0, 0, 1.0},
		{"达到要求", 5, 5, 1.2},
		{"超过要求", 8, 5, 1.2},
		{"达到一半", 3, 6, 1.0},
		{"不足一半", 2, 6, 0.8},
		{"无经验有要求", 0, 4, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, experienceFactor(tt.candidateYears, tt.requiredYears), 1e-9)
		})
	}
}

// TestExtractDescriptionKeywords 关键词提取：长度过滤、去重、限量
func TestExtractDescriptionKeywords(t *testing.T) {
	keywords := extractDescriptionKeywords("Java java JAVA Spring and C++ Go", 20)
	// Java仅保留一次（大小写不敏感去重），短词Go/and/C++被过滤
	assert.Equal(t, []string{"Java", "Spring"}, keywords)

	// 限量
	limited := extractDescriptionKeywords("alpha bravo charlie delta echo", 2)
	assert.Len(t, limited, 2)

	// 空描述
	assert.Empty(t, extractDescriptionKeywords("", 20))
}

// ---- 单候选人详细评分 ----

// TestScoreCandidateForJob 语义分获取失败时按0计，其余维度正常
func TestScoreCandidateForJob(t *testing.T) {
	jobs := &mockJobStore{job: &models.JobPosting{
		JobPostingID:      7,
		Title:             "Backend Engineer",
		YearsOfExperience: 0,
		Skills:            []models.JobPostingSkill{{SkillName: "Java"}},
	}}
	resumes := &mockResumeStore{resume: &models.Resume{
		CandidateID: 11,
		Candidate:   &models.Candidate{CandidateID: 11, FullName: "Alex Chen"},
		Skills:      []models.ResumeSkill{{SkillName: "java"}},
	}}
	vector := &mockVectorStore{certErr: assert.AnError}

	svc := newTestService(jobs, resumes, vector)
	resp, err := svc.ScoreCandidateForJob(context.Background(), 7, 11)
	require.NoError(t, err)

	assert.Equal(t, uint(7), resp.JobPostingID)
	assert.Equal(t, uint(11), resp.CandidateID)
	assert.Equal(t, "Alex Chen", resp.CandidateName)
	assert.Equal(t, 0.0, resp.SemanticScore)
	// 技能子分: 精确匹配1.0*0.6 + 语义0*0.4
	assert.InDelta(t, 0.6, resp.Score.SkillScore, 1e-9)
	assert.Greater(t, resp.Score.TotalScore, 0.0)
}

// TestScoreCandidateResumeNotFound 简历缺失时错误原样传播
func TestScoreCandidateResumeNotFound(t *testing.T) {
	jobs := &mockJobStore{job: &models.JobPosting{JobPostingID: 8, Title: "Engineer"}}
	resumes := &mockResumeStore{err: storage.ErrResumeNotFound}

	svc := newTestService(jobs, resumes, &mockVectorStore{})
	_, err := svc.ScoreCandidateForJob(context.Background(), 8, 12)
	assert.ErrorIs(t, err, storage.ErrResumeNotFound)
}

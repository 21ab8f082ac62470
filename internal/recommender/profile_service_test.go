package recommender

import (
	"context"
	"testing"
	"time"

	"careermate-go/internal/storage"
	"careermate-go/internal/storage/models"
	"careermate-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func testDate(year, month, day int) *datatypes.Date {
	d := datatypes.Date(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
	return &d
}

// multiResumeStore 按候选人ID返回不同结果的简历mock
type multiResumeStore struct {
	resumes map[uint]*models.Resume
	ids     []uint
}

func (m *multiResumeStore) GetResumeByCandidateID(ctx context.Context, candidateID uint) (*models.Resume, error) {
	resume, ok := m.resumes[candidateID]
	if !ok {
		return nil, storage.ErrResumeNotFound
	}
	return resume, nil
}

func (m *multiResumeStore) ListCandidateIDsWithResume(ctx context.Context) ([]uint, error) {
	return m.ids, nil
}

// TestBuildCandidateProfile 档案组装：摘要格式与元数据
func TestBuildCandidateProfile(t *testing.T) {
	svc := NewProfileService(&mockResumeStore{}, &mockVectorStore{}, nil, nil)

	resume := &models.Resume{
		CandidateID: 21,
		AboutMe:     "Backend developer who loves distributed systems.",
		Candidate:   &models.Candidate{CandidateID: 21, FullName: "Sam Lee", Email: "sam@example.com"},
		Skills: []models.ResumeSkill{
			{SkillName: "Go"},
			{SkillName: "Kubernetes"},
			{SkillName: "  "}, // 空白技能被丢弃
		},
		WorkExperiences: []models.WorkExperience{
			{
				JobTitle:    "Backend Engineer",
				Company:     "Acme",
				Description: "Built payment services",
				StartDate:   testDate(2019, 1, 1),
				EndDate:     testDate(2022, 1, 1),
			},
			{
				JobTitle:  "Senior Engineer",
				Company:   "Globex",
				StartDate: testDate(2022, 2, 1),
				EndDate:   testDate(2024, 3, 1),
			},
		},
		Educations: []models.Education{
			{Degree: "Bachelor", Major: "Computer Science", School: "State University"},
		},
		Certificates: []models.Certificate{
			{Name: "AWS Solutions Architect"},
		},
		HighlightProjects: []models.HighlightProject{
			{Name: "Payment Gateway", Description: "High-volume payment routing"},
		},
		Awards: []models.Award{
			{Name: "ACM ICPC Gold Medal", Organization: "ACM"},
		},
		ForeignLanguages: []models.ForeignLanguage{
			{Language: "English", ProficiencyLevel: "C1"},
		},
	}

	profile := svc.BuildCandidateProfile(resume)

	assert.Equal(t, uint(21), profile.CandidateID)
	assert.Equal(t, "Sam Lee", profile.Name)
	assert.Equal(t, "sam@example.com", profile.Email)
	assert.Equal(t, []string{"Go", "Kubernetes"}, profile.Skills)
	// 3年 + 2年(整年差)
	assert.Equal(t, 5, profile.TotalYearsExperience)

	assert.Equal(t,
		"Backend Engineer at Acme: Built payment services. Senior Engineer at Globex",
		profile.WorkSummary)
	assert.Equal(t, "Bachelor in Computer Science, State University", profile.EducationSummary)

	// 四个格式化列表作为独立属性存入向量库
	assert.Equal(t, []string{"AWS Solutions Architect"}, profile.Certificates)
	assert.Equal(t, []string{"Payment Gateway"}, profile.Projects)
	assert.Equal(t, []string{"ACM ICPC Gold Medal (ACM)"}, profile.Awards)
	assert.Equal(t, []string{"English (C1)"}, profile.Languages)

	assert.Contains(t, profile.ProfileSummary, "Backend developer")
	assert.Contains(t, profile.ProfileSummary, "Skills: Go, Kubernetes")
	assert.Contains(t, profile.ProfileSummary, "Certificates: AWS Solutions Architect")
	assert.Contains(t, profile.ProfileSummary, "Projects: Payment Gateway")
	assert.Contains(t, profile.ProfileSummary, "Awards: ACM ICPC Gold Medal (ACM)")
	assert.Contains(t, profile.ProfileSummary, "Languages: English (C1)")
	assert.False(t, profile.UpdatedAt.IsZero())
}

// TestSyncCandidateProfile 同步单个候选人档案
func TestSyncCandidateProfile(t *testing.T) {
	vector := &mockVectorStore{}
	resumes := &multiResumeStore{resumes: map[uint]*models.Resume{
		31: {
			CandidateID: 31,
			Candidate:   &models.Candidate{CandidateID: 31, FullName: "Pat Kim"},
			Skills:      []models.ResumeSkill{{SkillName: "Python"}},
		},
	}}

	svc := NewProfileService(resumes, vector, nil, nil)

	require.NoError(t, svc.SyncCandidateProfile(context.Background(), 31))
	require.Len(t, vector.upserts, 1)
	assert.Equal(t, uint(31), vector.upserts[0].CandidateID)

	// 简历不存在时传播NotFound
	err := svc.SyncCandidateProfile(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrResumeNotFound)
}

// TestSyncAllCandidateProfiles 批量同步：单个失败只计数不中断
func TestSyncAllCandidateProfiles(t *testing.T) {
	vector := &mockVectorStore{}
	resumes := &multiResumeStore{
		ids: []uint{1, 2, 3},
		resumes: map[uint]*models.Resume{
			1: {CandidateID: 1},
			3: {CandidateID: 3},
			// 候选人2没有简历，同步失败
		},
	}

	svc := NewProfileService(resumes, vector, nil, nil)
	result, err := svc.SyncAllCandidateProfiles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, vector.upserts, 2)
}

// TestDeleteCandidateProfile 删除档案
func TestDeleteCandidateProfile(t *testing.T) {
	vector := &mockVectorStore{}
	svc := NewProfileService(&mockResumeStore{}, vector, nil, nil)

	require.NoError(t, svc.DeleteCandidateProfile(context.Background(), 55))
	assert.Equal(t, []uint{55}, vector.deleted)
}

// TestHandleProfileSyncEvent 消费事件的Ack/Nack决策
func TestHandleProfileSyncEvent(t *testing.T) {
	vector := &mockVectorStore{}
	resumes := &multiResumeStore{resumes: map[uint]*models.Resume{
		61: {CandidateID: 61},
	}}
	svc := NewProfileService(resumes, vector, nil, nil)
	ctx := context.Background()

	// 正常同步事件
	assert.True(t, svc.HandleProfileSyncEvent(ctx, types.ProfileSyncEvent{
		CandidateID: 61, Action: types.ProfileActionSync,
	}))
	assert.Len(t, vector.upserts, 1)

	// 简历已不存在的过期事件：丢弃而非重试
	assert.True(t, svc.HandleProfileSyncEvent(ctx, types.ProfileSyncEvent{
		CandidateID: 999, Action: types.ProfileActionSync,
	}))

	// 删除事件
	assert.True(t, svc.HandleProfileSyncEvent(ctx, types.ProfileSyncEvent{
		CandidateID: 61, Action: types.ProfileActionDelete,
	}))
	assert.Equal(t, []uint{61}, vector.deleted)

	// 未知动作：丢弃
	assert.True(t, svc.HandleProfileSyncEvent(ctx, types.ProfileSyncEvent{
		CandidateID: 61, Action: "reindex",
	}))

	// 向量库故障：要求重试
	vector.upsertErr = assert.AnError
	assert.False(t, svc.HandleProfileSyncEvent(ctx, types.ProfileSyncEvent{
		CandidateID: 61, Action: types.ProfileActionSync,
	}))
}

// TestRecreateSchemaRequiresManager 未配置schema管理器时报错
func TestRecreateSchemaRequiresManager(t *testing.T) {
	svc := NewProfileService(&mockResumeStore{}, &mockVectorStore{}, nil, nil)
	assert.Error(t, svc.RecreateSchema(context.Background()))
}

package scorer

import (
	"testing"
	"time"

	"careermate-go/internal/matcher"
	"careermate-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// fixedNow 测试用固定时钟，保证近期加分可复现
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestScorer() *QualificationScorer {
	return NewQualificationScorer(matcher.NewSkillMatcher(), WithClock(func() time.Time {
		return fixedNow
	}))
}

func dateOf(year, month, day int) *datatypes.Date {
	d := datatypes.Date(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
	return &d
}

// TestTotalYearsOfExperience 经验年限为各段整年差之和
func TestTotalYearsOfExperience(t *testing.T) {
	s := newTestScorer()

	experiences := []models.WorkExperience{
		{StartDate: dateOf(2018, 1, 1), EndDate: dateOf(2021, 1, 1)}, // 3年
		{StartDate: dateOf(2021, 3, 1), EndDate: dateOf(2023, 9, 1)}, // 2年(整年差)
	}
	assert.Equal(t, 5, s.TotalYearsOfExperience(experiences))

	// EndDate为空视为至今
	current := []models.WorkExperience{
		{StartDate: dateOf(2023, 6, 1), EndDate: nil},
	}
	assert.Equal(t, 2, s.TotalYearsOfExperience(current))

	// 缺失开始日期、或日期倒置的脏数据直接跳过
	dirty := []models.WorkExperience{
		{StartDate: nil, EndDate: dateOf(2020, 1, 1)},
		{StartDate: dateOf(2022, 1, 1), EndDate: dateOf(2020, 1, 1)},
	}
	assert.Equal(t, 0, s.TotalYearsOfExperience(dirty))
}

// TestScoreEmptyResume 空简历不报错，得到低但确定的分数
func TestScoreEmptyResume(t *testing.T) {
	s := newTestScorer()

	result := s.Score(&models.Resume{}, []string{"Java"}, 0, 0)
	assert.GreaterOrEqual(t, result.TotalScore, 0.0)
	assert.LessOrEqual(t, result.TotalScore, 1.0)
	// 无年限要求时经验子分为基础分0.5
	assert.InDelta(t, 0.5, result.ExperienceScore, 1e-9)
	assert.Equal(t, 0.0, result.SkillScore)

	// nil简历同样安全
	nilResult := s.Score(nil, nil, 0, 0)
	assert.GreaterOrEqual(t, nilResult.TotalScore, 0.0)
}

// TestScoreExperienceBoundaries 经验子分的边界行为
func TestScoreExperienceBoundaries(t *testing.T) {
	s := newTestScorer()

	// 有要求但无经验：0.0
	zero := s.scoreExperience(nil, 5)
	assert.Equal(t, 0.0, zero)

	// 刚好达到要求：基础分0.8
	exact := s.scoreExperience([]models.WorkExperience{
		{JobTitle: "Software Engineer", StartDate: dateOf(2020, 6, 15), EndDate: dateOf(2025, 6, 15)},
	}, 5)
	assert.InDelta(t, 0.8, exact, 1e-9)

	// 大幅超出要求：0.8+0.2封顶
	over := s.scoreExperience([]models.WorkExperience{
		{JobTitle: "Software Engineer", StartDate: dateOf(2010, 1, 1), EndDate: dateOf(2025, 1, 1)},
	}, 5)
	assert.InDelta(t, 1.0, over, 1e-9)

	// 不足要求：线性折算
	partial := s.scoreExperience([]models.WorkExperience{
		{JobTitle: "Software Engineer", StartDate: dateOf(2023, 6, 15), EndDate: dateOf(2025, 6, 15)},
	}, 4)
	assert.InDelta(t, 2.0/4.0*0.7, partial, 1e-9)
}

// TestScoreExperienceSeniorityMultipliers 资深头衔乘数
func TestScoreExperienceSeniorityMultipliers(t *testing.T) {
	s := newTestScorer()

	plain := s.scoreExperience([]models.WorkExperience{
		{JobTitle: "Engineer", StartDate: dateOf(2022, 6, 15), EndDate: dateOf(2025, 6, 15)},
	}, 5)
	senior := s.scoreExperience([]models.WorkExperience{
		{JobTitle: "Senior Engineer", StartDate: dateOf(2022, 6, 15), EndDate: dateOf(2025, 6, 15)},
	}, 5)
	manager := s.scoreExperience([]models.WorkExperience{
		{JobTitle: "Senior Engineering Manager", StartDate: dateOf(2022, 6, 15), EndDate: dateOf(2025, 6, 15)},
	}, 5)

	assert.InDelta(t, plain*1.1, senior, 1e-9)
	assert.InDelta(t, plain*1.1*1.05, manager, 1e-9)
}

// TestScoreEducation 学位取最优，专业系数生效
func TestScoreEducation(t *testing.T) {
	s := newTestScorer()

	// 学士+计算机：0.8*1.1
	cs := s.scoreEducation([]models.Education{
		{Degree: "Bachelor of Science", Major: "Computer Science", School: "MIT"},
	})
	assert.InDelta(t, 0.8*1.1, cs, 1e-9)

	// 多学历取最优
	best := s.scoreEducation([]models.Education{
		{Degree: "Bachelor", Major: "History"},
		{Degree: "Master", Major: "Software Engineering"},
	})
	assert.InDelta(t, 0.9*1.1, best, 1e-9)

	// 无学历记录：0.0
	assert.Equal(t, 0.0, s.scoreEducation(nil))
}

// TestScoreCertificates 大厂认证与近期加成
func TestScoreCertificates(t *testing.T) {
	s := newTestScorer()

	// 普通旧证书：0.15
	plain := s.scoreCertificates([]models.Certificate{
		{Name: "Scrum Master", ObtainedDate: dateOf(2019, 1, 1)},
	})
	assert.InDelta(t, 0.15, plain, 1e-9)

	// 近期AWS认证：(0.15+0.05)*1.1
	recent := s.scoreCertificates([]models.Certificate{
		{Name: "AWS Solutions Architect", ObtainedDate: dateOf(2024, 9, 1)},
	})
	assert.InDelta(t, 0.20*1.1, recent, 1e-9)

	// 大量证书封顶1.0
	many := make([]models.Certificate, 10)
	for i := range many {
		many[i] = models.Certificate{Name: "AWS Certification", ObtainedDate: dateOf(2024, 9, 1)}
	}
	assert.InDelta(t, 1.0, s.scoreCertificates(many), 1e-9)
}

// TestScoreProjects 项目子分按关键词出现次数分档
func TestScoreProjects(t *testing.T) {
	s := newTestScorer()
	required := []string{"Java", "Spring"}

	// 无关项目也有基础分0.05
	unrelated := s.scoreProjects([]models.HighlightProject{
		{Name: "Photo App", Description: "A photo sharing app"},
	}, required)
	assert.InDelta(t, 0.05, unrelated, 1e-9)

	// 高度相关项目（出现>5次）
	dense := s.scoreProjects([]models.HighlightProject{
		{
			Name:        "Java Order Platform",
			Description: "java spring microservices, spring boot services with java clients, spring cloud gateway",
		},
	}, required)
	assert.InDelta(t, 0.25, dense, 1e-9)
}

// TestScoreAwards 获奖子分与近期加成
func TestScoreAwards(t *testing.T) {
	s := newTestScorer()

	old := s.scoreAwards([]models.Award{
		{Name: "Hackathon Winner", ObtainedDate: dateOf(2020, 1, 1)},
	})
	assert.InDelta(t, 0.3, old, 1e-9)

	recent := s.scoreAwards([]models.Award{
		{Name: "Hackathon Winner", ObtainedDate: dateOf(2024, 12, 1)},
	})
	assert.InDelta(t, 0.36, recent, 1e-9)

	// 多项封顶1.0
	many := make([]models.Award, 5)
	for i := range many {
		many[i] = models.Award{Name: "Award", ObtainedDate: dateOf(2024, 12, 1)}
	}
	assert.InDelta(t, 1.0, s.scoreAwards(many), 1e-9)
}

// TestScoreLanguages 语言熟练度分档
func TestScoreLanguages(t *testing.T) {
	s := newTestScorer()

	score := s.scoreLanguages([]models.ForeignLanguage{
		{Language: "English", ProficiencyLevel: "Native"},
		{Language: "German", ProficiencyLevel: "Intermediate (B2)"},
		{Language: "French", ProficiencyLevel: "Beginner (A1)"},
	})
	assert.InDelta(t, 0.20+0.10+0.05, score, 1e-9)

	c2 := s.scoreLanguages([]models.ForeignLanguage{
		{Language: "English", ProficiencyLevel: "C2"},
	})
	assert.InDelta(t, 0.20, c2, 1e-9)
}

// TestScoreCompositeProperties 综合分的整体性质
func TestScoreCompositeProperties(t *testing.T) {
	s := newTestScorer()

	strong := &models.Resume{
		AboutMe: "Seasoned backend engineer",
		Skills: []models.ResumeSkill{
			{SkillName: "Java"}, {SkillName: "Spring Boot"}, {SkillName: "Kubernetes"},
		},
		WorkExperiences: []models.WorkExperience{
			{JobTitle: "Senior Backend Engineer", Company: "Acme", StartDate: dateOf(2015, 1, 1), EndDate: nil},
		},
		Educations: []models.Education{
			{Degree: "Master of Science", Major: "Computer Science"},
		},
		Certificates: []models.Certificate{
			{Name: "AWS Solutions Architect", ObtainedDate: dateOf(2024, 9, 1)},
		},
		ForeignLanguages: []models.ForeignLanguage{
			{Language: "English", ProficiencyLevel: "C1"},
		},
	}
	weak := &models.Resume{
		Skills: []models.ResumeSkill{{SkillName: "Photoshop"}},
		WorkExperiences: []models.WorkExperience{
			{JobTitle: "Intern", StartDate: dateOf(2024, 6, 15), EndDate: nil},
		},
	}

	required := []string{"Java", "Spring", "Kubernetes"}
	strongScore := s.Score(strong, required, 5, 0.9)
	weakScore := s.Score(weak, required, 5, 0.2)

	require.Greater(t, strongScore.TotalScore, weakScore.TotalScore)
	assert.LessOrEqual(t, strongScore.TotalScore, 1.0)
	assert.GreaterOrEqual(t, weakScore.TotalScore, 0.0)

	// 强候选人技能全匹配且语义分高
	assert.Greater(t, strongScore.SkillScore, 0.8)
	// 10年经验对5年要求：经验子分到顶再乘资深系数后仍≤1
	assert.GreaterOrEqual(t, strongScore.ExperienceScore, 0.8)
}

// TestScoreSemanticBlend 技能子分=60%精确+40%语义
func TestScoreSemanticBlend(t *testing.T) {
	s := newTestScorer()

	resume := &models.Resume{
		Skills: []models.ResumeSkill{{SkillName: "Java"}, {SkillName: "Spring"}},
	}
	required := []string{"Java", "Spring"}

	noSemantic := s.Score(resume, required, 0, 0)
	withSemantic := s.Score(resume, required, 0, 1.0)

	assert.InDelta(t, 0.6, noSemantic.SkillScore, 1e-9)
	assert.InDelta(t, 1.0, withSemantic.SkillScore, 1e-9)
}

package scorer

import (
	"strings"
	"time"

	"careermate-go/internal/matcher"
	"careermate-go/internal/storage/models"
	"careermate-go/internal/types"

	"gorm.io/datatypes"
)

// 七个维度的固定权重，合计1.00
const (
	weightSkills       = 0.40
	weightExperience   = 0.25
	weightEducation    = 0.15
	weightCertificates = 0.10
	weightProjects     = 0.05
	weightAwards       = 0.03
	weightLanguages    = 0.02
)

// 技能子分中精确匹配与语义相似度的配比
const (
	skillExactWeight    = 0.6
	skillSemanticWeight = 0.4
)

// recencyWindow 证书/奖项的"近期"窗口
const recencyWindow = 2 * 365 * 24 * time.Hour

// 证书名中出现即认定为主流大厂认证的关键词
var majorCertVendors = []string{"aws", "azure", "gcp", "oracle", "cisco", "microsoft"}

// QualificationScorer 资质评分器：对单个候选人简历与岗位要求计算七维度加权综合分。
// 无内部可变状态，可并发使用。
type QualificationScorer struct {
	matcher *matcher.SkillMatcher
	now     func() time.Time // 可注入的时钟，保证近期加分在测试中可复现
}

// Option 评分器配置选项
type Option func(*QualificationScorer)

// WithClock 注入自定义时钟
func WithClock(now func() time.Time) Option {
	return func(s *QualificationScorer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewQualificationScorer 创建资质评分器
func NewQualificationScorer(m *matcher.SkillMatcher, opts ...Option) *QualificationScorer {
	if m == nil {
		m = matcher.NewSkillMatcher()
	}
	s := &QualificationScorer{
		matcher: m,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score 计算综合资质评分。semanticScore为向量库返回的相似度（无则传0），
// 所有子分先各自归一化到[0,1]再加权，总分封顶1.0。
// 空简历不报错，得到一个低但确定的分数。
func (s *QualificationScorer) Score(resume *models.Resume, requiredSkills []string, minYearsExperience int, semanticScore float64) types.QualificationScore {
	if resume == nil {
		resume = &models.Resume{}
	}

	result := types.QualificationScore{
		SkillScore:       s.scoreSkills(resume.Skills, requiredSkills, semanticScore),
		ExperienceScore:  s.scoreExperience(resume.WorkExperiences, minYearsExperience),
		EducationScore:   s.scoreEducation(resume.Educations),
		CertificateScore: s.scoreCertificates(resume.Certificates),
		ProjectScore:     s.scoreProjects(resume.HighlightProjects, requiredSkills),
		AwardScore:       s.scoreAwards(resume.Awards),
		LanguageScore:    s.scoreLanguages(resume.ForeignLanguages),
	}

	total := result.SkillScore*weightSkills +
		result.ExperienceScore*weightExperience +
		result.EducationScore*weightEducation +
		result.CertificateScore*weightCertificates +
		result.ProjectScore*weightProjects +
		result.AwardScore*weightAwards +
		result.LanguageScore*weightLanguages

	result.TotalScore = clamp01(total)
	return result
}

// TotalYearsOfExperience 计算总经验年限：逐段求 end-start 的整年差后求和，
// end为空视为至今。
func (s *QualificationScorer) TotalYearsOfExperience(experiences []models.WorkExperience) int {
	now := s.now()
	total := 0
	for _, exp := range experiences {
		if exp.StartDate == nil {
			continue
		}
		start := dateToTime(exp.StartDate)
		end := now
		if exp.EndDate != nil {
			end = dateToTime(exp.EndDate)
		}
		if end.Before(start) {
			continue
		}
		total += wholeYearsBetween(start, end)
	}
	return total
}

// scoreSkills 技能子分：60%精确/同义匹配比例 + 40%语义相似度
func (s *QualificationScorer) scoreSkills(skills []models.ResumeSkill, requiredSkills []string, semanticScore float64) float64 {
	candidateSkills := make([]string, 0, len(skills))
	for _, sk := range skills {
		candidateSkills = append(candidateSkills, sk.SkillName)
	}

	exact := s.matcher.MatchScore(requiredSkills, candidateSkills)
	return clamp01(exact*skillExactWeight + clamp01(semanticScore)*skillSemanticWeight)
}

// scoreExperience 经验子分。规则：
//   - 无经验条目：无年限要求时基础分0.5，否则0.0
//   - 无年限要求：min(1.0, 0.5 + years*0.1)
//   - 达到/超过要求：0.8 + min(0.2, (years-min)*0.05)
//   - 不足要求：(years/min)*0.7
//
// 任一职位头衔含senior/lead/principal时×1.1，含manager/director/head时再×1.05。
func (s *QualificationScorer) scoreExperience(experiences []models.WorkExperience, minYears int) float64 {
	if len(experiences) == 0 {
		if minYears <= 0 {
			return 0.5
		}
		return 0.0
	}

	years := s.TotalYearsOfExperience(experiences)

	var base float64
	switch {
	case minYears <= 0:
		base = 0.5 + float64(years)*0.1
		if base > 1.0 {
			base = 1.0
		}
	case years >= minYears:
		extra := float64(years-minYears) * 0.05
		if extra > 0.2 {
			extra = 0.2
		}
		base = 0.8 + extra
	default:
		base = float64(years) / float64(minYears) * 0.7
	}

	if anyTitleContains(experiences, "senior", "lead", "principal") {
		base *= 1.1
	}
	if anyTitleContains(experiences, "manager", "director", "head") {
		base *= 1.05
	}

	return clamp01(base)
}

// scoreEducation 教育子分：所有学位取最优。
// 学位基础分 × 专业相关性系数（技术/工程×1.1，理科/数学×1.05，其他×0.9）。
func (s *QualificationScorer) scoreEducation(educations []models.Education) float64 {
	best := 0.0
	for _, edu := range educations {
		score := degreeBaseScore(edu.Degree) * fieldRelevanceFactor(edu.Major)
		if score > best {
			best = score
		}
	}
	return clamp01(best)
}

// scoreCertificates 证书子分：每张0.15，大厂认证+0.05，两年内获得×1.1，求和封顶1.0
func (s *QualificationScorer) scoreCertificates(certificates []models.Certificate) float64 {
	now := s.now()
	total := 0.0
	for _, cert := range certificates {
		score := 0.15
		lowerName := strings.ToLower(cert.Name)
		for _, vendor := range majorCertVendors {
			if strings.Contains(lowerName, vendor) {
				score += 0.05
				break
			}
		}
		if cert.ObtainedDate != nil && now.Sub(dateToTime(cert.ObtainedDate)) <= recencyWindow {
			score *= 1.1
		}
		total += score
	}
	return clamp01(total)
}

// scoreProjects 项目子分：按项目名+描述中必备技能关键词出现次数分档，
// 任何项目至少+0.05（有项目本身体现主动性），求和封顶1.0。
func (s *QualificationScorer) scoreProjects(projects []models.HighlightProject, requiredSkills []string) float64 {
	total := 0.0
	for _, project := range projects {
		text := strings.ToLower(project.Name + " " + project.Description)
		occurrences := 0
		for _, skill := range requiredSkills {
			keyword := strings.ToLower(strings.TrimSpace(skill))
			if keyword == "" {
				continue
			}
			occurrences += strings.Count(text, keyword)
		}

		switch {
		case occurrences > 5:
			total += 0.25
		case occurrences > 2:
			total += 0.15
		case occurrences > 0:
			total += 0.10
		default:
			total += 0.05
		}
	}
	return clamp01(total)
}

// scoreAwards 获奖子分：每项0.3，两年内获得×1.2，求和封顶1.0
func (s *QualificationScorer) scoreAwards(awards []models.Award) float64 {
	now := s.now()
	total := 0.0
	for _, award := range awards {
		score := 0.3
		if award.ObtainedDate != nil && now.Sub(dateToTime(award.ObtainedDate)) <= recencyWindow {
			score *= 1.2
		}
		total += score
	}
	return clamp01(total)
}

// scoreLanguages 语言子分：按熟练度分档求和，封顶1.0
func (s *QualificationScorer) scoreLanguages(languages []models.ForeignLanguage) float64 {
	total := 0.0
	for _, lang := range languages {
		level := strings.ToLower(lang.ProficiencyLevel)
		switch {
		case strings.Contains(level, "native") || strings.Contains(level, "c2"):
			total += 0.20
		case strings.Contains(level, "advanced") || strings.Contains(level, "c1"):
			total += 0.15
		case strings.Contains(level, "intermediate") || strings.Contains(level, "b1") || strings.Contains(level, "b2"):
			total += 0.10
		default:
			total += 0.05
		}
	}
	return clamp01(total)
}

// anyTitleContains 判断任一工作经历的头衔是否包含给定关键词之一
func anyTitleContains(experiences []models.WorkExperience, keywords ...string) bool {
	for _, exp := range experiences {
		title := strings.ToLower(exp.JobTitle)
		for _, kw := range keywords {
			if strings.Contains(title, kw) {
				return true
			}
		}
	}
	return false
}

// degreeBaseScore 学位基础分
func degreeBaseScore(degree string) float64 {
	d := strings.ToLower(degree)
	switch {
	case strings.Contains(d, "phd") || strings.Contains(d, "doctor"):
		return 1.0
	case strings.Contains(d, "master"):
		return 0.9
	case strings.Contains(d, "bachelor"):
		return 0.8
	case strings.Contains(d, "associate"):
		return 0.6
	case strings.Contains(d, "diploma"):
		return 0.5
	default:
		return 0.5
	}
}

// fieldRelevanceFactor 专业相关性系数
func fieldRelevanceFactor(major string) float64 {
	m := strings.ToLower(major)
	switch {
	case strings.Contains(m, "computer") || strings.Contains(m, "software") ||
		strings.Contains(m, "information") || strings.Contains(m, "engineering") ||
		strings.Contains(m, "technology"):
		return 1.1
	case strings.Contains(m, "science") || strings.Contains(m, "math"):
		return 1.05
	default:
		return 0.9
	}
}

// wholeYearsBetween 两个时间点之间的整年差
func wholeYearsBetween(start, end time.Time) int {
	years := end.Year() - start.Year()
	// 未到周年日则减一
	anniversary := start.AddDate(years, 0, 0)
	if anniversary.After(end) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// dateToTime datatypes.Date底层即time.Time
func dateToTime(d *datatypes.Date) time.Time {
	return time.Time(*d)
}

// clamp01 将分数截断到[0.0, 1.0]
func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

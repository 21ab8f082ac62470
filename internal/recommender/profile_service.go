package recommender

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"careermate-go/internal/logger"
	"careermate-go/internal/scorer"
	"careermate-go/internal/storage"
	"careermate-go/internal/storage/models"
	"careermate-go/internal/types"
)

// ResumeStore 简历读取接口
type ResumeStore interface {
	GetResumeByCandidateID(ctx context.Context, candidateID uint) (*models.Resume, error)
	ListCandidateIDsWithResume(ctx context.Context) ([]uint, error)
}

// VectorStore 候选人档案向量库接口，同storage.CandidateVectorStore
type VectorStore interface {
	UpsertCandidateProfile(ctx context.Context, profile *storage.CandidateProfile) error
	DeleteCandidateProfile(ctx context.Context, candidateID uint) error
	SearchCandidateProfiles(ctx context.Context, concepts []string, certainty float64, limit int) ([]storage.CandidateHit, error)
	GetCandidateCertainty(ctx context.Context, concepts []string, candidateID uint) (float64, error)
}

// SchemaManager 向量库schema管理接口
type SchemaManager interface {
	RecreateSchema(ctx context.Context) error
}

// ProfileService 负责把MySQL中的候选人简历组装为档案并推送到向量库
type ProfileService struct {
	resumes ResumeStore
	vector  VectorStore
	schema  SchemaManager // 可为空，空时不支持schema重建
	scorer  *scorer.QualificationScorer
}

// NewProfileService 创建档案同步服务
func NewProfileService(resumes ResumeStore, vector VectorStore, schema SchemaManager, s *scorer.QualificationScorer) *ProfileService {
	if s == nil {
		s = scorer.NewQualificationScorer(nil)
	}
	return &ProfileService{
		resumes: resumes,
		vector:  vector,
		schema:  schema,
		scorer:  s,
	}
}

// RecreateSchema 删除并重建向量库的候选人档案类。
// 破坏性操作，所有已同步的档案丢失，需随后执行全量同步。
func (p *ProfileService) RecreateSchema(ctx context.Context) error {
	if p.schema == nil {
		return fmt.Errorf("未配置向量库schema管理器")
	}
	if err := p.schema.RecreateSchema(ctx); err != nil {
		return fmt.Errorf("重建向量库schema失败: %w", err)
	}
	logger.Ctx(ctx).Warn().Msg("向量库候选人档案类已重建，原有档案数据已清空")
	return nil
}

// SyncCandidateProfile 同步单个候选人档案到向量库。
// 简历不存在时返回storage.ErrResumeNotFound。
func (p *ProfileService) SyncCandidateProfile(ctx context.Context, candidateID uint) error {
	resume, err := p.resumes.GetResumeByCandidateID(ctx, candidateID)
	if err != nil {
		return err
	}

	profile := p.BuildCandidateProfile(resume)
	if err := p.vector.UpsertCandidateProfile(ctx, profile); err != nil {
		return fmt.Errorf("推送候选人档案到向量库失败: %w", err)
	}

	logger.Ctx(ctx).Info().
		Uint("candidate_id", candidateID).
		Int("skills", len(profile.Skills)).
		Int("years", profile.TotalYearsExperience).
		Msg("候选人档案已同步到向量库")
	return nil
}

// SyncAllCandidateProfiles 全量同步所有有简历的候选人档案。
// 单个候选人失败只计数不中断，保证一次坏数据不拖垮整批。
func (p *ProfileService) SyncAllCandidateProfiles(ctx context.Context) (types.SyncResult, error) {
	result := types.SyncResult{}

	ids, err := p.resumes.ListCandidateIDsWithResume(ctx)
	if err != nil {
		return result, fmt.Errorf("列出待同步候选人失败: %w", err)
	}

	for _, id := range ids {
		if err := p.SyncCandidateProfile(ctx, id); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Uint("candidate_id", id).Msg("候选人档案同步失败")
			result.Failed++
			continue
		}
		result.Synced++
	}

	logger.Ctx(ctx).Info().
		Int("synced", result.Synced).
		Int("failed", result.Failed).
		Msg("全量档案同步完成")
	return result, nil
}

// DeleteCandidateProfile 从向量库删除候选人档案，档案不存在视为成功
func (p *ProfileService) DeleteCandidateProfile(ctx context.Context, candidateID uint) error {
	if err := p.vector.DeleteCandidateProfile(ctx, candidateID); err != nil {
		return fmt.Errorf("从向量库删除候选人档案失败: %w", err)
	}
	logger.Ctx(ctx).Info().Uint("candidate_id", candidateID).Msg("候选人档案已从向量库删除")
	return nil
}

// HandleProfileSyncEvent 处理一条档案同步事件，作为MQ消费者的处理函数。
// 返回true表示处理成功（或不可恢复、无需重试），false触发重新入队。
func (p *ProfileService) HandleProfileSyncEvent(ctx context.Context, event types.ProfileSyncEvent) bool {
	log := logger.Ctx(ctx).With().
		Uint("candidate_id", event.CandidateID).
		Str("action", event.Action).
		Str("event_id", event.EventID).
		Logger()

	switch event.Action {
	case types.ProfileActionSync:
		if err := p.SyncCandidateProfile(ctx, event.CandidateID); err != nil {
			// 简历已不存在说明事件过期，无需重试
			if errors.Is(err, storage.ErrResumeNotFound) {
				log.Warn().Msg("同步事件指向的简历已不存在，丢弃事件")
				return true
			}
			log.Error().Err(err).Msg("处理档案同步事件失败，稍后重试")
			return false
		}
		return true
	case types.ProfileActionDelete:
		if err := p.DeleteCandidateProfile(ctx, event.CandidateID); err != nil {
			log.Error().Err(err).Msg("处理档案删除事件失败，稍后重试")
			return false
		}
		return true
	default:
		log.Warn().Msg("未知的档案事件动作，丢弃事件")
		return true
	}
}

// BuildCandidateProfile 把简历各分节组装为向量库档案。
// 文本摘要面向向量化阅读优化，保持自然语言形态。
func (p *ProfileService) BuildCandidateProfile(resume *models.Resume) *storage.CandidateProfile {
	profile := &storage.CandidateProfile{
		CandidateID: resume.CandidateID,
		AboutMe:     strings.TrimSpace(resume.AboutMe),
		UpdatedAt:   time.Now(),
	}

	if resume.Candidate != nil {
		profile.Name = resume.Candidate.FullName
		profile.Email = resume.Candidate.Email
	}

	profile.Skills = make([]string, 0, len(resume.Skills))
	for _, skill := range resume.Skills {
		name := strings.TrimSpace(skill.SkillName)
		if name != "" {
			profile.Skills = append(profile.Skills, name)
		}
	}

	profile.TotalYearsExperience = p.scorer.TotalYearsOfExperience(resume.WorkExperiences)
	profile.WorkSummary = buildWorkSummary(resume.WorkExperiences)
	profile.EducationSummary = buildEducationSummary(resume.Educations)
	profile.Certificates = buildCertificateList(resume.Certificates)
	profile.Projects = buildProjectList(resume.HighlightProjects)
	profile.Awards = buildAwardList(resume.Awards)
	profile.Languages = buildLanguageList(resume.ForeignLanguages)
	profile.ProfileSummary = buildProfileSummary(profile)

	return profile
}

// buildCertificateList 证书列表: "{name} ({organization})"，无颁发机构时仅名称
func buildCertificateList(certificates []models.Certificate) []string {
	items := make([]string, 0, len(certificates))
	for _, cert := range certificates {
		if item := nameWithOrganization(cert.Name, cert.Organization); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// buildProjectList 亮点项目名称列表
func buildProjectList(projects []models.HighlightProject) []string {
	items := make([]string, 0, len(projects))
	for _, project := range projects {
		if name := strings.TrimSpace(project.Name); name != "" {
			items = append(items, name)
		}
	}
	return items
}

// buildAwardList 获奖列表: "{name} ({organization})"，无颁发机构时仅名称
func buildAwardList(awards []models.Award) []string {
	items := make([]string, 0, len(awards))
	for _, award := range awards {
		if item := nameWithOrganization(award.Name, award.Organization); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// buildLanguageList 外语列表: "{language} ({proficiency})"
func buildLanguageList(languages []models.ForeignLanguage) []string {
	items := make([]string, 0, len(languages))
	for _, lang := range languages {
		name := strings.TrimSpace(lang.Language)
		if name == "" {
			continue
		}
		if level := strings.TrimSpace(lang.ProficiencyLevel); level != "" {
			name = fmt.Sprintf("%s (%s)", name, level)
		}
		items = append(items, name)
	}
	return items
}

func nameWithOrganization(name, organization string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if org := strings.TrimSpace(organization); org != "" {
		return fmt.Sprintf("%s (%s)", name, org)
	}
	return name
}

// buildWorkSummary 工作经历摘要: "{title} at {company}: {description}"，各段用". "连接
func buildWorkSummary(experiences []models.WorkExperience) string {
	parts := make([]string, 0, len(experiences))
	for _, exp := range experiences {
		title := strings.TrimSpace(exp.JobTitle)
		company := strings.TrimSpace(exp.Company)
		if title == "" && company == "" {
			continue
		}

		segment := title
		if company != "" {
			segment = fmt.Sprintf("%s at %s", title, company)
		}
		if desc := strings.TrimSpace(exp.Description); desc != "" {
			segment = fmt.Sprintf("%s: %s", segment, desc)
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, ". ")
}

// buildEducationSummary 教育经历摘要: "{degree} in {major}, {school}"，各段用"; "连接
func buildEducationSummary(educations []models.Education) string {
	parts := make([]string, 0, len(educations))
	for _, edu := range educations {
		degree := strings.TrimSpace(edu.Degree)
		major := strings.TrimSpace(edu.Major)
		school := strings.TrimSpace(edu.School)
		if degree == "" && major == "" && school == "" {
			continue
		}

		segment := degree
		if major != "" {
			if segment != "" {
				segment = fmt.Sprintf("%s in %s", segment, major)
			} else {
				segment = major
			}
		}
		if school != "" {
			if segment != "" {
				segment = fmt.Sprintf("%s, %s", segment, school)
			} else {
				segment = school
			}
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, "; ")
}

// buildProfileSummary 组合档案全文，作为语义检索的主要向量化文本
func buildProfileSummary(profile *storage.CandidateProfile) string {
	var b strings.Builder

	if profile.AboutMe != "" {
		b.WriteString(profile.AboutMe)
		b.WriteString(" ")
	}
	writeListSection(&b, "Skills", profile.Skills)
	if profile.WorkSummary != "" {
		b.WriteString("Experience: ")
		b.WriteString(profile.WorkSummary)
		b.WriteString(". ")
	}
	if profile.EducationSummary != "" {
		b.WriteString("Education: ")
		b.WriteString(profile.EducationSummary)
		b.WriteString(". ")
	}
	writeListSection(&b, "Certificates", profile.Certificates)
	writeListSection(&b, "Projects", profile.Projects)
	writeListSection(&b, "Awards", profile.Awards)
	writeListSection(&b, "Languages", profile.Languages)

	return strings.TrimSpace(b.String())
}

// writeListSection 追加一段 "Label: a, b, c. "，空列表不写
func writeListSection(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(strings.Join(items, ", "))
	b.WriteString(". ")
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人主表
type Candidate struct {
	CandidateID uint      `gorm:"primaryKey;autoIncrement"`
	FullName    string    `gorm:"type:varchar(255);not null"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex:idx_candidates_email_unique"`
	Phone       string    `gorm:"type:varchar(50)"`
	CreatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// JobPosting 岗位信息表
type JobPosting struct {
	JobPostingID      uint      `gorm:"primaryKey;autoIncrement"`
	Title             string    `gorm:"type:varchar(255);not null"`
	Description       string    `gorm:"type:text"`
	YearsOfExperience int       `gorm:"type:int;default:0"` // 最低经验年限要求，0表示不限
	Status            string    `gorm:"type:varchar(50);default:'ACTIVE';index:idx_job_postings_status"`
	CreatedAt         time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt         time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Skills []JobPostingSkill `gorm:"foreignKey:JobPostingID;references:JobPostingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (JobPosting) TableName() string {
	return "job_postings"
}

// JobPostingSkill 岗位技能要求表
type JobPostingSkill struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	JobPostingID uint   `gorm:"not null;index:idx_jps_job_posting_id"`
	SkillName    string `gorm:"type:varchar(100);not null"`
	IsMustHave   bool   `gorm:"default:false"`
}

func (JobPostingSkill) TableName() string {
	return "job_posting_skills"
}

// Resume 简历主表，候选人与简历一对一
type Resume struct {
	ResumeID    uint      `gorm:"primaryKey;autoIncrement"`
	CandidateID uint      `gorm:"not null;uniqueIndex:idx_resumes_candidate_unique"`
	AboutMe     string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Candidate         *Candidate         `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Skills            []ResumeSkill      `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	WorkExperiences   []WorkExperience   `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Educations        []Education        `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Certificates      []Certificate      `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	HighlightProjects []HighlightProject `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Awards            []Award            `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ForeignLanguages  []ForeignLanguage  `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Resume) TableName() string {
	return "resumes"
}

// ResumeSkill 简历技能表
type ResumeSkill struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ResumeID  uint   `gorm:"not null;index:idx_resume_skills_resume_id"`
	SkillName string `gorm:"type:varchar(100);not null"`
}

func (ResumeSkill) TableName() string {
	return "resume_skills"
}

// WorkExperience 工作经历表
type WorkExperience struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	ResumeID    uint            `gorm:"not null;index:idx_work_experiences_resume_id"`
	JobTitle    string          `gorm:"type:varchar(255)"`
	Company     string          `gorm:"type:varchar(255)"`
	Description string          `gorm:"type:text"`
	StartDate   *datatypes.Date `gorm:"type:date"`
	EndDate     *datatypes.Date `gorm:"type:date"` // NULL表示至今
}

func (WorkExperience) TableName() string {
	return "work_experiences"
}

// Education 教育经历表
type Education struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	ResumeID uint   `gorm:"not null;index:idx_educations_resume_id"`
	Degree   string `gorm:"type:varchar(100)"`
	Major    string `gorm:"type:varchar(255)"`
	School   string `gorm:"type:varchar(255)"`
}

func (Education) TableName() string {
	return "educations"
}

// Certificate 证书表
type Certificate struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	ResumeID     uint            `gorm:"not null;index:idx_certificates_resume_id"`
	Name         string          `gorm:"type:varchar(255)"`
	Organization string          `gorm:"type:varchar(255)"`
	ObtainedDate *datatypes.Date `gorm:"type:date"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// HighlightProject 亮点项目表
type HighlightProject struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ResumeID    uint   `gorm:"not null;index:idx_highlight_projects_resume_id"`
	Name        string `gorm:"type:varchar(255)"`
	Description string `gorm:"type:text"`
}

func (HighlightProject) TableName() string {
	return "highlight_projects"
}

// Award 获奖表
type Award struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	ResumeID     uint            `gorm:"not null;index:idx_awards_resume_id"`
	Name         string          `gorm:"type:varchar(255)"`
	Organization string          `gorm:"type:varchar(255)"`
	ObtainedDate *datatypes.Date `gorm:"type:date"`
}

func (Award) TableName() string {
	return "awards"
}

// ForeignLanguage 外语能力表
type ForeignLanguage struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	ResumeID         uint   `gorm:"not null;index:idx_foreign_languages_resume_id"`
	Language         string `gorm:"type:varchar(100)"`
	ProficiencyLevel string `gorm:"type:varchar(100)"` // 例如 "Native", "C1", "Intermediate (B2)"
}

func (ForeignLanguage) TableName() string {
	return "foreign_languages"
}

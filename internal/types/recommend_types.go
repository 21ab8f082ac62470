package types

// RecommendedCandidate 一个候选人针对一个岗位的打分结果（请求级临时数据，不落库）
type RecommendedCandidate struct {
	CandidateID          uint     `json:"candidate_id"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	MatchScore           float64  `json:"match_score"` // 融合后的综合分，[0.0, 1.0]
	MatchedSkills        []string `json:"matched_skills"`
	MissingSkills        []string `json:"missing_skills"`
	TotalYearsExperience int      `json:"total_years_experience"`
	ProfileSummary       string   `json:"profile_summary"`
}

// RecommendationResponse 推荐接口的完整返回
type RecommendationResponse struct {
	JobPostingID         uint                   `json:"job_posting_id"`
	JobTitle             string                 `json:"job_title"`
	TotalCandidatesFound int                    `json:"total_candidates_found"` // 过滤后、截断前的总数
	Recommendations      []RecommendedCandidate `json:"recommendations"`
	ProcessingTimeMillis int64                  `json:"processing_time_ms"`
}

// QualificationScore 七维度资质评分明细，各子分及总分均在[0.0, 1.0]
type QualificationScore struct {
	SkillScore       float64 `json:"skill_score"`
	ExperienceScore  float64 `json:"experience_score"`
	EducationScore   float64 `json:"education_score"`
	CertificateScore float64 `json:"certificate_score"`
	ProjectScore     float64 `json:"project_score"`
	AwardScore       float64 `json:"award_score"`
	LanguageScore    float64 `json:"language_score"`
	TotalScore       float64 `json:"total_score"`
}

// CandidateScoreResponse 单候选人详细评分接口的返回
type CandidateScoreResponse struct {
	JobPostingID  uint               `json:"job_posting_id"`
	JobTitle      string             `json:"job_title"`
	CandidateID   uint               `json:"candidate_id"`
	CandidateName string             `json:"candidate_name"`
	SemanticScore float64            `json:"semantic_score"` // 向量库返回的certainty，获取失败时为0
	Score         QualificationScore `json:"score"`
}

// SyncResult 批量档案同步的结果统计
type SyncResult struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// ProfileSyncEvent 档案同步事件（RabbitMQ消息体）
// 由外围CRUD应用在简历写入后发布，本服务消费后推送向量库
type ProfileSyncEvent struct {
	CandidateID uint   `json:"candidate_id"`
	Action      string `json:"action"` // sync / delete
	EventID     string `json:"event_id"`
	Timestamp   int64  `json:"timestamp"`
}

// 档案同步事件动作
const (
	ProfileActionSync   = "sync"
	ProfileActionDelete = "delete"
)

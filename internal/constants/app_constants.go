package constants

import "time"

const (
	// DefaultWeaviateClass 候选人档案在向量库中的集合名
	DefaultWeaviateClass = "CandidateProfile"

	// RecommendationCacheDuration 推荐结果缓存时长
	RecommendationCacheDuration = 30 * time.Minute

	// RecommendationLockDuration 推荐重算分布式锁时长
	RecommendationLockDuration = 2 * time.Minute

	// MinDescriptionKeywordLength JD全文降级提取时的最短关键词长度（字符数需大于该值）
	MinDescriptionKeywordLength = 3
)

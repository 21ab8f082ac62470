package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "careermate"

	// RecommendModulePrefix 推荐模块
	RecommendModulePrefix = "recommend"

	// EntityResult 推荐结果实体
	EntityResult = "result"
	// EntityLock 分布式锁实体
	EntityLock = "lock"

	// KeyRecommendationResult 推荐结果缓存 (STRING, JSON序列化)
	// 格式: careermate:recommend:result:{jobID}:{limit}:{minScore}
	KeyRecommendationResult = AppPrefix + ":" + RecommendModulePrefix + ":" + EntityResult + ":%d:%d:%.2f"

	// KeyRecommendationLock 推荐重算分布式锁 (STRING)
	// 格式: careermate:recommend:lock:{jobID}
	KeyRecommendationLock = AppPrefix + ":" + RecommendModulePrefix + ":" + EntityLock + ":%d"
)

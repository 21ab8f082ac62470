package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"careermate-go/internal/config"
	"careermate-go/internal/constants"
	"careermate-go/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound 键不存在时返回，包装底层的redis.Nil做抽象隔离
var ErrNotFound = redis.Nil

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为Redis添加OpenTelemetry钩子失败: %w", err)
	}

	// Ping to check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis(%s)失败: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// RecommendationCacheDuration 返回推荐结果缓存的过期时间
func (r *Redis) RecommendationCacheDuration() time.Duration {
	minutes := r.config.RecommendationCacheMinutes
	if minutes <= 0 {
		return constants.RecommendationCacheDuration
	}
	return time.Duration(minutes) * time.Minute
}

// recommendationCacheKey 缓存键包含岗位ID与请求参数，不同参数组合互不污染
func recommendationCacheKey(jobPostingID uint, maxCandidates int, minMatchScore float64) string {
	return fmt.Sprintf(constants.KeyRecommendationResult, jobPostingID, maxCandidates, minMatchScore)
}

// CacheRecommendation 缓存一次推荐计算的完整结果
func (r *Redis) CacheRecommendation(ctx context.Context, jobPostingID uint, maxCandidates int, minMatchScore float64, response *types.RecommendationResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("序列化推荐结果失败: %w", err)
	}

	key := recommendationCacheKey(jobPostingID, maxCandidates, minMatchScore)
	if err := r.Client.Set(ctx, key, data, r.RecommendationCacheDuration()).Err(); err != nil {
		return fmt.Errorf("写入推荐结果缓存失败: %w", err)
	}
	return nil
}

// GetCachedRecommendation 读取缓存的推荐结果，未命中返回ErrNotFound
func (r *Redis) GetCachedRecommendation(ctx context.Context, jobPostingID uint, maxCandidates int, minMatchScore float64) (*types.RecommendationResponse, error) {
	key := recommendationCacheKey(jobPostingID, maxCandidates, minMatchScore)
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取推荐结果缓存失败: %w", err)
	}

	var response types.RecommendationResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("解析推荐结果缓存失败: %w", err)
	}
	return &response, nil
}

// InvalidateRecommendations 清除某岗位的全部推荐缓存（任意参数组合）
func (r *Redis) InvalidateRecommendations(ctx context.Context, jobPostingID uint) error {
	pattern := fmt.Sprintf("careermate:recommend:result:%d:*", jobPostingID)
	iter := r.Client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("删除推荐缓存键失败: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("扫描推荐缓存键失败: %w", err)
	}
	return nil
}

// AcquireRecommendationLock 获取岗位级推荐计算锁，防止缓存失效时的并发重复计算。
// 返回true表示拿到锁，false表示已有其他请求在计算。
func (r *Redis) AcquireRecommendationLock(ctx context.Context, jobPostingID uint) (bool, error) {
	key := fmt.Sprintf(constants.KeyRecommendationLock, jobPostingID)
	ok, err := r.Client.SetNX(ctx, key, 1, constants.RecommendationLockDuration).Result()
	if err != nil {
		return false, fmt.Errorf("获取推荐计算锁失败: %w", err)
	}
	return ok, nil
}

// ReleaseRecommendationLock 释放岗位级推荐计算锁
func (r *Redis) ReleaseRecommendationLock(ctx context.Context, jobPostingID uint) error {
	key := fmt.Sprintf(constants.KeyRecommendationLock, jobPostingID)
	if err := r.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("释放推荐计算锁失败: %w", err)
	}
	return nil
}

// profilesync 是候选人档案的运维工具：支持重建向量库schema、
// 同步单个候选人或全量重同步。服务上线和数据修复时使用。
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"careermate-go/internal/config"
	"careermate-go/internal/logger"
	"careermate-go/internal/matcher"
	"careermate-go/internal/recommender"
	"careermate-go/internal/scorer"
	"careermate-go/internal/storage"

	"github.com/spf13/pflag"
)

func main() {
	var (
		configPath     string
		recreateSchema bool
		candidateID    uint
	)
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.BoolVar(&recreateSchema, "recreate-schema", false, "Drop and recreate the vector schema before syncing")
	pflag.UintVar(&candidateID, "candidate", 0, "Sync a single candidate by ID (default: full resync)")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     "pretty",
		TimeFormat: time.TimeOnly,
	})

	ctx := context.Background()
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	if storageManager.MySQL == nil || storageManager.Weaviate == nil {
		logger.Fatal().Msg("profilesync 需要MySQL和Weaviate均可用")
	}

	qualScorer := scorer.NewQualificationScorer(matcher.NewSkillMatcher())
	profileService := recommender.NewProfileService(
		storageManager.MySQL, storageManager.Weaviate, storageManager.Weaviate, qualScorer,
	)

	if recreateSchema {
		if err := profileService.RecreateSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("重建向量库schema失败")
		}
		fmt.Println("向量库schema已重建")
	}

	start := time.Now()
	if candidateID > 0 {
		if err := profileService.SyncCandidateProfile(ctx, candidateID); err != nil {
			logger.Fatal().Err(err).Uint("candidate_id", candidateID).Msg("候选人档案同步失败")
		}
		fmt.Printf("候选人 %d 档案同步完成，耗时 %s\n", candidateID, time.Since(start).Round(time.Millisecond))
		return
	}

	result, err := profileService.SyncAllCandidateProfiles(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("全量档案同步失败")
	}
	fmt.Printf("全量档案同步完成: 成功 %d, 失败 %d, 耗时 %s\n",
		result.Synced, result.Failed, time.Since(start).Round(time.Millisecond))
	if result.Failed > 0 {
		os.Exit(1)
	}
}

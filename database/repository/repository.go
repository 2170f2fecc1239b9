package repository

import (
	blocksRepo "morningfocus/database/repository/blocks"
	larkTokenRepo "morningfocus/database/repository/larktoken"
	reflectionRepo "morningfocus/database/repository/reflection"
	settingsRepo "morningfocus/database/repository/settings"

	"go.uber.org/zap"
)

// Re-export the repository interfaces.
type (
	SettingsRepository   = settingsRepo.SettingsRepository
	ReflectionRepository = reflectionRepo.ReflectionRepository
	BlocksRepository     = blocksRepo.BlocksRepository
	LarkTokenRepository  = larkTokenRepo.LarkTokenRepository
)

// Repositories bundles every MongoDB repository the app uses.
type Repositories struct {
	Settings    SettingsRepository
	Reflections ReflectionRepository
	Blocks      BlocksRepository
	LarkTokens  LarkTokenRepository
}

type indexer interface {
	EnsureIndexes() error
}

// NewMongoRepositories builds every repository on database.MongoClient and
// creates their indexes. Index failures are logged, not fatal.
func NewMongoRepositories(logger *zap.Logger) *Repositories {
	repos := &Repositories{
		Settings:    settingsRepo.NewMongoSettingsRepo(),
		Reflections: reflectionRepo.NewMongoReflectionRepo(),
		Blocks:      blocksRepo.NewMongoBlocksRepo(),
		LarkTokens:  larkTokenRepo.NewMongoLarkTokenRepo(),
	}

	for _, r := range []interface{}{repos.Settings, repos.Reflections, repos.Blocks} {
		if ix, ok := r.(indexer); ok {
			if err := ix.EnsureIndexes(); err != nil {
				logger.Warn("failed to ensure indexes", zap.Error(err))
			}
		}
	}
	return repos
}

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/config"
	"github.com/calluna/finsight/internal/consent"
	"github.com/calluna/finsight/internal/pipeline"
	"github.com/calluna/finsight/internal/service"
	"github.com/calluna/finsight/internal/storage"
)

func loadConfig() config.Config {
	return config.FromViper(viper.GetViper())
}

func openStorage(cfg config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("could not open the results database at %s", cfg.DatabasePath), err)
	}
	return store, nil
}

// buildConsentStore selects the consent backend from configuration.
// The in-process store is the default; redis is for deployments where
// replicas must share consent decisions.
func buildConsentStore(cfg config.Config) (service.ConsentStore, error) {
	switch cfg.Consent.Backend {
	case "", "memory":
		return consent.NewMemoryStore(cfg.Consent.TTL), nil
	case "redis":
		if cfg.Consent.RedisAddr == "" {
			return nil, common.NewUserError(
				"consent backend is redis but consent.redis_addr is not set", common.ErrMissingConfig)
		}
		return consent.NewRedisStore(cfg.Consent.RedisAddr, cfg.Consent.TTL), nil
	}
	return nil, common.NewUserError(
		fmt.Sprintf("unknown consent backend %q", cfg.Consent.Backend), common.ErrInvalidConfig)
}

func buildEngine(cfg config.Config, consentStore service.ConsentStore, store *storage.SQLiteStorage) *pipeline.Engine {
	return pipeline.New(cfg, consentStore, store)
}

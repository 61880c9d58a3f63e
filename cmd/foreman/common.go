package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/metalagman/foreman/internal/config"
	"github.com/metalagman/foreman/internal/db"
	"github.com/metalagman/foreman/internal/knowledge"
	"github.com/metalagman/foreman/internal/llm"
	"github.com/rs/zerolog/log"
)

func openDB(cfg config.Config) (*sql.DB, string, func(), error) {
	repoRoot, err := os.Getwd()
	if err != nil {
		return nil, "", func() {}, err
	}
	foremanDir := filepath.Join(repoRoot, ".foreman")
	if err := os.MkdirAll(foremanDir, 0o755); err != nil {
		return nil, "", func() {}, err
	}
	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = filepath.Join(foremanDir, "foreman.db")
	} else if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(repoRoot, dbPath)
	}
	storeDB, err := db.Open(dbPath)
	if err != nil {
		return nil, "", func() {}, err
	}
	return storeDB, repoRoot, func() { _ = storeDB.Close() }, nil
}

// buildCompleters constructs the planning and implementation completers from
// the resolved role configs.
func buildCompleters(ctx context.Context, cfg config.Config) (planning, implementation llm.Completer, err error) {
	planCfg, implCfg, err := cfg.ResolveRoles()
	if err != nil {
		return nil, nil, err
	}

	planner, err := llm.NewGeminiCompleter(ctx, llm.Config{
		Model:     planCfg.Model,
		APIKeyEnv: planCfg.APIKeyEnv,
		Timeout:   planCfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	implementer, err := llm.NewGeminiCompleter(ctx, llm.Config{
		Model:     implCfg.Model,
		APIKeyEnv: implCfg.APIKeyEnv,
		Timeout:   implCfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return planner, implementer, nil
}

// buildKnowledge loads the corpus index declared in the config. A missing
// manifest setting yields an empty index, so retrieval degrades instead of
// blocking a run.
func buildKnowledge(repoRoot string, cfg config.Config) *knowledge.Index {
	if cfg.Knowledge.Manifest == "" {
		return knowledge.NewIndex(nil)
	}

	manifestPath := cfg.Knowledge.Manifest
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(repoRoot, manifestPath)
	}
	manifest, err := knowledge.LoadManifest(manifestPath)
	if err != nil {
		log.Warn().Err(err).Msg("knowledge manifest unusable, continuing without retrieval")
		return knowledge.NewIndex(nil)
	}
	docs, err := knowledge.LoadCorpus(filepath.Dir(manifestPath), manifest)
	if err != nil {
		log.Warn().Err(err).Msg("knowledge corpus unusable, continuing without retrieval")
		return knowledge.NewIndex(nil)
	}
	log.Debug().Int("documents", len(docs)).Msg("knowledge corpus loaded")
	return knowledge.NewIndex(docs)
}

package main

import (
	"time"

	"github.com/xxxsen/proofnote/internal/ai"
	"github.com/xxxsen/proofnote/internal/chunker"
	"github.com/xxxsen/proofnote/internal/config"
	"github.com/xxxsen/proofnote/internal/correction"
)

func buildPipeline(cfg *config.Config) (*correction.Pipeline, error) {
	providers := make([]ai.ProviderOption, 0, len(cfg.AI.Providers))
	for _, item := range cfg.AI.Providers {
		providers = append(providers, ai.ProviderOption{Name: item.Name, Model: item.Model, Args: item.Data})
	}
	oracle, err := ai.NewOracleFromOptions(ai.OracleOptions{
		Providers: providers,
		Timeout:   time.Duration(cfg.AI.Timeout) * time.Second,
		CacheSize: cfg.AI.CacheSize,
		CacheTTL:  time.Duration(cfg.AI.CacheTTLMinutes) * time.Minute,
	})
	if err != nil {
		return nil, err
	}
	return correction.NewPipeline(oracle, correction.Config{
		Chunking: chunker.Options{
			Threshold:    cfg.Correction.ChunkThreshold,
			MaxChunkSize: cfg.Correction.MaxChunkSize,
		},
		SimilarityThreshold: cfg.Correction.SimilarityThreshold,
		InstructionPrompt:   cfg.Correction.InstructionPrompt,
	}), nil
}

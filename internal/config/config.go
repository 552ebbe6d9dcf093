package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Local knowledge-base directory, one logical document per file.
	KnowledgeBasePath string `envconfig:"KNOWLEDGE_BASE_PATH" default:"./knowledge-base"`
	WatchKnowledge    bool   `envconfig:"WATCH_KNOWLEDGE" default:"true"`

	// Completion backend. Any OpenAI-compatible endpoint works; the default
	// points at a local Ollama server.
	LLMBaseURL     string `envconfig:"LLM_BASE_URL" default:"http://localhost:11434/v1"`
	LLMAPIKey      string `envconfig:"LLM_API_KEY" default:"ollama"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"qwen3:8b"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"nomic-embed-text"`
	EmbeddingDims  int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`

	// Optional pgvector-backed index. When unset the index lives in memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Optional S3-compatible knowledge-base source.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"assistant-knowledge"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX"`

	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"http://localhost:3000"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ASSISTANT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

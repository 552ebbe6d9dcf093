//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dscprotocol/assistant/internal/api/handlers"
	"github.com/dscprotocol/assistant/internal/kb"
	"github.com/dscprotocol/assistant/internal/openai"
	"github.com/dscprotocol/assistant/internal/repository"
	"github.com/dscprotocol/assistant/internal/server"
	"github.com/dscprotocol/assistant/internal/service"
	"github.com/dscprotocol/assistant/internal/testutil"
)

const (
	chatModel      = "qwen3:8b"
	embeddingModel = "nomic-embed-text"
	embeddingDims  = 768
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	LLM          *testutil.FakeLLMServer
	KnowledgeDir string
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full environment: pgvector container, fake LLM
// backend, a knowledge directory with sample documents, and an in-process
// HTTP server wired the same way the serve command wires it.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	llm := testutil.NewFakeLLMServer([]string{chatModel, embeddingModel}, embeddingDims)

	knowledgeDir := t.TempDir()
	writeSampleKnowledge(t, knowledgeDir)

	client := openai.NewClientWithConfig(openai.Config{
		APIKey:              "test",
		BaseURL:             llm.URL(),
		ChatModel:           chatModel,
		EmbeddingModel:      embeddingModel,
		EmbeddingDimensions: embeddingDims,
	})
	if err := client.VerifyModels(ctx); err != nil {
		t.Fatalf("model verification failed: %v", err)
	}

	source := kb.NewDirectorySource(knowledgeDir)
	idx := repository.NewChunkStore(pool, client)
	knowledgeSvc := service.NewKnowledgeService(source, idx)
	if _, err := knowledgeSvc.Reload(ctx); err != nil {
		t.Fatalf("initial knowledge reload failed: %v", err)
	}

	sessions := service.NewSessionStore()
	rewriter := service.NewQueryRewriter(client)
	retriever := service.NewRetriever(idx)
	assistantSvc := service.NewAssistantService(sessions, rewriter, retriever, client)

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:   handlers.NewChatHandler(assistantSvc),
		SystemHandler: handlers.NewSystemHandler(knowledgeSvc, chatModel),
		CORSOrigin:    "http://localhost:3000",
	})

	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		LLM:          llm,
		KnowledgeDir: knowledgeDir,
		ServerURL:    srv.URL,
		ServerCloser: srv.Close,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.LLM != nil {
		e.LLM.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// Post sends a JSON POST request to the running server.
func (e *E2ETestEnv) Post(path string, payload any) (*http.Response, []byte) {
	body, err := json.Marshal(payload)
	if err != nil {
		e.T.Fatalf("failed to marshal payload: %v", err)
	}

	resp, err := e.HTTPClient.Post(e.ServerURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		e.T.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response body: %v", err)
	}
	return resp, raw
}

// Get sends a GET request to the running server.
func (e *E2ETestEnv) Get(path string) (*http.Response, []byte) {
	resp, err := e.HTTPClient.Get(e.ServerURL + path)
	if err != nil {
		e.T.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response body: %v", err)
	}
	return resp, raw
}

func writeSampleKnowledge(t *testing.T, dir string) {
	docs := map[string]string{
		"liquidation.md": "# Liquidation\n\n" +
			"A position becomes eligible for liquidation when its health factor drops below 1.0. " +
			"The liquidation threshold is 80% of the collateral value. " +
			"Liquidators repay debt and receive collateral at a discount.\n",
		"deposits.md": "# Deposits\n\n" +
			"Users deposit SUI collateral to mint the stablecoin. " +
			"Deposits increase the collateral value of a position and raise the health factor.\n",
		"borrowing.md": "# Borrowing\n\n" +
			"Borrowing mints stablecoin against deposited collateral. " +
			"The maximum borrow amount is limited by the liquidation threshold.\n",
	}

	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write sample doc %s: %v", name, err)
		}
	}
}

// newS3TestClient builds a raw S3 client against the RustFS container so
// tests can create buckets and upload fixture documents.
func newS3TestClient(ctx context.Context, t *testing.T, endpoint string) *s3.Client {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		},
	)

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("rustfsadmin", "rustfsadmin", ""),
		),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		t.Fatalf("failed to load AWS config: %v", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

func uploadObject(ctx context.Context, t *testing.T, client *s3.Client, bucket, key, content string) {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader([]byte(content)),
	})
	if err != nil {
		t.Fatalf("failed to upload %s: %v", key, err)
	}
}

func createBucket(ctx context.Context, t *testing.T, client *s3.Client, bucket string) {
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		t.Fatalf("failed to create bucket %s: %v", bucket, err)
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) Load(ctx context.Context) ([]domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

type MockChunkIndex struct {
	mock.Mock
}

func (m *MockChunkIndex) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func TestReload_ChunksAndRebuilds(t *testing.T) {
	source := new(MockDocumentSource)
	index := new(MockChunkIndex)

	source.On("Load", mock.Anything).Return([]domain.Document{
		{Content: "Liquidation happens below 1.0.", Source: "liquidation.md"},
		{Content: "Deposits raise the health factor.", Source: "deposits.md"},
	}, nil)
	index.On("Rebuild", mock.Anything, mock.MatchedBy(func(chunks []domain.Chunk) bool {
		return len(chunks) == 2 &&
			chunks[0].Source == "liquidation.md" &&
			chunks[1].Source == "deposits.md"
	})).Return(nil)

	svc := NewKnowledgeService(source, index)
	count, err := svc.Reload(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, svc.ChunkCount())
	index.AssertExpectations(t)
}

func TestReload_EmptySource(t *testing.T) {
	source := new(MockDocumentSource)
	index := new(MockChunkIndex)
	source.On("Load", mock.Anything).Return([]domain.Document{}, nil)

	svc := NewKnowledgeService(source, index)
	_, err := svc.Reload(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoDocumentsFound)
	index.AssertNotCalled(t, "Rebuild", mock.Anything, mock.Anything)
}

func TestReload_BlankDocumentsOnly(t *testing.T) {
	source := new(MockDocumentSource)
	index := new(MockChunkIndex)
	source.On("Load", mock.Anything).Return([]domain.Document{
		{Content: "   \n\n ", Source: "blank.md"},
	}, nil)

	svc := NewKnowledgeService(source, index)
	_, err := svc.Reload(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoDocumentsFound)
	index.AssertNotCalled(t, "Rebuild", mock.Anything, mock.Anything)
}

func TestReload_LoadError(t *testing.T) {
	source := new(MockDocumentSource)
	index := new(MockChunkIndex)
	source.On("Load", mock.Anything).Return(nil, errors.New("bucket unreachable"))

	svc := NewKnowledgeService(source, index)
	_, err := svc.Reload(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load knowledge base")
}

func TestReload_RebuildFailureKeepsPriorCount(t *testing.T) {
	source := new(MockDocumentSource)
	index := new(MockChunkIndex)

	source.On("Load", mock.Anything).Return([]domain.Document{
		{Content: "Liquidation happens below 1.0.", Source: "liquidation.md"},
	}, nil)
	index.On("Rebuild", mock.Anything, mock.Anything).Return(nil).Once()

	svc := NewKnowledgeService(source, index)
	count, err := svc.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	index.On("Rebuild", mock.Anything, mock.Anything).Return(errors.New("embedding failed")).Once()
	_, err = svc.Reload(context.Background())
	require.Error(t, err)

	// The last successful count keeps serving the health endpoint.
	assert.Equal(t, 1, svc.ChunkCount())
}

func TestReload_SplitsLongDocuments(t *testing.T) {
	source := new(MockDocumentSource)
	index := new(MockChunkIndex)

	long := strings.Repeat("The protocol mints stablecoin against collateral. ", 60)
	source.On("Load", mock.Anything).Return([]domain.Document{
		{Content: long, Source: "minting.md"},
	}, nil)

	var captured []domain.Chunk
	index.On("Rebuild", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).([]domain.Chunk)
	}).Return(nil)

	svc := NewKnowledgeService(source, index)
	count, err := svc.Reload(context.Background())

	require.NoError(t, err)
	assert.Greater(t, count, 1)
	assert.Equal(t, count, len(captured))
}

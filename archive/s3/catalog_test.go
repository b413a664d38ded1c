package s3

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tslog/archive"
)

// mockCatalogClient is an in-memory DynamoDB mock for testing.
type mockCatalogClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // scope:name -> item
}

func newMockCatalogClient() *mockCatalogClient {
	return &mockCatalogClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockCatalogClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scope := params.Item["scope"].(*types.AttributeValueMemberS).Value
	name := params.Item["name"].(*types.AttributeValueMemberS).Value
	key := scope + ":" + name

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(#n)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockCatalogClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scope := params.Key["scope"].(*types.AttributeValueMemberS).Value
	name := params.Key["name"].(*types.AttributeValueMemberS).Value

	item, ok := m.items[scope+":"+name]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (m *mockCatalogClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scope := params.ExpressionAttributeValues[":scope"].(*types.AttributeValueMemberS).Value

	var prefix string
	if attr, ok := params.ExpressionAttributeValues[":prefix"]; ok {
		prefix = attr.(*types.AttributeValueMemberS).Value
	}

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["scope"].(*types.AttributeValueMemberS).Value != scope {
			continue
		}
		name := item["name"].(*types.AttributeValueMemberS).Value
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		items = append(items, item)
	}

	desc := params.ScanIndexForward != nil && !*params.ScanIndexForward
	sort.Slice(items, func(i, j int) bool {
		ni := items[i]["name"].(*types.AttributeValueMemberS).Value
		nj := items[j]["name"].(*types.AttributeValueMemberS).Value
		if desc {
			return ni > nj
		}
		return ni < nj
	})

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func TestCatalogRecordAndGet(t *testing.T) {
	ddb := newMockCatalogClient()
	cat := NewCatalog(ddb, "telemetry-archive", "robot-7")

	at := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	err := cat.Record(context.Background(), Entry{Name: "2026/08/run1.log", Size: 4096, ArchivedAt: at})
	require.NoError(t, err)

	e, err := cat.Get(context.Background(), "2026/08/run1.log")
	require.NoError(t, err)
	assert.Equal(t, "2026/08/run1.log", e.Name)
	assert.Equal(t, int64(4096), e.Size)
	assert.Equal(t, at.Unix(), e.ArchivedAt.Unix())
}

func TestCatalogRecordDuplicate(t *testing.T) {
	ddb := newMockCatalogClient()
	cat := NewCatalog(ddb, "telemetry-archive", "robot-7")

	require.NoError(t, cat.Record(context.Background(), Entry{Name: "run.log", Size: 1}))

	err := cat.Record(context.Background(), Entry{Name: "run.log", Size: 1})
	require.ErrorIs(t, err, ErrAlreadyArchived)

	// The same name in another scope is a separate entry.
	other := NewCatalog(ddb, "telemetry-archive", "robot-8")
	require.NoError(t, other.Record(context.Background(), Entry{Name: "run.log", Size: 1}))
}

func TestCatalogRecordFillsTime(t *testing.T) {
	ddb := newMockCatalogClient()
	cat := NewCatalog(ddb, "telemetry-archive", "robot-7")

	require.NoError(t, cat.Record(context.Background(), Entry{Name: "run.log", Size: 1}))

	e, err := cat.Get(context.Background(), "run.log")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), e.ArchivedAt, time.Minute)
}

func TestCatalogGetMissing(t *testing.T) {
	ddb := newMockCatalogClient()
	cat := NewCatalog(ddb, "telemetry-archive", "robot-7")

	_, err := cat.Get(context.Background(), "missing.log")
	require.ErrorIs(t, err, archive.ErrNotFound)
}

func TestCatalogList(t *testing.T) {
	ddb := newMockCatalogClient()
	cat := NewCatalog(ddb, "telemetry-archive", "robot-7")

	ctx := context.Background()
	for _, name := range []string{"2026/08/b.log", "2026/07/a.log", "2026/08/a.log"} {
		require.NoError(t, cat.Record(ctx, Entry{Name: name, Size: 10}))
	}
	// Another scope must not leak into the listing.
	other := NewCatalog(ddb, "telemetry-archive", "robot-8")
	require.NoError(t, other.Record(ctx, Entry{Name: "2026/08/z.log", Size: 10}))

	entries, err := cat.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2026/07/a.log", entries[0].Name)
	assert.Equal(t, "2026/08/a.log", entries[1].Name)
	assert.Equal(t, "2026/08/b.log", entries[2].Name)

	entries, err = cat.List(ctx, "2026/08/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026/08/a.log", entries[0].Name)
	assert.Equal(t, "2026/08/b.log", entries[1].Name)
}

func TestCatalogLatest(t *testing.T) {
	ddb := newMockCatalogClient()
	cat := NewCatalog(ddb, "telemetry-archive", "robot-7")

	ctx := context.Background()

	_, err := cat.Latest(ctx)
	require.ErrorIs(t, err, archive.ErrNotFound)

	require.NoError(t, cat.Record(ctx, Entry{Name: "2026/07/run.log", Size: 1}))
	require.NoError(t, cat.Record(ctx, Entry{Name: "2026/08/run.log", Size: 2}))

	e, err := cat.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026/08/run.log", e.Name)
	assert.Equal(t, int64(2), e.Size)
}

package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/tslog/archive"
)

// CatalogClient is the subset of the DynamoDB API the catalog uses.
// *dynamodb.Client satisfies it.
type CatalogClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrAlreadyArchived is returned by Catalog.Record when an entry with the
// same name exists.
var ErrAlreadyArchived = errors.New("archive/s3: already archived")

// Entry is one archived telemetry file.
type Entry struct {
	// Name of the object, as passed to Store.Put.
	Name string

	// Size of the object in bytes.
	Size int64

	// ArchivedAt is when the upload was recorded. Second precision.
	ArchivedAt time.Time
}

// Catalog records archived uploads in a DynamoDB table so they can be
// queried without listing the bucket.
//
// Table schema:
//   - Partition key: scope (string) - one logical archive per scope
//   - Sort key: name (string) - the object name
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name telemetry-archive \
//	  --attribute-definitions AttributeName=scope,AttributeType=S AttributeName=name,AttributeType=S \
//	  --key-schema AttributeName=scope,KeyType=HASH AttributeName=name,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Catalog struct {
	client CatalogClient
	table  string
	scope  string
}

// NewCatalog creates a catalog on a DynamoDB table. scope selects the
// partition, so several archives can share one table.
func NewCatalog(client CatalogClient, table, scope string) *Catalog {
	return &Catalog{
		client: client,
		table:  table,
		scope:  scope,
	}
}

// Record writes the entry. Recording the same name twice fails with
// ErrAlreadyArchived, which makes interrupted upload runs safe to retry.
// A zero ArchivedAt is filled with the current time.
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	archivedAt := e.ArchivedAt
	if archivedAt.IsZero() {
		archivedAt = time.Now()
	}

	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]types.AttributeValue{
			"scope":       &types.AttributeValueMemberS{Value: c.scope},
			"name":        &types.AttributeValueMemberS{Value: e.Name},
			"size":        &types.AttributeValueMemberN{Value: strconv.FormatInt(e.Size, 10)},
			"archived_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(archivedAt.Unix(), 10)},
		},
		// "name" is a DynamoDB reserved word.
		ConditionExpression:      aws.String("attribute_not_exists(#n)"),
		ExpressionAttributeNames: map[string]string{"#n": "name"},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %s", ErrAlreadyArchived, e.Name)
		}
		return fmt.Errorf("archive/s3: record %s: %w", e.Name, err)
	}
	return nil
}

// Get returns the entry for name, or archive.ErrNotFound.
func (c *Catalog) Get(ctx context.Context, name string) (Entry, error) {
	resp, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"scope": &types.AttributeValueMemberS{Value: c.scope},
			"name":  &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("archive/s3: get %s: %w", name, err)
	}
	if len(resp.Item) == 0 {
		return Entry{}, archive.ErrNotFound
	}
	return itemToEntry(resp.Item)
}

// List returns entries whose name starts with prefix, in name order.
func (c *Catalog) List(ctx context.Context, prefix string) ([]Entry, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("scope = :scope"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scope": &types.AttributeValueMemberS{Value: c.scope},
		},
	}
	if prefix != "" {
		in.KeyConditionExpression = aws.String("scope = :scope AND begins_with(#n, :prefix)")
		in.ExpressionAttributeNames = map[string]string{"#n": "name"}
		in.ExpressionAttributeValues[":prefix"] = &types.AttributeValueMemberS{Value: prefix}
	}

	var entries []Entry

	paginator := dynamodb.NewQueryPaginator(c.client, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("archive/s3: list %q: %w", prefix, err)
		}
		for _, item := range page.Items {
			e, err := itemToEntry(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}

	return entries, nil
}

// Latest returns the entry with the greatest name in the scope. With
// date-prefixed names this is the most recent upload.
func (c *Catalog) Latest(ctx context.Context) (Entry, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("scope = :scope"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scope": &types.AttributeValueMemberS{Value: c.scope},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return Entry{}, fmt.Errorf("archive/s3: latest: %w", err)
	}
	if len(resp.Items) == 0 {
		return Entry{}, archive.ErrNotFound
	}
	return itemToEntry(resp.Items[0])
}

func itemToEntry(item map[string]types.AttributeValue) (Entry, error) {
	name, ok := item["name"].(*types.AttributeValueMemberS)
	if !ok {
		return Entry{}, errors.New("archive/s3: catalog item has no name attribute")
	}

	e := Entry{Name: name.Value}

	if attr, ok := item["size"].(*types.AttributeValueMemberN); ok {
		size, err := strconv.ParseInt(attr.Value, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("archive/s3: catalog item %s: parse size: %w", e.Name, err)
		}
		e.Size = size
	}

	if attr, ok := item["archived_at"].(*types.AttributeValueMemberN); ok {
		unix, err := strconv.ParseInt(attr.Value, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("archive/s3: catalog item %s: parse archived_at: %w", e.Name, err)
		}
		e.ArchivedAt = time.Unix(unix, 0)
	}

	return e, nil
}

package cache

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"curius-feed/internal/config"
)

// DynamoStore backs the gateway with a DynamoDB table keyed by cache_key,
// with a TTL attribute on expires_at. DynamoDB expires items lazily, so
// reads re-check expiry themselves.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
}

type dynamoRecord struct {
	CacheKey  string `dynamodbav:"cache_key"`
	Value     []byte `dynamodbav:"value"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// NewDynamoStore builds a store over the configured table.
func NewDynamoStore(ctx context.Context, cfg config.CacheConfig) (*DynamoStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoRegion))
	if err != nil {
		return nil, err
	}
	return &DynamoStore{
		client: dynamodb.NewFromConfig(awsCfg),
		table:  cfg.DynamoTable,
	}, nil
}

func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       dynamoKey(key),
	})
	if err != nil {
		return nil, false, err
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var record dynamoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, false, err
	}
	if record.ExpiresAt <= time.Now().Unix() {
		return nil, false, nil
	}
	return record.Value, true, nil
}

func (s *DynamoStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item, err := attributevalue.MarshalMap(dynamoRecord{
		CacheKey:  key,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return err
}

func (s *DynamoStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	values := make([][]byte, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	// BatchGetItem rejects duplicate keys within one request.
	index := make(map[string][]int, len(keys))
	unique := make([]map[string]types.AttributeValue, 0, len(keys))
	for i, key := range keys {
		if _, seen := index[key]; !seen {
			unique = append(unique, dynamoKey(key))
		}
		index[key] = append(index[key], i)
	}

	requested := map[string]types.KeysAndAttributes{
		s.table: {Keys: unique},
	}
	now := time.Now().Unix()

	// DynamoDB may return a partial batch; retry unprocessed keys until the
	// request drains or the context expires.
	for len(requested) > 0 {
		out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: requested,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Responses[s.table] {
			var record dynamoRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, err
			}
			if record.ExpiresAt <= now {
				continue
			}
			for _, i := range index[record.CacheKey] {
				values[i] = record.Value
			}
		}
		requested = out.UnprocessedKeys
		if len(requested) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	return values, nil
}

func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       dynamoKey(key),
	})
	return err
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	return err
}

func (s *DynamoStore) Close() error { return nil }

func dynamoKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"cache_key": &types.AttributeValueMemberS{Value: key},
	}
}

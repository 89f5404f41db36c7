package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	maxBatchGetKeys     = 100
	maxUnprocessedTries = 5
)

// batchGet fetches items by a single string hash key, de-duplicating ids and
// retrying unprocessed keys with a short linear backoff.
func batchGet(ctx context.Context, client API, table, keyName string, ids []string) ([]map[string]types.AttributeValue, error) {
	seen := make(map[string]struct{}, len(ids))
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, strKey(keyName, id))
	}

	var items []map[string]types.AttributeValue
	for _, batch := range chunk(keys, maxBatchGetKeys) {
		req := map[string]types.KeysAndAttributes{table: {Keys: batch}}
		for attempt := 0; len(req) > 0; attempt++ {
			if attempt == maxUnprocessedTries {
				return nil, fmt.Errorf("batch get %s: unprocessed keys after %d attempts", table, attempt)
			}
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
				}
			}
			out, err := client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: req})
			if err != nil {
				return nil, fmt.Errorf("batch get %s: %w", table, err)
			}
			items = append(items, out.Responses[table]...)
			req = out.UnprocessedKeys
		}
	}
	return items, nil
}

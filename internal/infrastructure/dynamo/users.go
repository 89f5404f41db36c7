package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gupshup-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    API
	tableName string
}

func NewUserRepo(client API, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// Put inserts a new user. It fails with a conflict if the user ID is taken.
func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	u.UsernameLower = strings.ToLower(u.Username)
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	return transactErr(err, "user already exists")
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.NotFound("User not found")
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.queryGSI(ctx, indexUsername, "username", username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, indexEmail, "email", domain.NormalizeEmail(email))
}

// BatchGet returns the users that exist among ids, keyed by user ID.
func (r *UserRepo) BatchGet(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	items, err := batchGet(ctx, r.client, r.tableName, fieldUserID, ids)
	if err != nil {
		return nil, err
	}
	users := make(map[string]*domain.User, len(items))
	for _, item := range items {
		var u domain.User
		if err := attributevalue.UnmarshalMap(item, &u); err != nil {
			return nil, err
		}
		users[u.UserID] = &u
	}
	return users, nil
}

// Update applies SET for updates and REMOVE for the remove list on an existing user.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}, remove ...string) error {
	set := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		set[k] = v
	}
	set[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(set, remove...)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return domain.NotFound("User not found")
	}
	return err
}

// DeleteUnverified removes a user only while it is still unverified.
func (r *UserRepo) DeleteUnverified(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		ConditionExpression:       aws.String("#v = :f"),
		ExpressionAttributeNames:  map[string]string{"#v": fieldIsVerified},
		ExpressionAttributeValues: map[string]types.AttributeValue{":f": &types.AttributeValueMemberBOOL{Value: false}},
	})
	return transactErr(err, "user is already verified")
}

// ScanAll returns every user. Intended for the admin listing.
func (r *UserRepo) ScanAll(ctx context.Context) ([]domain.User, error) {
	return r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)}, 0)
}

// Search returns up to limit verified users whose username contains q, ignoring case.
func (r *UserRepo) Search(ctx context.Context, q string, limit int) ([]domain.User, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("contains(#ul, :q) AND #v = :t"),
		ExpressionAttributeNames: map[string]string{
			"#ul": fieldUsernameLower,
			"#v":  fieldIsVerified,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q": strVal(strings.ToLower(q)),
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	}, limit)
}

// scan pages through the table until it is exhausted or limit items were collected (limit 0 = all).
func (r *UserRepo) scan(ctx context.Context, input *dynamodb.ScanInput, limit int) ([]domain.User, error) {
	var users []domain.User
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.User
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		users = append(users, page...)
		if limit > 0 && len(users) >= limit {
			return users[:limit], nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return users, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(value)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, domain.NotFound("User not found")
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

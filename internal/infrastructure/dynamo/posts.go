package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gupshup-api/internal/domain"
)

// membership names a post-side set and its mirror on the user item.
type membership struct {
	postAttr string
	userAttr string
}

var (
	likeMembership = membership{postAttr: fieldLikes, userAttr: fieldLikedPosts}
	saveMembership = membership{postAttr: fieldSavedBy, userAttr: fieldSavedPosts}
)

// PostRepo provides typed DynamoDB operations for the posts table. Writes that
// touch a post and a user item go through TransactWriteItems.
type PostRepo struct {
	client     API
	tableName  string
	usersTable string
}

func NewPostRepo(client API, tableName, usersTable string) *PostRepo {
	return &PostRepo{client: client, tableName: tableName, usersTable: usersTable}
}

// Create writes the post and appends its ID to the owner's posts set atomically.
func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	p.Feed = domain.FeedPartition
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(post_id)"),
			}},
			{Update: &types.Update{
				TableName:                 aws.String(r.usersTable),
				Key:                       strKey(fieldUserID, p.UserID),
				UpdateExpression:          aws.String("ADD #s :p"),
				ConditionExpression:       aws.String("attribute_exists(user_id)"),
				ExpressionAttributeNames:  map[string]string{"#s": fieldPosts},
				ExpressionAttributeValues: map[string]types.AttributeValue{":p": stringSet(p.PostID)},
			}},
		},
	})
	if failedAt(err, 1) {
		return &domain.Error{Kind: domain.KindNotFound, Message: "User not found", Err: err}
	}
	return transactErr(err, "could not create post")
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*domain.Post, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldPostID, postID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.NotFound("Post not found")
	}
	var p domain.Post
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// BatchGet returns the existing posts among ids, newest first.
func (r *PostRepo) BatchGet(ctx context.Context, ids []string) ([]domain.Post, error) {
	items, err := batchGet(ctx, r.client, r.tableName, fieldPostID, ids)
	if err != nil {
		return nil, err
	}
	var posts []domain.Post
	if err := attributevalue.UnmarshalListOfMaps(items, &posts); err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].PostID > posts[j].PostID })
	return posts, nil
}

// ListFeed returns every post, newest first.
func (r *PostRepo) ListFeed(ctx context.Context) ([]domain.Post, error) {
	return r.queryDesc(ctx, indexFeed, fieldFeed, domain.FeedPartition)
}

// ListByUser returns the posts owned by userID, newest first.
func (r *PostRepo) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	return r.queryDesc(ctx, indexUserPosts, fieldUserID, userID)
}

// SetLike adds (liked=true) or removes userID from post.likes and postID from
// user.liked_posts in one transaction.
func (r *PostRepo) SetLike(ctx context.Context, postID, userID string, liked bool) error {
	return r.setMembership(ctx, likeMembership, postID, userID, liked)
}

// SetSave is SetLike for post.saved_by and user.saved_posts.
func (r *PostRepo) SetSave(ctx context.Context, postID, userID string, saved bool) error {
	return r.setMembership(ctx, saveMembership, postID, userID, saved)
}

// setMembership updates both sides of a post/user set pair atomically. The
// post-side condition makes a concurrent toggle on the same pair fail with a
// conflict instead of diverging.
func (r *PostRepo) setMembership(ctx context.Context, m membership, postID, userID string, member bool) error {
	action, cond := "DELETE", "contains(#s, :uid)"
	if member {
		action, cond = "ADD", "attribute_exists(post_id) AND NOT contains(#s, :uid)"
	}
	now, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:                aws.String(r.tableName),
				Key:                      strKey(fieldPostID, postID),
				UpdateExpression:         aws.String(action + " #s :u SET #ua = :now"),
				ConditionExpression:      aws.String(cond),
				ExpressionAttributeNames: map[string]string{"#s": m.postAttr, "#ua": fieldUpdatedAt},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":u":   stringSet(userID),
					":uid": strVal(userID),
					":now": now,
				},
			}},
			{Update: &types.Update{
				TableName:                 aws.String(r.usersTable),
				Key:                       strKey(fieldUserID, userID),
				UpdateExpression:          aws.String(action + " #s :p"),
				ConditionExpression:       aws.String("attribute_exists(user_id)"),
				ExpressionAttributeNames:  map[string]string{"#s": m.userAttr},
				ExpressionAttributeValues: map[string]types.AttributeValue{":p": stringSet(postID)},
			}},
		},
	})
	// item 1 is the user side
	if failedAt(err, 1) {
		return &domain.Error{Kind: domain.KindNotFound, Message: "User not found", Err: err}
	}
	return transactErr(err, "Post was modified concurrently, please retry")
}

// Delete removes the post and pulls its ID from the owner's posts and from the
// liked/saved sets of every user referencing it. References are cleared in
// batches of up to 100 actions; the post itself is deleted in the last batch.
func (r *PostRepo) Delete(ctx context.Context, p *domain.Post) error {
	pulls := map[string][]string{p.UserID: {fieldPosts}}
	for _, uid := range p.Likes {
		pulls[uid] = append(pulls[uid], fieldLikedPosts)
	}
	for _, uid := range p.SavedBy {
		pulls[uid] = append(pulls[uid], fieldSavedPosts)
	}
	userIDs := make([]string, 0, len(pulls))
	for uid := range pulls {
		userIDs = append(userIDs, uid)
	}
	sort.Strings(userIDs)

	items := make([]types.TransactWriteItem, 0, len(userIDs)+1)
	for _, uid := range userIDs {
		items = append(items, types.TransactWriteItem{Update: pullUpdate(r.usersTable, uid, p.PostID, pulls[uid])})
	}
	items = append(items, types.TransactWriteItem{Delete: &types.Delete{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldPostID, p.PostID),
		ConditionExpression: aws.String("attribute_exists(post_id)"),
	}})

	for _, batch := range chunk(items, maxTransactItems) {
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: batch}); err != nil {
			return transactErr(err, "Post was modified concurrently, please retry")
		}
	}
	return nil
}

func pullUpdate(table, userID, postID string, attrs []string) *types.Update {
	names := make(map[string]string, len(attrs))
	expr := "DELETE "
	for i, a := range attrs {
		k := fmt.Sprintf("#a%d", i)
		names[k] = a
		if i > 0 {
			expr += ", "
		}
		expr += k + " :p"
	}
	return &types.Update{
		TableName:                 aws.String(table),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": stringSet(postID)},
	}
}

func (r *PostRepo) queryDesc(ctx context.Context, index, attr, value string) ([]domain.Post, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(value)},
		ScanIndexForward:          aws.Bool(false),
	}
	var posts []domain.Post
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Post
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		posts = append(posts, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return posts, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

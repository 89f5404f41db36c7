package dynamo

// DynamoDB attribute names used in update expressions across all repos.
const (
	fieldUserID           = "user_id"
	fieldPostID           = "post_id"
	fieldSessionID        = "session_id"
	fieldEnable           = "enable"
	fieldUpdatedAt        = "updated_at"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldIsVerified       = "is_verified"
	fieldUsernameLower    = "username_lower"
	fieldPosts            = "posts"
	fieldLikedPosts       = "liked_posts"
	fieldSavedPosts       = "saved_posts"
	fieldLikes            = "likes"
	fieldSavedBy          = "saved_by"
	fieldFeed             = "feed"
)

// Index names created by Bootstrap.
const (
	indexUsername     = "username-index"
	indexEmail        = "email-index"
	indexFeed         = "feed-post_id-index"
	indexUserPosts    = "user_id-post_id-index"
	indexRefreshToken = "refresh_token-index"
)

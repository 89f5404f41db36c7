package domain

import (
	"slices"
	"time"
)

// FeedPartition is the constant partition value of the global feed index.
const FeedPartition = "all"

type Media struct {
	ImageURL string `json:"imageUrl,omitempty" dynamodbav:"image_url,omitempty"`
	VideoURL string `json:"videoUrl,omitempty" dynamodbav:"video_url,omitempty"`
	PublicID string `json:"publicId,omitempty" dynamodbav:"public_id,omitempty"`
}

type Comment struct {
	CommentID string    `json:"id" dynamodbav:"comment_id"`
	UserID    string    `json:"user" dynamodbav:"user_id"`
	Text      string    `json:"text" dynamodbav:"text"`
	Likes     []string  `json:"likes" dynamodbav:"likes,stringset,omitempty"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// Post counts (likes, comments, shares) are derived from the sets, never stored.
type Post struct {
	PostID     string    `json:"id" dynamodbav:"post_id"`
	UserID     string    `json:"user" dynamodbav:"user_id"`
	Caption    string    `json:"caption" dynamodbav:"caption"`
	Media      Media     `json:"media" dynamodbav:"media"`
	Location   string    `json:"location,omitempty" dynamodbav:"location,omitempty"`
	Hashtags   []string  `json:"hashtags" dynamodbav:"hashtags,omitempty"`
	Likes      []string  `json:"likes" dynamodbav:"likes,stringset,omitempty"`
	Shares     []string  `json:"shares" dynamodbav:"shares,stringset,omitempty"`
	SavedBy    []string  `json:"savedBy" dynamodbav:"saved_by,stringset,omitempty"`
	ReportedBy []string  `json:"reportedBy" dynamodbav:"reported_by,stringset,omitempty"`
	Comments   []Comment `json:"comments" dynamodbav:"comments,omitempty"`
	Feed       string    `json:"-" dynamodbav:"feed"`
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

func (p *Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

func (p *Post) SavedByUser(userID string) bool {
	return slices.Contains(p.SavedBy, userID)
}

// CreatePostRequest holds the multipart form fields other than the image.
type CreatePostRequest struct {
	Caption  string   `validate:"max=2200"`
	Location string   `validate:"max=100"`
	Hashtags []string `validate:"max=30,dive,min=1,max=100"`
}

// Asset is a stored media object. PublicID is the store's key used for deletion.
type Asset struct {
	URL      string
	PublicID string
}

package models

// CommentModel is a rated comment on a story. Append-only from the API surface;
// every insert triggers recomputation of the parent story's average rating.
type CommentModel struct {
	Base
	Text     string      `json:"text"             gorm:"type:text;not null"`
	Rating   int         `json:"rating"           gorm:"not null"`
	AuthorID string      `json:"author_id"        gorm:"index;not null"`
	Author   *UserModel  `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	StoryID  string      `json:"story_id"         gorm:"index;not null"`
	Story    *StoryModel `json:"-"                gorm:"foreignKey:StoryID"`
}

func (CommentModel) TableName() string { return "comments" }

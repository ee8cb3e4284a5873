package models

// StoryStatus is the moderation state gating public visibility.
type StoryStatus string

const (
	StoryPending  StoryStatus = "pending"
	StoryApproved StoryStatus = "approved"
	StoryRejected StoryStatus = "rejected"
)

// Valid reports whether the status is one of the known values.
func (s StoryStatus) Valid() bool {
	switch s {
	case StoryPending, StoryApproved, StoryRejected:
		return true
	}
	return false
}

// DefaultCoverImage is used when a story is created without an upload.
const DefaultCoverImage = "https://static.storynest.io/covers/default-story-cover.jpg"

// StoryModel is a user-authored story.
type StoryModel struct {
	Base
	Title             string         `json:"title"             gorm:"size:100;not null"`
	Content           string         `json:"content"           gorm:"type:longtext;not null"`
	Slug              string         `json:"slug"              gorm:"uniqueIndex;not null"`
	AuthorID          string         `json:"author_id"         gorm:"index;not null"`
	Author            *UserModel     `json:"author,omitempty"  gorm:"foreignKey:AuthorID"`
	CategoryID        string         `json:"category_id"       gorm:"index;not null"`
	Category          *CategoryModel `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Tags              StringArray    `json:"tags"              gorm:"type:json"`
	Status            StoryStatus    `json:"status"            gorm:"default:pending;index"`
	CoverImage        string         `json:"coverImage"`
	CoverImageKey     string         `json:"-"`
	ReadingTime       int            `json:"readingTime"       gorm:"default:0"`
	AvgRating         float64        `json:"avgRating"         gorm:"default:0"`
	Views             int64          `json:"views"             gorm:"default:0"`
	CommentCount      int64          `json:"commentCount"      gorm:"default:0"`
}

func (StoryModel) TableName() string { return "stories" }

package models

// CategoryModel is a named grouping referenced by stories.
type CategoryModel struct {
	Base
	Name string `json:"name" gorm:"uniqueIndex;size:50;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`

	Stories []StoryModel `json:"stories,omitempty" gorm:"foreignKey:CategoryID"`
}

func (CategoryModel) TableName() string { return "categories" }

package model

import "time"

// Book 图书目录条目
type Book struct {
	ID          string    `json:"id" bson:"_id" db:"id"`
	Title       string    `json:"title" bson:"title" db:"title"`
	Author      string    `json:"author,omitempty" bson:"author,omitempty" db:"author"`
	ISBN        string    `json:"isbn,omitempty" bson:"isbn,omitempty" db:"isbn"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

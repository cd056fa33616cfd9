package models

import "time"

// Enrollment links a user to a course. Read-mostly here: the courses module
// owns writes, this core only resolves audiences and room-join authorization.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_course,priority:1" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_user_course,priority:2;index" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

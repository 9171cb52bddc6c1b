package dto

// ListNotificationsQuery filters the caller's notifications
type ListNotificationsQuery struct {
	Page   int    `form:"page"`
	Size   int    `form:"size"`
	Unread bool   `form:"unread"`
	Type   string `form:"type" binding:"omitempty,oneof=MESSAGE ASSIGNMENT_PUBLISHED ASSIGNMENT_SUBMITTED ASSIGNMENT_GRADED ANNOUNCEMENT SYSTEM"`
}

// AnnouncementRequest broadcasts a course announcement
type AnnouncementRequest struct {
	CourseID int64  `json:"courseId" binding:"required,gt=0"`
	Title    string `json:"title" binding:"required,notblank,max=200"`
	Message  string `json:"message" binding:"required,notblank,max=5000"`
}

// AnnouncementResponse reports how many students were notified
type AnnouncementResponse struct {
	Recipients int `json:"recipients"`
}

package models

// Attachment is file metadata; the bytes live elsewhere
type Attachment struct {
	URL      string `json:"url" binding:"required,url"`
	FileName string `json:"fileName" binding:"required,max=255"`
	MimeType string `json:"mimeType,omitempty" binding:"omitempty,max=127,mimetype"`
	Size     int64  `json:"size,omitempty" binding:"gte=0"`
}

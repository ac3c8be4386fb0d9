package models

import "time"

// ProjectInfo summarises a stored floor-plan document.
type ProjectInfo struct {
	ID        string    `json:"id"`
	Revision  int64     `json:"revision"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AssetInfo represents metadata about an uploaded furniture image.
type AssetInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Ref returns the image reference string used by furniture placement.
func (a AssetInfo) Ref() string {
	return "asset:" + a.ID
}

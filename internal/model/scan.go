package model

import "time"

// ScanCursor 链上扫描游标 (单行)
// last_processed_block 无论当窗内事件是否匹配成功都会推进，
// 漏掉的事件靠人工对账，不重放 (见 scanner 包)。
type ScanCursor struct {
	ID                 uint64    `gorm:"primaryKey" json:"id"`
	LastProcessedBlock uint64    `gorm:"not null" json:"last_processed_block"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (ScanCursor) TableName() string {
	return "scan_cursors"
}

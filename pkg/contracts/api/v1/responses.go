package api

import (
	"time"

	"stockdash/pkg/contracts/domain"
)

// UploadInfo describes the file behind a loaded table.
type UploadInfo struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SessionResponse is the public view of a dashboard session.
type SessionResponse struct {
	ID        string      `json:"id"`
	Page      domain.Page `json:"page"`
	CreatedAt time.Time   `json:"created_at"`
	LastSeen  time.Time   `json:"last_seen"`
	Stock     *UploadInfo `json:"stock,omitempty"`
	StockRows int         `json:"stock_rows"`
	Sales     *UploadInfo `json:"sales,omitempty"`
	SalesRows int         `json:"sales_rows"`
}

// StockUploadResponse summarizes a freshly normalized stock report.
type StockUploadResponse struct {
	Upload  UploadInfo                `json:"upload"`
	Columns []string                  `json:"columns"`
	Rows    int                       `json:"rows"`
	Options domain.StockFilterOptions `json:"options"`
}

// StockViewResponse is a filtered stock table.
type StockViewResponse struct {
	Filter    domain.StockFilter `json:"filter"`
	TotalRows int                `json:"total_rows"`
	Rows      int                `json:"rows"`
	Table     *domain.StockTable `json:"table"`
}

// StockCountsResponse is the grouped count of a filtered stock table.
type StockCountsResponse struct {
	By      string                `json:"by"`
	Counts  []domain.GroupCount   `json:"counts"`
	Summary []domain.GroupSummary `json:"summary"`
}

// SalesResponse is a cleaned sales table.
type SalesResponse struct {
	Upload *UploadInfo        `json:"upload,omitempty"`
	Rows   int                `json:"rows"`
	Table  *domain.SalesTable `json:"table"`
}

// VersionResponse reports the running build.
type VersionResponse struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"architecture"`
}

package domain

// Page is the dashboard view a session is looking at.
type Page string

const (
	PageStock Page = "stock"
	PageSales Page = "sales"
)

// IsValid reports whether p names a known page.
func (p Page) IsValid() bool {
	return p == PageStock || p == PageSales
}

// UploadKind identifies which pipeline an upload feeds.
type UploadKind string

const (
	UploadStock UploadKind = "stock"
	UploadSales UploadKind = "sales"
)

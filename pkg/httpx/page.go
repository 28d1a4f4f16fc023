package httpx

// PageInfo is the pagination envelope returned by listing endpoints.
type PageInfo struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPageInfo computes the envelope for a page request and total row count.
func NewPageInfo(page, limit, total int) PageInfo {
	if page < 1 {
		page = 1
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageInfo{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

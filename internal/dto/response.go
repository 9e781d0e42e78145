package dto

// ── briefs ──

// DeliverymanBrief is the courier summary embedded in slot responses.
type DeliverymanBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClientBrief is the client summary embedded in slot responses.
type ClientBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ── pagination ──

// PaginationRequest carries common paging parameters.
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage returns the page number with its default.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize returns the page size with its default.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset computes the query offset.
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

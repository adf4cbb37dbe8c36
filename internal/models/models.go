package models

type APIResponse struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	Data       interface{}  `json:"data,omitempty"`
	Error      interface{}  `json:"error,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
}

// NewPagination computes page counts; totalPages is ceil(total/perPage).
func NewPagination(page, perPage int, total int64) *Pagination {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Pagination{CurrentPage: page, PerPage: perPage, TotalPages: pages, TotalItems: total}
}

type Role string

const (
	RoleAdmin Role = "admin"
)

type ImageCategory string

const (
	CategoryBanner     ImageCategory = "banner"
	CategoryNews       ImageCategory = "news"
	CategoryDirections ImageCategory = "directions"
	CategoryGallery    ImageCategory = "gallery"
	CategoryOther      ImageCategory = "other"
)

func (c ImageCategory) Valid() bool {
	switch c {
	case CategoryBanner, CategoryNews, CategoryDirections, CategoryGallery, CategoryOther:
		return true
	}
	return false
}

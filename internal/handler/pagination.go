package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PaginationMeta describes which slice of a listing the response carries.
type PaginationMeta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// PaginatedResponse wraps one page of a listing with its metadata.
type PaginatedResponse[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// pageParams reads page and limit from the query string, clamping both so a
// hostile query cannot ask for page 0 or a million rows.
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return page, limit
}

// NewPaginatedResponse assembles the page envelope around already-mapped rows.
func NewPaginatedResponse[T any](data []T, totalItems int64, page, limit int) PaginatedResponse[T] {
	if limit < 1 {
		limit = 1
	}
	pages := int(totalItems) / limit
	if int(totalItems)%limit != 0 {
		pages++
	}
	return PaginatedResponse[T]{
		Data: data,
		Meta: PaginationMeta{
			TotalItems:  totalItems,
			TotalPages:  pages,
			CurrentPage: page,
			PageSize:    limit,
		},
	}
}

// Paginate counts the query's rows and loads the requested page of them.
func Paginate[T any](query *gorm.DB, page, limit int) (*PaginatedResponse[T], error) {
	var total int64
	if err := query.Model(new(T)).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []T
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	resp := NewPaginatedResponse(rows, total, page, limit)
	return &resp, nil
}

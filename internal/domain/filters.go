package domain

// PropertyFilters is the sparse set of public search fields. Empty strings
// mean "no constraint".
type PropertyFilters struct {
	Query        string `json:"query,omitempty"`
	Purpose      string `json:"purpose,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
	MinPrice     string `json:"minPrice,omitempty"`
	MaxPrice     string `json:"maxPrice,omitempty"`
	MinArea      string `json:"minArea,omitempty"`
	Bedrooms     string `json:"bedrooms,omitempty"` // "2+", "3+", ...
	Neighborhood string `json:"neighborhood,omitempty"`
	Page         int    `json:"page,omitempty"`
}

type PropertyPage struct {
	Items       []Property `json:"items"`
	Total       int        `json:"total"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
}

// PageQuery is an offset window over an ordered result set.
type PageQuery struct {
	Limit  int
	Offset int
}

package models

// AttributeValue binds an attribute to the values chosen for a product
type AttributeValue struct {
	AttributeID string   `json:"attributeId" validate:"required"`
	Slug        string   `json:"slug,omitempty"`
	Values      []string `json:"values" validate:"min=1,dive,required"`
}

// MappedProduct is a row translated into a backend-ready product record
type MappedProduct struct {
	Row              int              `json:"row"`
	Name             string           `json:"name" validate:"required,max=255"`
	Slug             string           `json:"slug" validate:"required,max=255"`
	SKU              string           `json:"sku,omitempty" validate:"omitempty,max=100"`
	ProductTypeID    string           `json:"productTypeId" validate:"required"`
	CategoryIDs      []string         `json:"categoryIds,omitempty" validate:"dive,required"`
	Price            float64          `json:"price" validate:"gte=0"`
	SalePrice        *float64         `json:"salePrice,omitempty" validate:"omitempty,gte=0"`
	Stock            *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive         bool             `json:"isActive"`
	ShortDescription string           `json:"shortDescription,omitempty"`
	Description      string           `json:"description,omitempty"`
	Attributes       []AttributeValue `json:"attributes,omitempty" validate:"dive"`
}

// Product is a product as listed by the catalog backend
type Product struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	SKU              string           `json:"sku,omitempty"`
	ProductTypeID    string           `json:"productTypeId"`
	CategoryIDs      []string         `json:"categoryIds,omitempty"`
	Price            float64          `json:"price"`
	SalePrice        *float64         `json:"salePrice,omitempty"`
	Stock            *int             `json:"stock,omitempty"`
	IsActive         bool             `json:"isActive"`
	ShortDescription string           `json:"shortDescription,omitempty"`
	Description      string           `json:"description,omitempty"`
	Attributes       []AttributeValue `json:"attributes,omitempty"`
}

// JSON is a free-form object used in error details
type JSON map[string]interface{}

type PaginationInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

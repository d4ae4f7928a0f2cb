package domain

import "time"

type PropertyType string

const (
	TypeApartment  PropertyType = "apartment"
	TypeHouse      PropertyType = "house"
	TypeCommercial PropertyType = "commercial"
	TypeLot        PropertyType = "lot"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeApartment, TypeHouse, TypeCommercial, TypeLot:
		return true
	}
	return false
}

type Purpose string

const (
	PurposeSale     Purpose = "sale"
	PurposeRent     Purpose = "rent"
	PurposeSaleRent Purpose = "sale-rent"
	PurposeDaily    Purpose = "daily"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeSale, PurposeRent, PurposeSaleRent, PurposeDaily:
		return true
	}
	return false
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type Property struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	Title            string          `json:"title"`
	PropertyType     PropertyType    `json:"propertyType"`
	Purpose          Purpose         `json:"purpose"`
	SalePrice        *float64        `json:"salePrice"`
	RentalPrice      *float64        `json:"rentalPrice"`
	DailyPrice       *float64        `json:"dailyPrice"`
	CondominiumFee   *float64        `json:"condominiumFee"`
	IPTUValue        *float64        `json:"iptuValue"`
	AcceptsFinancing bool            `json:"acceptsFinancing"`
	AcceptsExchange  bool            `json:"acceptsExchange"`
	TotalArea        *float64        `json:"totalArea"`
	BuiltArea        *float64        `json:"builtArea"`
	Bedrooms         *int            `json:"numberOfBedrooms"`
	Suites           *int            `json:"numberOfSuites"`
	Bathrooms        *int            `json:"numberOfBathrooms"`
	ParkingSpots     *int            `json:"numberOfParkingSpots"`
	ConstructionYear *int            `json:"constructionYear"`
	Floor            *int            `json:"floor"`
	Neighborhood     string          `json:"neighborhood"`
	Location         string          `json:"location"` // map reference (embed URL)
	Description      string          `json:"description"`
	Active           bool            `json:"active"`
	Highlight        bool            `json:"highlight"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Images           []Image         `json:"images"`
	Infrastructure   *Infrastructure `json:"infrastructure,omitempty"`
}

type Image struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"propertyId"`
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	Type       MediaType `json:"type"`
	Highlight  bool      `json:"highlight"`
}

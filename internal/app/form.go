package app

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"imoveis/internal/domain"
)

// Form keys of the property create/update form.
const (
	keyCode             = "code"
	keyTitle            = "title"
	keyPropertyType     = "propertyType"
	keyPurpose          = "purpose"
	keySalePrice        = "salePrice"
	keyRentalPrice      = "rentalPrice"
	keyDailyPrice       = "dailyPrice"
	keyCondominiumFee   = "condominiumFee"
	keyIPTUValue        = "iptuValue"
	keyAcceptsFinancing = "acceptsFinancing"
	keyAcceptsExchange  = "acceptsExchange"
	keyTotalArea        = "totalArea"
	keyBuiltArea        = "builtArea"
	keyBedrooms         = "numberOfBedrooms"
	keySuites           = "numberOfSuites"
	keyBathrooms        = "numberOfBathrooms"
	keyParkingSpots     = "numberOfParkingSpots"
	keyConstructionYear = "constructionYear"
	keyFloor            = "floor"
	keyNeighborhood     = "neighborhood"
	keyLocation         = "location"
	keyDescription      = "description"
	keyInfrastructure   = "infrastructure"
)

var requiredKeys = []string{keyCode, keyPropertyType, keyPurpose, keyNeighborhood, keyLocation}

// non-negative when present
var signedKeys = []string{keySalePrice, keyRentalPrice, keyDailyPrice, keyTotalArea, keyBuiltArea, keyBedrooms, keyBathrooms}

// PropertyForm is the raw create/update submission.
type PropertyForm struct {
	Values map[string]string
	Files  []domain.MediaFile
}

func (f PropertyForm) get(k string) string { return strings.TrimSpace(f.Values[k]) }

// parsedForm is the validated, coerced form.
type parsedForm struct {
	property domain.Property
	infra    domain.Infrastructure
}

// parseForm runs validation and coercion in pipeline order; the first
// failure wins. requireMedia is set on the create path.
func parseForm(f PropertyForm, requireMedia bool) (parsedForm, error) {
	for _, k := range requiredKeys {
		if f.get(k) == "" {
			return parsedForm{}, &domain.ValidationError{Field: k, Message: "is required"}
		}
	}
	if t := domain.PropertyType(f.get(keyPropertyType)); !t.Valid() {
		return parsedForm{}, &domain.ValidationError{Field: keyPropertyType, Message: "must be one of apartment, house, commercial, lot"}
	}
	if p := domain.Purpose(f.get(keyPurpose)); !p.Valid() {
		return parsedForm{}, &domain.ValidationError{Field: keyPurpose, Message: "must be one of sale, rent, sale-rent, daily"}
	}

	for _, k := range signedKeys {
		s := f.get(k)
		if s == "" {
			continue
		}
		n, err := parseNumber(s)
		if err != nil {
			return parsedForm{}, &domain.ValidationError{Field: k, Message: "must be a number"}
		}
		if n < 0 {
			return parsedForm{}, &domain.ValidationError{Field: k, Message: "must not be negative"}
		}
	}

	raw, ok := f.Values[keyInfrastructure]
	if !ok || strings.TrimSpace(raw) == "" {
		return parsedForm{}, domain.NewHTTPError(http.StatusBadRequest, "infrastructure data is required")
	}
	var selected []string
	if err := json.Unmarshal([]byte(raw), &selected); err != nil {
		return parsedForm{}, &domain.ValidationError{Message: "invalid data format"}
	}

	if requireMedia && len(f.Files) == 0 {
		return parsedForm{}, domain.NewHTTPError(http.StatusBadRequest, "at least one image or video is required")
	}

	c := coercer{f: f}
	p := domain.Property{
		Code:             f.get(keyCode),
		Title:            f.get(keyTitle),
		PropertyType:     domain.PropertyType(f.get(keyPropertyType)),
		Purpose:          domain.Purpose(f.get(keyPurpose)),
		SalePrice:        c.float(keySalePrice),
		RentalPrice:      c.float(keyRentalPrice),
		DailyPrice:       c.float(keyDailyPrice),
		CondominiumFee:   c.float(keyCondominiumFee),
		IPTUValue:        c.float(keyIPTUValue),
		AcceptsFinancing: f.get(keyAcceptsFinancing) == "true",
		AcceptsExchange:  f.get(keyAcceptsExchange) == "true",
		TotalArea:        c.float(keyTotalArea),
		BuiltArea:        c.float(keyBuiltArea),
		Bedrooms:         c.int(keyBedrooms),
		Suites:           c.int(keySuites),
		Bathrooms:        c.int(keyBathrooms),
		ParkingSpots:     c.int(keyParkingSpots),
		ConstructionYear: c.int(keyConstructionYear),
		Floor:            c.int(keyFloor),
		Neighborhood:     f.get(keyNeighborhood),
		Location:         f.get(keyLocation),
		Description:      f.get(keyDescription),
	}
	if c.err != nil {
		return parsedForm{}, c.err
	}
	return parsedForm{property: p, infra: domain.InfrastructureFrom(selected)}, nil
}

// coercer converts form strings, keeping the first failure. Empty strings
// become nil, never zero.
type coercer struct {
	f   PropertyForm
	err error
}

func (c *coercer) float(k string) *float64 {
	s := c.f.get(k)
	if s == "" || c.err != nil {
		return nil
	}
	n, err := parseNumber(s)
	if err != nil {
		c.err = &domain.ValidationError{Field: k, Message: "must be a number"}
		return nil
	}
	return &n
}

func (c *coercer) int(k string) *int {
	s := c.f.get(k)
	if s == "" || c.err != nil {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// accept "3.0" style input from number widgets
		f, ferr := parseNumber(s)
		if ferr != nil || f != float64(int(f)) {
			c.err = &domain.ValidationError{Field: k, Message: "must be an integer"}
			return nil
		}
		n = int(f)
	}
	return &n
}

var errNotFinite = errors.New("not a finite number")

// parseNumber accepts "1500", "1500.5" and "1500,5". NaN and Inf are refused.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errNotFinite
	}
	return n, nil
}

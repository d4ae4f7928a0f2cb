package app

import (
	"path"
	"strconv"
	"strings"

	"imoveis/internal/domain"
)

/********** alias registries **********/

var listingAliases = map[string][]string{
	"code":         {"code", "codigo", "ref", "reference", "listing.code"},
	"title":        {"title", "titulo", "name", "headline"},
	"type":         {"propertyType", "type", "tipo", "category", "listing.type"},
	"purpose":      {"purpose", "finalidade", "transaction", "business", "listing.purpose"},
	"neighborhood": {"neighborhood", "bairro", "address.neighborhood", "address.district"},
	"location":     {"location", "localizacao", "mapUrl", "map", "address.map"},
	"description":  {"description", "descricao", "details", "body"},
}

var numberAliases = map[string][]string{
	"salePrice":        {"salePrice", "valor_venda", "price.sale", "prices.sale"},
	"rentalPrice":      {"rentalPrice", "valor_aluguel", "price.rent", "prices.rent"},
	"dailyPrice":       {"dailyPrice", "valor_diaria", "price.daily", "prices.daily"},
	"condominiumFee":   {"condominiumFee", "condominio", "fees.condominium"},
	"iptuValue":        {"iptuValue", "iptu", "fees.iptu"},
	"totalArea":        {"totalArea", "area_total", "area.total", "area"},
	"builtArea":        {"builtArea", "area_construida", "area.built"},
	"bedrooms":         {"numberOfBedrooms", "bedrooms", "quartos", "rooms.bedrooms"},
	"suites":           {"numberOfSuites", "suites", "rooms.suites"},
	"bathrooms":        {"numberOfBathrooms", "bathrooms", "banheiros", "rooms.bathrooms"},
	"parkingSpots":     {"numberOfParkingSpots", "parkingSpots", "vagas", "garage"},
	"constructionYear": {"constructionYear", "ano_construcao", "yearBuilt"},
	"floor":            {"floor", "andar"},
}

var typeAliases = map[string]domain.PropertyType{
	"apartment": domain.TypeApartment, "apartamento": domain.TypeApartment, "apto": domain.TypeApartment, "flat": domain.TypeApartment,
	"house": domain.TypeHouse, "casa": domain.TypeHouse, "sobrado": domain.TypeHouse,
	"commercial": domain.TypeCommercial, "comercial": domain.TypeCommercial, "sala": domain.TypeCommercial, "loja": domain.TypeCommercial,
	"lot": domain.TypeLot, "terreno": domain.TypeLot, "lote": domain.TypeLot,
}

var purposeAliases = map[string]domain.Purpose{
	"sale": domain.PurposeSale, "venda": domain.PurposeSale,
	"rent": domain.PurposeRent, "aluguel": domain.PurposeRent, "locação": domain.PurposeRent, "locacao": domain.PurposeRent,
	"sale-rent": domain.PurposeSaleRent, "venda e aluguel": domain.PurposeSaleRent, "venda/aluguel": domain.PurposeSaleRent,
	"daily": domain.PurposeDaily, "temporada": domain.PurposeDaily, "diária": domain.PurposeDaily, "diaria": domain.PurposeDaily,
}

// featureAliases maps free-text amenity names onto feature identifiers.
var featureAliases = map[string]string{
	"piscina": "pool", "academia": "gym", "elevador": "elevator",
	"churrasqueira": "barbecue", "parquinho": "playground",
	"salão de festas": "partyRoom", "salao de festas": "partyRoom", "party room": "partyRoom",
	"espaço gourmet": "gourmetArea", "espaco gourmet": "gourmetArea", "gourmet area": "gourmetArea",
	"portaria": "concierge", "portaria 24h": "concierge", "segurança": "security", "seguranca": "security",
	"jardim": "garden", "quadra": "sportsCourt", "quadra poliesportiva": "sportsCourt", "sports court": "sportsCourt",
	"lavanderia": "laundry", "espaço pet": "petArea", "espaco pet": "petArea", "pet area": "petArea",
	"varanda": "balcony", "sacada": "balcony",
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupText returns the value at path as text; numbers are formatted.
func lookupText(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func firstText(m map[string]any, key string) string {
	for _, p := range listingAliases[key] {
		if s := lookupText(m, p); s != "" {
			return s
		}
	}
	return ""
}

// flexibleNumber accepts 1500, "1500", "1500,5" and "1.234,5".
func flexibleNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// getFloatFlexible: number from several paths (float64/string).
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case string:
			if f, ok := flexibleNumber(v); ok {
				return &f
			}
		}
	}
	return nil
}

func getIntFlexible(m map[string]any, paths ...string) *int {
	if f := getFloatFlexible(m, paths...); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		raw, ok := lookupAny(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				if t != "" {
					out = append(out, t)
				}
			case map[string]any:
				for _, field := range []string{"url", "src", "name"} {
					if u, ok := t[field].(string); ok && u != "" {
						out = append(out, u)
						break
					}
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func boolFlexible(m map[string]any, def bool, paths ...string) bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			return v
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "sim", "yes", "1":
				return true
			case "false", "nao", "não", "no", "0":
				return false
			}
		case float64:
			return v != 0
		}
	}
	return def
}

/********** listing mapper **********/

// mappedListing is one imported listing before persistence.
type mappedListing struct {
	property domain.Property
	infra    domain.Infrastructure
	images   []domain.Image
}

func mapListing(m map[string]any) mappedListing {
	num := func(k string) *float64 { return getFloatFlexible(m, numberAliases[k]...) }
	count := func(k string) *int { return getIntFlexible(m, numberAliases[k]...) }

	p := domain.Property{
		Code:             firstText(m, "code"),
		Title:            firstText(m, "title"),
		PropertyType:     normalizeType(firstText(m, "type")),
		Purpose:          normalizePurpose(firstText(m, "purpose")),
		SalePrice:        num("salePrice"),
		RentalPrice:      num("rentalPrice"),
		DailyPrice:       num("dailyPrice"),
		CondominiumFee:   num("condominiumFee"),
		IPTUValue:        num("iptuValue"),
		AcceptsFinancing: boolFlexible(m, false, "acceptsFinancing", "financiamento"),
		AcceptsExchange:  boolFlexible(m, false, "acceptsExchange", "permuta"),
		TotalArea:        num("totalArea"),
		BuiltArea:        num("builtArea"),
		Bedrooms:         count("bedrooms"),
		Suites:           count("suites"),
		Bathrooms:        count("bathrooms"),
		ParkingSpots:     count("parkingSpots"),
		ConstructionYear: count("constructionYear"),
		Floor:            count("floor"),
		Neighborhood:     firstText(m, "neighborhood"),
		Location:         firstText(m, "location"),
		Description:      firstText(m, "description"),
		Active:           boolFlexible(m, true, "active", "ativo", "published"),
		Highlight:        boolFlexible(m, false, "highlight", "destaque", "featured"),
	}

	var feats []string
	for _, f := range firstSliceStrings(m, "infrastructure", "features", "amenities", "caracteristicas") {
		feats = append(feats, normalizeFeature(f))
	}

	var imgs []domain.Image
	for i, u := range firstSliceStrings(m, "images", "photos", "fotos", "media") {
		imgs = append(imgs, domain.Image{
			URL:       u,
			Name:      cleanName(remoteName(u)),
			Type:      mediaTypeOf(remoteName(u), ""),
			Highlight: i == 0,
		})
	}
	return mappedListing{property: p, infra: domain.InfrastructureFrom(feats), images: imgs}
}

func normalizeType(s string) domain.PropertyType {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	return domain.PropertyType(s)
}

func normalizePurpose(s string) domain.Purpose {
	if p, ok := purposeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p
	}
	return domain.Purpose(s)
}

// normalizeFeature accepts a feature identifier in any case, or a known
// free-text name.
func normalizeFeature(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	for _, f := range domain.Features {
		if strings.ToLower(f) == t {
			return f
		}
	}
	if f, ok := featureAliases[t]; ok {
		return f
	}
	return s
}

// remoteName is the last path segment of a URL without its query.
func remoteName(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return path.Base(u)
}

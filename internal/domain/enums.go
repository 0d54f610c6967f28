package domain

import "strings"

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf": FileTypePDF,
}

// InvoiceStatus is the fulfillment state printed in the invoice header.
type InvoiceStatus string

const (
	StatusFulfilled InvoiceStatus = "FULFILLED"
	StatusPending   InvoiceStatus = "PENDING"
	StatusCancelled InvoiceStatus = "CANCELLED"
	StatusUnknown   InvoiceStatus = "unknown"
)

// ProductType is the closed product-category vocabulary the vendor system
// prints on the TYPE - SUBTYPE line. Unrecognized categories fall back to
// ProductTypeUnknown.
type ProductType string

const (
	ProductTypeFlower      ProductType = "FLOWER"
	ProductTypePreroll     ProductType = "PREROLL"
	ProductTypeCartridge   ProductType = "CARTRIDGE"
	ProductTypeEdible      ProductType = "EDIBLE"
	ProductTypeExtract     ProductType = "EXTRACT"
	ProductTypeBeverage    ProductType = "BEVERAGE"
	ProductTypeTincture    ProductType = "TINCTURE"
	ProductTypeTopical     ProductType = "TOPICAL"
	ProductTypeCapsule     ProductType = "CAPSULE"
	ProductTypeConcentrate ProductType = "CONCENTRATE"
	ProductTypeVape        ProductType = "VAPE"
	ProductTypeUnknown     ProductType = "UNKNOWN"
)

// NonCannabisTypes are categories whose line items carry no regulatory
// trace ID. Rows of these types are kept even without a trace ID.
var NonCannabisTypes = map[ProductType]bool{
	"MERCH":       true,
	"MERCHANDISE": true,
	"ACCESSORY":   true,
	"ROLLING":     true,
	"SUPPLY":      true,
	"SUPPLIES":    true,
	"APPAREL":     true,
	"GEAR":        true,
	"DEVICE":      true,
	"HARDWARE":    true,
}

// IsNonCannabis reports whether the product type is exempt from trace-ID
// validation.
func (p ProductType) IsNonCannabis() bool {
	return NonCannabisTypes[ProductType(strings.ToUpper(string(p)))]
}

// Store identifies one of the two receiving dispensaries.
type Store string

const (
	StoreBarbaryCoast Store = "Barbary Coast"
	StoreGrassRoots   Store = "Grass Roots"
)

// Receiver identities as printed in invoice headers, with their fixed
// street addresses.
const (
	ReceiverBarbaryCoast        = "Barbary Coast Dispensary"
	ReceiverBarbaryCoastAddress = "952 Mission St, San Francisco, CA 94103"
	ReceiverGrassRoots          = "Grass Roots"
	ReceiverGrassRootsAddress   = "1077 Post St, San Francisco, CA 94109"
)

// NormalizeStore maps a receiver or customer name onto a Store key for
// duplicate detection. Unrecognized names pass through verbatim so that
// invoices from unknown receivers still group consistently.
func NormalizeStore(name string) Store {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "barbary"):
		return StoreBarbaryCoast
	case strings.Contains(lower, "grass"):
		return StoreGrassRoots
	default:
		return Store(name)
	}
}

package models

// Document type names as stored in the CMS.
const (
	TypeState     = "state"
	TypeArea      = "areas"
	TypeCommunity = "community"
	TypeFloorPlan = "floorPlan"
	TypeHouse     = "house"
)

// Reference points at another document. Every reference the pipeline
// writes is weak so deleting a parent never blocks on its children.
type Reference struct {
	Key  string `json:"_key,omitempty"`
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
	Weak bool   `json:"_weak,omitempty"`
}

func WeakRef(id string) *Reference {
	return &Reference{Type: "reference", Ref: id, Weak: true}
}

// KeyedWeakRef is a weak reference usable as an array item.
func KeyedWeakRef(id, key string) Reference {
	return Reference{Key: key, Type: "reference", Ref: id, Weak: true}
}

type Slug struct {
	Type    string `json:"_type"`
	Current string `json:"current"`
}

func NewSlug(s string) *Slug {
	return &Slug{Type: "slug", Current: s}
}

type State struct {
	ID   string `json:"_id"`
	Type string `json:"_type"`
	Name string `json:"name"`
	Slug *Slug  `json:"slug,omitempty"`
}

type Location struct {
	Type      string   `json:"_type"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
	ZoomLevel *float64 `json:"zoomLevel,omitempty"`
}

type RteData struct {
	Type      string `json:"_type"`
	Status    string `json:"status"`
	CountDown string `json:"countDown"`
}

type Area struct {
	ID              string     `json:"_id"`
	Type            string     `json:"_type"`
	Name            string     `json:"name"`
	StateRef        *Reference `json:"stateRef,omitempty"`
	Title           string     `json:"title,omitempty"`
	URL             string     `json:"url,omitempty"`
	ItemPath        string     `json:"itemPath,omitempty"`
	OwningTeam      string     `json:"owningTeam,omitempty"`
	Breadcrumb      string     `json:"breadcrumb,omitempty"`
	Location        *Location  `json:"location,omitempty"`
	AreaInfoContent string     `json:"areaInfoContent,omitempty"`
	RteData         *RteData   `json:"rteData,omitempty"`
}

type Community struct {
	ID             string     `json:"_id"`
	Type           string     `json:"_type"`
	Name           string     `json:"name"`
	StateRef       *Reference `json:"stateRef,omitempty"`
	AreaRef        *Reference `json:"areaRef,omitempty"`
	Address        string     `json:"address,omitempty"`
	Brand          string     `json:"brand,omitempty"`
	PageLink       string     `json:"pageLink,omitempty"`
	ImageLink      string     `json:"imageLink,omitempty"`
	SellingStatus  string     `json:"sellingStatus"`
	AvailableHomes *float64   `json:"availableHomes,omitempty"`
	MinBeds        *float64   `json:"minBeds,omitempty"`
	MaxBeds        *float64   `json:"maxBeds,omitempty"`
	MinBaths       *float64   `json:"minBaths,omitempty"`
	MaxBaths       *float64   `json:"maxBaths,omitempty"`
	MinCars        *float64   `json:"minCars,omitempty"`
	MaxCars        *float64   `json:"maxCars,omitempty"`
	MinStories     *float64   `json:"minStories,omitempty"`
	MaxStories     *float64   `json:"maxStories,omitempty"`
	MinSqft        *float64   `json:"minSqft,omitempty"`
	MaxSqft        *float64   `json:"maxSqft,omitempty"`
	MinPrice       *float64   `json:"minPrice,omitempty"`
	MaxPrice       *float64   `json:"maxPrice,omitempty"`
	CallForPrice   bool       `json:"callForPrice"`
	Amenities      []string   `json:"amenities"`
	PropertyType   string     `json:"propertyType,omitempty"`
}

type FloorPlan struct {
	ID           string     `json:"_id"`
	Type         string     `json:"_type"`
	Name         string     `json:"name"`
	Slug         *Slug      `json:"slug,omitempty"`
	CommunityRef *Reference `json:"communityRef,omitempty"`
	PageLink     string     `json:"pageLink,omitempty"`
	ImageLink    string     `json:"imageLink,omitempty"`
	Beds         *float64   `json:"beds,omitempty"`
	Baths        *float64   `json:"baths,omitempty"`
	Sqft         *float64   `json:"sqft,omitempty"`
	Stories      *int       `json:"stories,omitempty"`
	Garage       *int       `json:"garage,omitempty"`
	Price        *int       `json:"price,omitempty"`
	MinPrice     *int       `json:"minPrice,omitempty"`
	MaxPrice     *int       `json:"maxPrice,omitempty"`
	Brand        string     `json:"brand,omitempty"`
	Description  string     `json:"description,omitempty"`
}

// House statuses derived from the listing badge.
const (
	HouseAvailable     = "Available"
	HouseSold          = "Sold"
	HouseUnderContract = "Under Contract"
	HouseModelHome     = "Model Home"
)

type House struct {
	ID            string     `json:"_id"`
	Type          string     `json:"_type"`
	Address       string     `json:"address"`
	City          string     `json:"city,omitempty"`
	State         string     `json:"state,omitempty"`
	Zip           string     `json:"zip,omitempty"`
	CommunityRef  *Reference `json:"communityRef,omitempty"`
	FloorPlanRef  *Reference `json:"floorPlanRef,omitempty"`
	PageLink      string     `json:"pageLink,omitempty"`
	ImageLink     string     `json:"imageLink,omitempty"`
	Price         *int       `json:"price,omitempty"`
	Status        string     `json:"status"`
	MoveInStatus  string     `json:"moveInStatus,omitempty"`
	FloorPlanName string     `json:"floorPlanName,omitempty"`
	Brand         string     `json:"brand,omitempty"`
	Beds          *float64   `json:"beds,omitempty"`
	Baths         *float64   `json:"baths,omitempty"`
	Sqft          *float64   `json:"sqft,omitempty"`
	Garage        *int       `json:"garage,omitempty"`
	Stories       *int       `json:"stories,omitempty"`
	Lot           string     `json:"lot,omitempty"`
}

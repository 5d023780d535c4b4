package models

// CommunitySummary is the projection the scrape steps work from.
type CommunitySummary struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	PageLink  string `json:"pageLink"`
	StateName string `json:"stateName"`
	StateID   string `json:"stateId"`
	AreaName  string `json:"areaName"`
}

type FloorPlanSummary struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	CommunityRef *Reference `json:"communityRef"`
}

type HouseSummary struct {
	ID            string     `json:"_id"`
	Address       string     `json:"address"`
	FloorPlanName string     `json:"floorPlanName"`
	CommunityRef  *Reference `json:"communityRef"`
	FloorPlanRef  *Reference `json:"floorPlanRef"`
}

// RefID returns the referenced id or "" for a nil reference.
func RefID(r *Reference) string {
	if r == nil {
		return ""
	}
	return r.Ref
}

// Document is an untyped CMS document as returned by a raw query.
type Document map[string]any

func (d Document) ID() string {
	s, _ := d["_id"].(string)
	return s
}

func (d Document) Type() string {
	s, _ := d["_type"].(string)
	return s
}

func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

package scraper

import (
	"strings"

	"homesite_sync/config"
	"homesite_sync/identity"
	"homesite_sync/models"
)

// StateDocument names a state after the comms metadata, falling back to
// its slug.
func StateDocument(slug string, resp *CommsResponse) *models.State {
	name := slug
	if resp != nil && resp.MetaData.AreaInfoData != nil && resp.MetaData.AreaInfoData.Name != "" {
		name = resp.MetaData.AreaInfoData.Name
	}
	return &models.State{
		ID:   identity.StateID(slug),
		Type: models.TypeState,
		Name: identity.CapitalizeFirst(name),
		Slug: models.NewSlug(slug),
	}
}

func CommunityDocument(site *config.SiteConfig, state string, comm CommunityData) *models.Community {
	amenities := comm.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return &models.Community{
		ID:             identity.CommunityID(state, comm.Name),
		Type:           models.TypeCommunity,
		Name:           comm.Name,
		StateRef:       models.WeakRef(identity.StateID(state)),
		Address:        comm.Address,
		Brand:          comm.Brand,
		PageLink:       site.Absolute(comm.PageLink),
		ImageLink:      site.Absolute(comm.ImageLink),
		SellingStatus:  site.Status(comm.SellingStatus),
		AvailableHomes: comm.AvailableHomes.Ptr(),
		MinBeds:        comm.MinBeds.Ptr(),
		MaxBeds:        comm.MaxBeds.Ptr(),
		MinBaths:       comm.MinBaths.Ptr(),
		MaxBaths:       comm.MaxBaths.Ptr(),
		MinCars:        comm.MinCars.Ptr(),
		MaxCars:        comm.MaxCars.Ptr(),
		MinStories:     comm.MinStories.Ptr(),
		MaxStories:     comm.MaxStories.Ptr(),
		MinSqft:        comm.MinSqft.Ptr(),
		MaxSqft:        comm.MaxSqft.Ptr(),
		MinPrice:       comm.MinPrice.Ptr(),
		MaxPrice:       comm.MaxPrice.Ptr(),
		CallForPrice:   bool(comm.CallForPrice),
		Amenities:      amenities,
		PropertyType:   comm.PropertyType,
	}
}

// AreaDocument returns nil when the response carries no area metadata.
func AreaDocument(href string, resp *CommsResponse) *models.Area {
	if resp == nil || resp.MetaData.AreaInfoData == nil {
		return nil
	}
	info := resp.MetaData.AreaInfoData

	area := &models.Area{
		ID:         identity.AreaID(href),
		Type:       models.TypeArea,
		Name:       info.Name,
		Title:      info.Title,
		URL:        info.URL,
		ItemPath:   info.ItemPath,
		OwningTeam: info.OwningTeam,
		Breadcrumb: info.Breadcrumb,
		Location: &models.Location{
			Type:      "object",
			Latitude:  info.Latitude.Ptr(),
			Longitude: info.Longitude.Ptr(),
			Radius:    info.Radius.Ptr(),
			ZoomLevel: info.ZoomLevel.Ptr(),
		},
		AreaInfoContent: info.AreaInfoContent,
	}
	if state := identity.StateFromPath(href); state != "" {
		area.StateRef = models.WeakRef(identity.StateID(state))
	}

	if rte := resp.MetaData.RteData; rte != nil {
		status := strings.TrimSpace(rte.Status)
		if status == "" {
			status = "None"
		}
		area.RteData = &models.RteData{
			Type:      "object",
			Status:    status,
			CountDown: rte.CountDown,
		}
	}
	return area
}

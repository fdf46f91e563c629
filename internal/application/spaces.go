package application

import "strings"

// SpaceCategory groups spaces the way usage reports do.
type SpaceCategory string

const (
	CategoryDesk   SpaceCategory = "desk"
	CategoryRoom   SpaceCategory = "room"
	CategoryOffice SpaceCategory = "office"
)

// Space is a bookable place offered to members.
type Space struct {
	Name     string
	Category SpaceCategory
}

// SpaceCatalog lists the spaces offered for booking. The ledger accepts any
// space name; the catalog only informs clients.
var SpaceCatalog = []Space{
	{Name: "Desk 1", Category: CategoryDesk},
	{Name: "Desk 2", Category: CategoryDesk},
	{Name: "Desk 3", Category: CategoryDesk},
	{Name: "Meeting Room A", Category: CategoryRoom},
	{Name: "Meeting Room B", Category: CategoryRoom},
	{Name: "Conference Room", Category: CategoryRoom},
	{Name: "Private Office 1", Category: CategoryOffice},
	{Name: "Private Office 2", Category: CategoryOffice},
}

// CategoryOf infers the category of a free text space name, or "" when none matches.
func CategoryOf(space string) SpaceCategory {
	lower := strings.ToLower(space)
	switch {
	case strings.Contains(lower, "desk"):
		return CategoryDesk
	case strings.Contains(lower, "room"), strings.Contains(lower, "meeting"), strings.Contains(lower, "conference"):
		return CategoryRoom
	case strings.Contains(lower, "office"):
		return CategoryOffice
	}
	return ""
}

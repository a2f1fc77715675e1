package geo

import (
	"strings"

	"caregiver-matching/internal/models"
)

// cityCoordinates holds approximate centers of the localities the pool covers.
var cityCoordinates = map[string]models.Coordinate{
	"tel aviv":        {Lat: 32.0853, Lng: 34.7818},
	"jerusalem":       {Lat: 31.7683, Lng: 35.2137},
	"haifa":           {Lat: 32.7940, Lng: 34.9896},
	"netanya":         {Lat: 32.3215, Lng: 34.8532},
	"nethanya":        {Lat: 32.3215, Lng: 34.8532},
	"petach tikva":    {Lat: 32.0871, Lng: 34.8875},
	"rishon lezion":   {Lat: 31.9730, Lng: 34.7925},
	"rishon letsiyon": {Lat: 31.9730, Lng: 34.7925},
	"ramat gan":       {Lat: 32.0684, Lng: 34.8248},
	"ramat-gan":       {Lat: 32.0684, Lng: 34.8248},
	"bat yam":         {Lat: 32.0171, Lng: 34.7454},
	"bat-yam":         {Lat: 32.0171, Lng: 34.7454},
	"hadera":          {Lat: 32.4340, Lng: 34.9196},
	"herzliya":        {Lat: 32.1624, Lng: 34.8447},
	"ashdod":          {Lat: 31.8044, Lng: 34.6553},
	"ashkelon":        {Lat: 31.6688, Lng: 34.5743},
	"beer sheva":      {Lat: 31.2518, Lng: 34.7913},
	"rehovot":         {Lat: 31.8928, Lng: 34.8113},
	"rehovoth":        {Lat: 31.8928, Lng: 34.8113},
	"holon":           {Lat: 32.0117, Lng: 34.7748},
	"kfar saba":       {Lat: 32.1750, Lng: 34.9069},
	"raanana":         {Lat: 32.1848, Lng: 34.8713},
}

// CityCoordinates returns the known center of a locality, or nil.
func CityCoordinates(name string) *models.Coordinate {
	c, ok := cityCoordinates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil
	}
	return &c
}

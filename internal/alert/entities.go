package alert

import "sort"

// Entities is the union of distinct entity values observed across a set of
// alerts. Values keep their original casing (only the overlap matcher folds
// case) and each slice is sorted so the same membership always produces the
// same snapshot.
type Entities struct {
	Users     []string `json:"users"`
	IPs       []string `json:"ips"`
	Devices   []string `json:"devices"`
	Locations []string `json:"locations"`
}

// CollectEntities aggregates the distinct non-empty entity values of alerts.
func CollectEntities(alerts []*Alert) Entities {
	users := map[string]struct{}{}
	ips := map[string]struct{}{}
	devices := map[string]struct{}{}
	locations := map[string]struct{}{}

	for _, a := range alerts {
		if a.EntityUser != "" {
			users[a.EntityUser] = struct{}{}
		}
		if a.EntityIP != "" {
			ips[a.EntityIP] = struct{}{}
		}
		if a.EntityDevice != "" {
			devices[a.EntityDevice] = struct{}{}
		}
		if a.EntityLocation != "" {
			locations[a.EntityLocation] = struct{}{}
		}
	}

	return Entities{
		Users:     sortedKeys(users),
		IPs:       sortedKeys(ips),
		Devices:   sortedKeys(devices),
		Locations: sortedKeys(locations),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

package engine

// Zone is a named heart-rate band; a BPM belongs to the first zone whose
// upper bound is not below it.
type Zone struct {
	Name       string `json:"name"`
	UpperBound int    `json:"upperBound"`
	Color      string `json:"color"`
}

// Zones is ordered ascending. The last bound doubles as the catch-all ceiling.
var Zones = []Zone{
	{Name: "Rest", UpperBound: 90, Color: "#3b82f6"},
	{Name: "Light", UpperBound: 110, Color: "#22c55e"},
	{Name: "Moderate", UpperBound: 130, Color: "#eab308"},
	{Name: "Vigorous", UpperBound: 150, Color: "#f97316"},
	{Name: "High", UpperBound: 170, Color: "#ef4444"},
	{Name: "Maximum", UpperBound: 240, Color: "#7c3aed"},
}

// ClassifyZone maps bpm to its zone. Zero or negative rates map to Rest.
func ClassifyZone(bpm int) Zone {
	if bpm <= 0 {
		return Zones[0]
	}
	for _, z := range Zones {
		if bpm <= z.UpperBound {
			return z
		}
	}
	return Zones[len(Zones)-1]
}

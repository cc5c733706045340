package territory

// Built-in Melbourne travel estimates in minutes. The matrix is sparse and
// symmetric lookups are handled by the caller; pairs missing entirely are
// estimated from zones.
var defaultTravelMinutes = map[string]map[string]int{
	"Melbourne": {
		"Carlton": 8, "Richmond": 12, "Fitzroy": 10, "South Yarra": 15,
		"St Kilda": 18, "Brighton": 25, "Toorak": 18, "Hawthorn": 15,
		"Camberwell": 20, "Brunswick": 12, "Collingwood": 10, "Prahran": 16,
	},
	"Carlton": {
		"Fitzroy": 8, "Collingwood": 10, "Brunswick": 12, "Richmond": 15,
		"Hawthorn": 20, "South Yarra": 18, "Brighton": 30, "St Kilda": 25,
	},
	"Fitzroy": {
		"Collingwood": 5, "Richmond": 8, "Brunswick": 15, "Hawthorn": 18,
		"South Yarra": 20, "St Kilda": 30,
	},
	"Richmond": {
		"Collingwood": 10, "Brunswick": 25, "Hawthorn": 15, "Camberwell": 18,
		"South Yarra": 12, "Toorak": 18, "Brighton": 25, "St Kilda": 20,
		"Prahran": 15,
	},
	"Hawthorn": {
		"Camberwell": 12, "South Yarra": 15, "Toorak": 12, "Brighton": 25,
		"St Kilda": 22, "Prahran": 18, "Kew": 10,
	},
	"South Yarra": {
		"Toorak": 8, "Brighton": 20, "St Kilda": 15, "Prahran": 5,
	},
	"Brunswick": {
		"Collingwood": 18, "Northcote": 8, "Coburg": 12,
	},
	"St Kilda": {
		"Brighton": 15, "Prahran": 12, "Elwood": 8,
	},
	"Brighton": {
		"Elsternwick": 8, "Bentleigh": 12, "Sandringham": 10,
	},
}

var defaultZones = map[string][]string{
	"INNER_CITY":  {"Melbourne", "Southbank", "Docklands", "Carlton", "Fitzroy", "Collingwood", "Richmond"},
	"INNER_NORTH": {"Brunswick", "Northcote", "Thornbury", "Preston", "Coburg", "Parkville"},
	"INNER_EAST":  {"Hawthorn", "Camberwell", "Kew", "Auburn", "Burnley", "Abbotsford"},
	"INNER_SOUTH": {"South Yarra", "Toorak", "Prahran", "Windsor", "St Kilda", "Albert Park"},
	"BAYSIDE":     {"Brighton", "Elwood", "Sandringham", "Bentleigh", "Elsternwick", "Balaclava"},
	"EASTERN":     {"Malvern", "Armadale", "Glen Iris", "Caulfield", "Oakleigh", "Cheltenham"},
}

// Zone-to-zone travel estimates in minutes, used when neither territory pair
// direction is in the matrix.
var zoneTravelMinutes = map[string]map[string]int{
	"INNER_CITY":  {"INNER_CITY": 12, "INNER_NORTH": 15, "INNER_EAST": 18, "INNER_SOUTH": 16, "BAYSIDE": 25, "EASTERN": 22, "OUTER": 35},
	"INNER_NORTH": {"INNER_CITY": 15, "INNER_NORTH": 12, "INNER_EAST": 25, "INNER_SOUTH": 30, "BAYSIDE": 40, "EASTERN": 35, "OUTER": 30},
	"INNER_EAST":  {"INNER_CITY": 18, "INNER_NORTH": 25, "INNER_EAST": 12, "INNER_SOUTH": 20, "BAYSIDE": 25, "EASTERN": 15, "OUTER": 25},
	"INNER_SOUTH": {"INNER_CITY": 16, "INNER_NORTH": 30, "INNER_EAST": 20, "INNER_SOUTH": 12, "BAYSIDE": 18, "EASTERN": 20, "OUTER": 30},
	"BAYSIDE":     {"INNER_CITY": 25, "INNER_NORTH": 40, "INNER_EAST": 25, "INNER_SOUTH": 18, "BAYSIDE": 12, "EASTERN": 22, "OUTER": 35},
	"EASTERN":     {"INNER_CITY": 22, "INNER_NORTH": 35, "INNER_EAST": 15, "INNER_SOUTH": 20, "BAYSIDE": 22, "EASTERN": 12, "OUTER": 20},
	"OUTER":       {"INNER_CITY": 35, "INNER_NORTH": 30, "INNER_EAST": 25, "INNER_SOUTH": 30, "BAYSIDE": 35, "EASTERN": 20, "OUTER": 25},
}

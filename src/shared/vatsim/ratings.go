package vatsim

// ATCRatings maps VATSIM controller rating IDs to their short names.
var ATCRatings = map[int]string{
	-1: "INA",
	0:  "SUS",
	1:  "OBS",
	2:  "S1",
	3:  "S2",
	4:  "S3",
	5:  "C1",
	6:  "C2",
	7:  "C3",
	8:  "I1",
	9:  "I2",
	10: "I3",
	11: "SUP",
	12: "ADM",
}

// RatingShort returns the short name for a rating ID, or "Unknown Rating"
// when the ID is not in the map.
func RatingShort(id int) string {
	if s, ok := ATCRatings[id]; ok {
		return s
	}
	return "Unknown Rating"
}

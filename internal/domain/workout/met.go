package workout

import "sort"

// MET values per sport and intensity category (1..4), taken from the adult
// compendium of physical activities (https://pacompendium.com).
var sportMET = map[string][5]float64{
	"Badminton":                     {0, 5.0, 5.5, 7.0, 9.0},
	"Ride":                          {0, 4.3, 7.0, 9.0, 12.0},
	"EBikeRide":                     {0, 4.0, 6.0, 6.8, 7.0},
	"GravelRide":                    {0, 4.3, 7.0, 9.0, 12.0},
	"Handcycle":                     {0, 4.3, 7.0, 9.0, 12.0},
	"Velomobile":                    {0, 4.3, 7.0, 9.0, 12.0},
	"VirtualRide":                   {0, 4.3, 7.0, 9.0, 12.0},
	"Canoeing":                      {0, 2.8, 3.5, 5.8, 12.0},
	"Crossfit":                      {0, 3.5, 5.0, 6.0, 7.5},
	"Elliptical":                    {0, 3.0, 5.0, 7.0, 9.0},
	"Golf":                          {0, 3.5, 4.3, 4.5, 4.8},
	"HighIntensityIntervalTraining": {0, 5.0, 7.0, 9.0, 11.0},
	"Hike":                          {0, 3.8, 5.3, 6.0, 6.5},
	"IceSkate":                      {0, 7.5, 9.8, 12.3, 15.5},
	"InlineSkate":                   {0, 7.5, 9.8, 12.3, 15.5},
	"Kayaking":                      {0, 5.0, 7.0, 9.0, 13.5},
	"Kitesurf":                      {0, 8.0, 9.5, 11.0, 12.5},
	"MountainBikeRide":              {0, 7.0, 9.0, 11.0, 14.0},
	"EMountainBikeRide":             {0, 6.0, 8.0, 8.8, 9.0},
	"Pickleball":                    {0, 5.0, 5.5, 7.0, 9.0},
	"Pilates":                       {0, 1.8, 2.8, 4.0, 5.5},
	"Racquetball":                   {0, 5.5, 7.0, 8.5, 10.0},
	"RockClimbing":                  {0, 5.8, 7.3, 8.8, 10.5},
	"Rowing":                        {0, 5.0, 7.5, 11.0, 14.0},
	"VirtualRow":                    {0, 5.0, 7.5, 11.0, 14.0},
	"Run":                           {0, 7.8, 10.5, 11.8, 13.0},
	"TrailRun":                      {0, 7.8, 10.5, 11.8, 13.0},
	"VirtualRun":                    {0, 7.8, 10.5, 11.8, 13.0},
	"Sail":                          {0, 3.0, 3.3, 4.5, 9.3},
	"Skateboard":                    {0, 5.0, 6.0, 6.8, 8.5},
	"AlpineSki":                     {0, 4.3, 6.3, 7.3, 8.0},
	"BackcountrySki":                {0, 6.8, 8.5, 9.5, 11.3},
	"NordicSki":                     {0, 8.5, 11.3, 13.5, 14.0},
	"RollerSki":                     {0, 6.8, 8.5, 9.5, 11.3},
	"Snowboard":                     {0, 4.3, 6.3, 7.5, 8.0},
	"Soccer":                        {0, 3.5, 5.5, 7.0, 9.5},
	"Squash":                        {0, 5.0, 7.3, 9.0, 12.0},
	"StairStepper":                  {0, 5.5, 6.0, 8.0, 11.0},
	"StandUpPaddling":               {0, 2.8, 3.8, 5.0, 9.8},
	"Surfing":                       {0, 3.0, 5.0, 7.0, 9.0},
	"Swim":                          {0, 5.8, 8.0, 9.8, 10.5},
	"TableTennis":                   {0, 3.5, 4.0, 5.5, 7.0},
	"Tennis":                        {0, 5.0, 6.0, 6.8, 8.0},
	"Walk":                          {0, 3.0, 3.8, 4.8, 5.5},
	"Snowshoe":                      {0, 5.0, 5.8, 6.8, 7.5},
	"WeightTraining":                {0, 3.0, 3.5, 5.0, 6.0},
	"Wheelchair":                    {0, 3.3, 3.8, 5.3, 6.3},
	"Windsurf":                      {0, 5.0, 7.0, 11.0, 14.0},
	"Workout":                       {0, 2.5, 4.0, 6.0, 8.0},
	"Yoga":                          {0, 2.0, 3.0, 4.0, 6.0},
}

// distanceEstimatedSports get a MET-based distance estimate when none was
// recorded.
var distanceEstimatedSports = map[string]struct{}{
	"Ride": {}, "EBikeRide": {}, "GravelRide": {}, "Handcycle": {},
	"Velomobile": {}, "VirtualRide": {}, "MountainBikeRide": {},
	"EMountainBikeRide": {}, "Run": {}, "TrailRun": {}, "VirtualRun": {},
	"Walk": {},
}

// MET returns the metabolic equivalent for a sport at the given intensity.
// Unknown sports fall back to the generic Workout row.
func MET(sport string, intensity int) float64 {
	if intensity < IntensityMin {
		intensity = IntensityMin
	}
	if intensity > IntensityMax {
		intensity = IntensityMax
	}
	row, ok := sportMET[sport]
	if !ok {
		row = sportMET["Workout"]
	}
	return row[intensity]
}

func DistanceEstimated(sport string) bool {
	_, ok := distanceEstimatedSports[sport]
	return ok
}

// Sports lists every sport with an MET profile in sorted order.
func Sports() []string {
	out := make([]string, 0, len(sportMET))
	for sport := range sportMET {
		out = append(out, sport)
	}
	sort.Strings(out)
	return out
}

// referenceWeightKg is the default human weight kcal estimates assume before
// user scaling is applied.
const referenceWeightKg = 75.0

// EstimateKcal estimates burned calories from MET, duration and the user's
// kcal scaling factor.
func EstimateKcal(sport string, intensity int, hours, scalingKcal float64) float64 {
	return MET(sport, intensity) * referenceWeightKg * hours * scalingKcal
}

// EstimateDistance estimates covered kilometers from MET, duration and the
// user's distance scaling factor.
func EstimateDistance(sport string, intensity int, hours, scalingDistance float64) float64 {
	return MET(sport, intensity) * hours * scalingDistance
}

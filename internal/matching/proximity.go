package matching

import "github.com/spigell/job-matcher/internal/jobs"

const neutralProximity = 0.5

// proximityByDistance maps ordinal distance to a similarity. Distances past
// the end of the table score farProximity.
var proximityByDistance = []float64{1.0, 0.7, 0.4, 0.2}

const farProximity = 0.05

// LevelProximity grades how close two levels are. Unknown levels are neutral.
func LevelProximity(a, b jobs.Level) float64 {
	ia, ib := a.Index(), b.Index()
	if ia < 0 || ib < 0 {
		return neutralProximity
	}

	distance := ia - ib
	if distance < 0 {
		distance = -distance
	}

	if distance < len(proximityByDistance) {
		return proximityByDistance[distance]
	}
	return farProximity
}

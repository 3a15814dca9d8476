package status

// Classification is the outcome of mapping an observed background back to a status.
type Classification struct {
	Status     Status
	Recognized bool
}

// Unrecognized is returned for colors outside every known band. It never
// drives a status transition.
var Unrecognized = Classification{}

const (
	completedHigh = 0.9
	completedLow  = 0.3

	// bandTolerance applies to the statuses that are matched by distance
	// to their canonical background.
	bandTolerance = 0.03
)

// Classify recovers a status from an observed background color.
//
// Completed uses a threshold band (red and green high, blue low) so that
// any yellow an operator paints by hand is recognised; the storage layer
// also rounds channels, so exact equality is never required.
func Classify(bg Color) Classification {
	if IsCompletedBand(bg) {
		return Classification{Status: Completed, Recognized: true}
	}

	for _, s := range []Status{Pending, ReviewUploaded, ReviewForwarded, Paid} {
		if Within(bg, backgrounds[s], bandTolerance) {
			return Classification{Status: s, Recognized: true}
		}
	}

	return Unrecognized
}

// IsCompletedBand reports whether bg falls in the Completed (yellow) band.
func IsCompletedBand(bg Color) bool {
	return bg.R > completedHigh && bg.G > completedHigh && bg.B < completedLow
}

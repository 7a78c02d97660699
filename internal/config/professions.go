package config

// DefaultProfessionKeywords returns hint words that imply a profession when
// the profession itself is not named. Words shared by several trades are
// left out.
func DefaultProfessionKeywords() map[string][]string {
	return map[string][]string{
		"Plumber": {
			"plumbing", "pipe", "leak", "drain", "clog", "sewer", "faucet",
			"toilet", "sink", "water heater", "shower", "valve",
		},
		"Welder": {
			"welding", "metal work", "fabrication", "soldering", "brazing",
		},
		"Electrician": {
			"electric", "electrical", "wiring", "circuit", "voltage", "breaker",
			"outlet", "fuse", "socket", "power supply",
		},
		"Carpenter": {
			"woodwork", "furniture", "cabinet", "joinery", "cabinetry", "deck",
		},
		"Mechanic": {
			"engine", "transmission", "oil change", "tire", "brakes", "clutch",
			"alternator", "radiator", "exhaust",
		},
		"Painter": {
			"painting", "primer", "repaint", "varnish", "spray paint",
		},
		"Chef": {
			"cooking", "catering", "recipe", "meal", "cuisine", "baking",
		},
		"Gardener": {
			"gardening", "landscaping", "lawn", "mowing", "pruning", "hedge", "weeding",
		},
		"Teacher": {
			"tutoring", "lesson", "tutor", "homework",
		},
		"Developer": {
			"programming", "coding", "software", "website", "backend", "frontend",
		},
		"Nurse": {
			"nursing", "caregiver", "medication", "wound care", "vitals",
		},
	}
}

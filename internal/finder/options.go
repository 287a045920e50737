package finder

// Options is read once at the start of a pass and never changes during it.
type Options struct {
	UseSimilarity        bool
	UseAttributeTable    bool
	RemoveInvisibleNodes bool
	UseGrid              bool
	RemoveRows           bool
	// MinSimilarityThreshold applies to the lowest per-node similarity.
	MinSimilarityThreshold float64
	// AvgSimilarityThreshold applies to the mean per-node similarity.
	AvgSimilarityThreshold float64
	MinRepetition          int
}

func DefaultOptions() Options {
	return Options{
		UseSimilarity:          true,
		UseAttributeTable:      true,
		RemoveInvisibleNodes:   true,
		UseGrid:                true,
		RemoveRows:             true,
		MinSimilarityThreshold: 0.55,
		AvgSimilarityThreshold: 0.65,
		MinRepetition:          4,
	}
}

const (
	// bootstrapPath selects the anchor-like nodes that seed discovery.
	bootstrapPath = "//a"

	// invisibleRatioLimit is the share of hidden nodes above which a
	// candidate is dropped.
	invisibleRatioLimit = 0.6
)

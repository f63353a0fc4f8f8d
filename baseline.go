package main

// DefaultKnownClinics is the baseline used when the config file does not
// provide one.
var DefaultKnownClinics = []string{
	"АВС-Медицина (м.Парк Культуры)",
	"Медси (м.Марьино)",
	"Медси (м.Полянка)",
	"Медси (м.Шаболовская)",
}

// Baseline is the fixed set of clinic names known at start-up.
type Baseline struct {
	known map[string]struct{}
}

func NewBaseline(labels ...string) *Baseline {
	known := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		known[l] = struct{}{}
	}
	return &Baseline{known: known}
}

// Diff returns the items not in the baseline, in their original order.
func (b *Baseline) Diff(items []string) []string {
	var novel []string
	for _, item := range items {
		if _, ok := b.known[item]; !ok {
			novel = append(novel, item)
		}
	}
	return novel
}

func (b *Baseline) Len() int {
	return len(b.known)
}

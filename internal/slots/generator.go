package slots

import "time"

// Generate returns slot start minutes from openMin, one per block, stopping
// before a block would cross closeMin.
func Generate(openMin, closeMin, block int) []int {
	if block <= 0 || openMin+block > closeMin {
		return nil
	}

	starts := make([]int, 0, (closeMin-openMin)/block)
	for cursor := openMin; cursor+block <= closeMin; cursor += block {
		starts = append(starts, cursor)
	}
	return starts
}

// Slots returns the start minutes of the window.
func (w Window) Slots() []int {
	return Generate(w.Open, w.Close, w.Block)
}

// Labels returns the slot starts formatted as "HH:MM".
func (w Window) Labels() []string {
	starts := w.Slots()
	labels := make([]string, len(starts))
	for i, m := range starts {
		labels[i] = FormatClock(m)
	}
	return labels
}

// Aligned reports whether minute is the start of one of the window's slots.
func (w Window) Aligned(minute int) bool {
	if w.Block <= 0 {
		return false
	}
	if minute < w.Open || minute > w.Close-w.Block {
		return false
	}
	return (minute-w.Open)%w.Block == 0
}

// Count is the number of full blocks in the window.
func (w Window) Count() int {
	if w.Block <= 0 || w.Close <= w.Open {
		return 0
	}
	return (w.Close - w.Open) / w.Block
}

// SlotInfo describes one slot of a day for display.
type SlotInfo struct {
	Start     string `json:"start"` // "10:00"
	End       string `json:"end"`   // "10:30"
	Available bool   `json:"available"`
}

// Describe lists every slot of the window, marking those whose start is taken.
func (w Window) Describe(taken map[string]bool) []SlotInfo {
	starts := w.Slots()
	result := make([]SlotInfo, len(starts))
	for i, m := range starts {
		start := FormatClock(m)
		result[i] = SlotInfo{
			Start:     start,
			End:       FormatClock(m + w.Block),
			Available: !taken[start],
		}
	}
	return result
}

// MinuteOfDay returns the wall-clock minute of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name          string
		open, close   int
		block         int
		expectedCount int
		first, last   int
	}{
		{name: "business day half hour", open: 480, close: 1080, block: 30, expectedCount: 20, first: 480, last: 1050},
		{name: "trailing partial block dropped", open: 600, close: 700, block: 45, expectedCount: 2, first: 600, last: 645},
		{name: "single block fits exactly", open: 600, close: 660, block: 60, expectedCount: 1, first: 600, last: 600},
		{name: "block longer than window", open: 600, close: 630, block: 60, expectedCount: 0},
		{name: "zero block", open: 600, close: 700, block: 0, expectedCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.open, tt.close, tt.block)
			if len(got) != tt.expectedCount {
				t.Fatalf("expected %d slots, got %d", tt.expectedCount, len(got))
			}
			if tt.expectedCount == 0 {
				return
			}
			if got[0] != tt.first {
				t.Errorf("first slot = %d, want %d", got[0], tt.first)
			}
			if got[len(got)-1] != tt.last {
				t.Errorf("last slot = %d, want %d", got[len(got)-1], tt.last)
			}
		})
	}
}

func TestGenerate_Partition(t *testing.T) {
	for open := 0; open < 600; open += 37 {
		for block := 1; block <= 120; block += 7 {
			close := open + 301
			got := Generate(open, close, block)

			require.Len(t, got, (close-open)/block)
			for i, s := range got {
				assert.Equal(t, open+i*block, s)
				assert.LessOrEqual(t, s+block, close)
				if i > 0 {
					assert.Greater(t, s, got[i-1])
				}
			}
		}
	}
}

func TestWindow_Labels(t *testing.T) {
	w, err := ValidateConfig("08:00", "18:00", 30)
	require.NoError(t, err)

	labels := w.Labels()
	require.Len(t, labels, 20)
	assert.Equal(t, "08:00", labels[0])
	assert.Equal(t, "08:30", labels[1])
	assert.Equal(t, "17:30", labels[19])
	assert.NotContains(t, labels, "18:00")
	assert.Equal(t, 20, w.Count())
}

func TestWindow_AlignedAgreesWithSlots(t *testing.T) {
	w := Window{Open: 480, Close: 1080, Block: 30}
	starts := make(map[int]bool)
	for _, s := range w.Slots() {
		starts[s] = true
	}

	for m := 0; m < 24*60; m++ {
		assert.Equal(t, starts[m], w.Aligned(m), "minute %d", m)
	}

	assert.False(t, w.Aligned(490))  // 08:10
	assert.False(t, w.Aligned(1080)) // closing time
	assert.True(t, w.Aligned(1050))
}

func TestWindow_Describe(t *testing.T) {
	w := Window{Open: 600, Close: 720, Block: 30}

	info := w.Describe(map[string]bool{"10:30": true})
	require.Len(t, info, 4)
	assert.Equal(t, SlotInfo{Start: "10:00", End: "10:30", Available: true}, info[0])
	assert.Equal(t, SlotInfo{Start: "10:30", End: "11:00", Available: false}, info[1])
	assert.Equal(t, "12:00", info[3].End)
}

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/a-bouts/digital-navigator/voyage"
)

var day1 = time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC)

func summary() voyage.Summary {
	return voyage.Summary{
		RunID: "run-1",
		Records: []voyage.Record{
			{Start: day1, ElapsedDays: 3, SubSteps: 12, MaxWind: 12, MinWind: 2},
			{Start: day1.AddDate(0, 0, 1), ElapsedDays: 1, SubSteps: 4, MaxWind: 9, MinWind: 4},
		},
		Stalled: []voyage.Stalled{{Start: day1.AddDate(0, 0, 2), SubSteps: 2000}},
		Took:    1500 * time.Millisecond,
	}
}

func TestText(t *testing.T) {
	assert.Equal(t,
		"2 days reached, 1 stalled in 1.5s. Fastest 79010200 (1.00 days), slowest 79010100 (3.00 days), mean 2.00 days",
		Text(summary()))

	assert.Equal(t, "0 days reached, 0 stalled in 0s", Text(voyage.Summary{}))
}

func TestRender(t *testing.T) {
	out := Render(summary())

	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "79010100")
	assert.Contains(t, out, "3.000")
	assert.Contains(t, out, "79010300")
	assert.Contains(t, out, "stalled")
	assert.Contains(t, out, "mean 2.00 days")
}

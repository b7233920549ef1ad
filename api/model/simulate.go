package model

import (
	"time"

	"github.com/a-bouts/digital-navigator/passage"
)

// Simulate asks for a run of Days voyages from Start. Zero values keep the server defaults.
type Simulate struct {
	Start       Date             `json:"start"`
	Days        int              `json:"days"`
	Workers     int              `json:"workers"`
	MaxSubSteps int              `json:"maxSubSteps"`
	Passage     *passage.Passage `json:"passage,omitempty"`
}

// Date is a day formatted as 2006-01-02.
type Date struct {
	time.Time
}

const DateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	t, err := time.ParseInLocation(`"`+DateLayout+`"`, s, time.UTC)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

type Wind struct {
	Stamp     string  `json:"stamp"`
	Row       int     `json:"row"`
	Col       int     `json:"col"`
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
	Knots     float64 `json:"knots"`
}

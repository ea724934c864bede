package market

import "github.com/brewfeed/brewfeed/app/store"

// Direction is a visual state of a quote change.
type Direction string

// Known change directions.
const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Change is a normalized quote movement since the previous close.
type Change struct {
	Abs       float64
	Pct       float64
	Direction Direction

	// NoBaseline is set when no usable previous close exists; Abs and
	// Pct are zero then, rather than NaN or Inf.
	NoBaseline bool
}

// Normalize computes the movement of a quote against its previous
// close. The chart endpoint sometimes omits previousClose, in which
// case chartPreviousClose is used instead.
func Normalize(q store.Quote) Change {
	prev := q.PrevClose
	if prev == 0 {
		prev = q.ChartPrevClose
	}

	if prev == 0 {
		return Change{Direction: DirectionNeutral, NoBaseline: true}
	}

	abs := q.Price - prev
	c := Change{
		Abs:       abs,
		Pct:       abs / prev * 100,
		Direction: DirectionNeutral,
	}

	switch {
	case abs > 0:
		c.Direction = DirectionUp
	case abs < 0:
		c.Direction = DirectionDown
	}

	return c
}

package models

import "time"

// RevealDateLayout is the textual format accepted and returned for reveal dates.
const RevealDateLayout = "2006-01-02 15:04:05"

const (
	EventActive    = "active"
	EventCompleted = "completed"
)

const (
	GuessBoy  = "boy"
	GuessGirl = "girl"
)

const (
	platformShare = 0.8
	winnerShare   = 0.5
	parentsShare  = 0.5
)

// ValidGuess reports whether g is one of the two outcome categories.
func ValidGuess(g string) bool {
	return g == GuessBoy || g == GuessGirl
}

// Event is a prediction round. Outcome stays empty until the event is revealed.
type Event struct {
	ID            int64
	CreatorID     int64
	CreatorName   string
	Title         string
	Description   string
	RevealDate    time.Time
	Status        string
	Outcome       string
	TotalRaised   float64
	BoyBetsCount  int
	GirlBetsCount int
	CreatedAt     time.Time
}

// Revealed reports whether the outcome has been fixed.
func (e Event) Revealed() bool {
	return e.Outcome != ""
}

// TotalBets is the number of wagers counted on the event.
func (e Event) TotalBets() int {
	return e.BoyBetsCount + e.GirlBetsCount
}

// BoyPercentage is the share of boy wagers, 0 when nobody has wagered.
func (e Event) BoyPercentage() float64 {
	return percentage(e.BoyBetsCount, e.TotalBets())
}

// GirlPercentage is the share of girl wagers, 0 when nobody has wagered.
func (e Event) GirlPercentage() float64 {
	return percentage(e.GirlBetsCount, e.TotalBets())
}

// PrizePool is what remains of the raised total after the platform fee.
func (e Event) PrizePool() float64 {
	return e.TotalRaised * platformShare
}

// EstimatedWinnerPrize is the half of the pool paid to the drawn winner.
func (e Event) EstimatedWinnerPrize() float64 {
	return e.PrizePool() * winnerShare
}

// EstimatedParentsPrize is the half of the pool kept by the event creator.
func (e Event) EstimatedParentsPrize() float64 {
	return e.PrizePool() * parentsShare
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

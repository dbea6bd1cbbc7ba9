// Package position implements the trading-position path analytics that
// drive and are exercised by the statistics core: per-bar OHLC history for
// an open position, MFE/MAE excursion tracking, first-touch stop/target
// timing with same-bar stop-first precedence, drawdown-from-MFE, and
// bar-age survival/hazard aggregates across a history of closed positions.
package position

import (
	"time"

	"qcat/internal/stats/decimal"
)

// Bar is one OHLC observation while a position is open.
type Bar struct {
	Date  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// BarHistory is the ordered sequence of bars a position has been held
// through, keyed by date to reject duplicate bars the way the reference
// OpenPositionHistory does.
type BarHistory struct {
	bars  []Bar
	seen  map[time.Time]struct{}
}

// NewBarHistory returns an empty bar history.
func NewBarHistory() *BarHistory {
	return &BarHistory{seen: make(map[time.Time]struct{})}
}

// ErrDuplicateBarDate is returned by AddBar when a bar for a date already
// recorded in the history is added again.
type ErrDuplicateBarDate struct {
	Date time.Time
}

func (e *ErrDuplicateBarDate) Error() string {
	return "position: duplicate bar date " + e.Date.Format("2006-01-02")
}

// AddBar appends a bar, rejecting a duplicate date.
func (h *BarHistory) AddBar(b Bar) error {
	if _, dup := h.seen[b.Date]; dup {
		return &ErrDuplicateBarDate{Date: b.Date}
	}
	h.seen[b.Date] = struct{}{}
	h.bars = append(h.bars, b)
	return nil
}

// Bars returns the bar history in entry order.
func (h *BarHistory) Bars() []Bar { return h.bars }

// Len returns the number of bars recorded.
func (h *BarHistory) Len() int { return len(h.bars) }

// LastClose returns the close of the most recently added bar and whether
// any bar exists.
func (h *BarHistory) LastClose() (decimal.Decimal, bool) {
	if len(h.bars) == 0 {
		return decimal.Zero, false
	}
	return h.bars[len(h.bars)-1].Close, true
}

// Direction distinguishes long from short positions; path analytics need
// the sign to interpret "favorable" vs "adverse" excursions and percent
// return.
type Direction int

const (
	Long Direction = iota
	Short
)

func (d Direction) sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// TradingPosition is the read-only data-collaborator contract the path
// analytics consume (SPEC_FULL.md §6). Concrete positions are either Open
// (no ClosePosition call yet) or Closed.
type TradingPosition interface {
	Direction() Direction
	EntryDate() time.Time
	EntryPrice() decimal.Decimal
	IsOpen() bool
	IsClosed() bool
	ExitDate() (time.Time, bool)
	ExitPrice() (decimal.Decimal, bool)
	Bars() []Bar
	NumBarsInPosition() int
	ProfitTarget() (decimal.Decimal, bool)
	StopLoss() (decimal.Decimal, bool)
	PercentReturn() (decimal.Decimal, error)
}

type basePosition struct {
	direction    Direction
	entryDate    time.Time
	entryPrice   decimal.Decimal
	history      *BarHistory
	profitTarget *decimal.Decimal
	stopLoss     *decimal.Decimal

	exitDate  *time.Time
	exitPrice *decimal.Decimal
}

// OpenPosition is a position with no exit recorded yet.
type OpenPosition struct {
	base basePosition
}

// ErrNegativeEntryPrice is returned by NewOpenPosition for a negative entry
// price.
type ErrNegativeEntryPrice struct{ Price decimal.Decimal }

func (e *ErrNegativeEntryPrice) Error() string {
	return "position: entry price " + e.Price.String() + " is negative"
}

// NewOpenPosition constructs an open long or short position.
func NewOpenPosition(direction Direction, entryDate time.Time, entryPrice decimal.Decimal, profitTarget, stopLoss *decimal.Decimal) (*OpenPosition, error) {
	if entryPrice.IsNegative() {
		return nil, &ErrNegativeEntryPrice{Price: entryPrice}
	}
	return &OpenPosition{base: basePosition{
		direction:    direction,
		entryDate:    entryDate,
		entryPrice:   entryPrice,
		history:      NewBarHistory(),
		profitTarget: profitTarget,
		stopLoss:     stopLoss,
	}}, nil
}

func (p *OpenPosition) Direction() Direction    { return p.base.direction }
func (p *OpenPosition) EntryDate() time.Time    { return p.base.entryDate }
func (p *OpenPosition) EntryPrice() decimal.Decimal { return p.base.entryPrice }
func (p *OpenPosition) IsOpen() bool             { return true }
func (p *OpenPosition) IsClosed() bool           { return false }
func (p *OpenPosition) ExitDate() (time.Time, bool)       { return time.Time{}, false }
func (p *OpenPosition) ExitPrice() (decimal.Decimal, bool) { return decimal.Zero, false }
func (p *OpenPosition) Bars() []Bar               { return p.base.history.Bars() }
func (p *OpenPosition) NumBarsInPosition() int    { return p.base.history.Len() }

func (p *OpenPosition) ProfitTarget() (decimal.Decimal, bool) {
	if p.base.profitTarget == nil {
		return decimal.Zero, false
	}
	return *p.base.profitTarget, true
}

func (p *OpenPosition) StopLoss() (decimal.Decimal, bool) {
	if p.base.stopLoss == nil {
		return decimal.Zero, false
	}
	return *p.base.stopLoss, true
}

// AddBar records one more bar of OHLC history while the position is open.
func (p *OpenPosition) AddBar(b Bar) error { return p.base.history.AddBar(b) }

// PercentReturn computes the mark-to-market return of an open position off
// the last recorded close, sign-flipped for shorts.
func (p *OpenPosition) PercentReturn() (decimal.Decimal, error) {
	last, ok := p.base.history.LastClose()
	if !ok {
		return decimal.Zero, nil
	}
	return signedPercentReturn(p.base.direction, p.base.entryPrice, last)
}

// ClosedPosition is a position with a recorded exit.
type ClosedPosition struct {
	base basePosition
}

// Close finalizes an OpenPosition into a ClosedPosition. The open position
// must not be reused afterward (mirrors the reference's ClosePosition state
// transition).
func (p *OpenPosition) Close(exitDate time.Time, exitPrice decimal.Decimal) *ClosedPosition {
	b := p.base
	b.exitDate = &exitDate
	b.exitPrice = &exitPrice
	return &ClosedPosition{base: b}
}

func (p *ClosedPosition) Direction() Direction        { return p.base.direction }
func (p *ClosedPosition) EntryDate() time.Time        { return p.base.entryDate }
func (p *ClosedPosition) EntryPrice() decimal.Decimal { return p.base.entryPrice }
func (p *ClosedPosition) IsOpen() bool                { return false }
func (p *ClosedPosition) IsClosed() bool              { return true }
func (p *ClosedPosition) ExitDate() (time.Time, bool)  { return *p.base.exitDate, true }
func (p *ClosedPosition) ExitPrice() (decimal.Decimal, bool) { return *p.base.exitPrice, true }
func (p *ClosedPosition) Bars() []Bar            { return p.base.history.Bars() }
func (p *ClosedPosition) NumBarsInPosition() int { return p.base.history.Len() }

func (p *ClosedPosition) ProfitTarget() (decimal.Decimal, bool) {
	if p.base.profitTarget == nil {
		return decimal.Zero, false
	}
	return *p.base.profitTarget, true
}

func (p *ClosedPosition) StopLoss() (decimal.Decimal, bool) {
	if p.base.stopLoss == nil {
		return decimal.Zero, false
	}
	return *p.base.stopLoss, true
}

func (p *ClosedPosition) PercentReturn() (decimal.Decimal, error) {
	return signedPercentReturn(p.base.direction, p.base.entryPrice, *p.base.exitPrice)
}

func signedPercentReturn(dir Direction, entry, exit decimal.Decimal) (decimal.Decimal, error) {
	if entry.IsZero() {
		return decimal.Zero, nil
	}
	diff := exit.Sub(entry)
	pct := diff.Div(entry)
	if dir == Short {
		pct = pct.Neg()
	}
	return pct, nil
}

// ClosedPositionHistory is the ordered collection of closed positions a
// bootstrap or path-analytics pass operates over.
type ClosedPositionHistory struct {
	positions []*ClosedPosition
}

// NewClosedPositionHistory wraps a slice of closed positions.
func NewClosedPositionHistory(positions []*ClosedPosition) *ClosedPositionHistory {
	return &ClosedPositionHistory{positions: positions}
}

// Positions returns the closed positions in entry order.
func (h *ClosedPositionHistory) Positions() []*ClosedPosition { return h.positions }

// Len returns the number of closed positions.
func (h *ClosedPositionHistory) Len() int { return len(h.positions) }

// PercentReturns extracts each position's PercentReturn as a plain return
// series for C3 statistics, skipping positions whose PercentReturn errors.
func (h *ClosedPositionHistory) PercentReturns() []float64 {
	out := make([]float64, 0, len(h.positions))
	for _, p := range h.positions {
		r, err := p.PercentReturn()
		if err != nil {
			continue
		}
		out = append(out, r.ToFloat64())
	}
	return out
}

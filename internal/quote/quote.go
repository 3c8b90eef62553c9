package quote

// Quote is one instrument's identity and price snapshot.
// Two quotes are the same logical entity when their IDs match.
type Quote struct {
	ID                 string  `json:"id"`
	Ticker             string  `json:"ticker"`
	Name               string  `json:"name"`
	CurrentPrice       float64 `json:"currentPrice"`
	PreviousClosePrice float64 `json:"previousClosePrice"`
	IsFeatured         bool    `json:"isFeatured"`
}

// Response is the document returned by quote data sources.
type Response struct {
	Stocks []Quote `json:"stocks"`
}

// PriceChange returns the absolute change since the previous close.
func (q Quote) PriceChange() float64 {
	return q.CurrentPrice - q.PreviousClosePrice
}

// PriceChangePercentage returns the change since the previous close as a
// percentage. ok is false when the previous close is zero and the percentage
// is undefined.
func (q Quote) PriceChangePercentage() (pct float64, ok bool) {
	if q.PreviousClosePrice == 0 {
		return 0, false
	}
	return q.PriceChange() / q.PreviousClosePrice * 100, true
}

// Direction reports "increased" or "decreased". An unchanged price counts as increased.
func (q Quote) Direction() string {
	if q.PriceChange() >= 0 {
		return "increased"
	}
	return "decreased"
}

// Equal reports whether q and other identify the same instrument.
func (q Quote) Equal(other Quote) bool {
	return q.ID == other.ID
}

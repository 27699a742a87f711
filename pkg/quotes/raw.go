package quotes

// RawQuote is one provider record, using the Yahoo v7 quote field names.
// Numbers are pointers so a missing field stays distinguishable from zero.
type RawQuote struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName,omitempty"`
	LongName                   string   `json:"longName,omitempty"`
	Currency                   string   `json:"currency,omitempty"`
	MarketState                string   `json:"marketState,omitempty"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice,omitempty"`
	RegularMarketChange        *float64 `json:"regularMarketChange,omitempty"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent,omitempty"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose,omitempty"`
	PostMarketPrice            *float64 `json:"postMarketPrice,omitempty"`
	PreMarketPrice             *float64 `json:"preMarketPrice,omitempty"`
	Ask                        *float64 `json:"ask,omitempty"`
	Bid                        *float64 `json:"bid,omitempty"`
}

// QuoteResponse is the envelope of the v7 quote endpoint.
type QuoteResponse struct {
	QuoteResponse struct {
		Result []RawQuote     `json:"result"`
		Error  *ResponseError `json:"error"`
	} `json:"quoteResponse"`
}

type ResponseError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Float returns a pointer to v, for building records.
func Float(v float64) *float64 { return &v }

package types

const (
	// StateTimeLayout is the PortfolioState.timestamp format.
	StateTimeLayout = "2006-01-02 15:04:05"
	// TradeTimeLayout is the TradeRecord.timestamp format.
	TradeTimeLayout = "01/02 15:04"
)

// PositionInfo is one currency line of the persisted portfolio. The quote
// currency is valued at 1.
type PositionInfo struct {
	Balance     float64 `json:"balance"`
	Value       float64 `json:"value"`
	AvgBuyPrice float64 `json:"avg_buy_price"`
	ReturnRate  float64 `json:"return_rate"`
}

// TradeRecord is one entry of recent_trades. Every final decision produces
// one, executed or not.
type TradeRecord struct {
	Instrument Instrument `json:"instrument"`
	Decision   string     `json:"decision"`
	ReasonCode ReasonCode `json:"reason_code"`
	Timestamp  string     `json:"timestamp"`
	Confidence float64    `json:"confidence"`
	Executed   bool       `json:"executed,omitempty"`
	Amount     float64    `json:"amount,omitempty"`
	OrderID    string     `json:"order_id,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// PortfolioState is the status document read by reporting collaborators.
type PortfolioState struct {
	Timestamp    string                  `json:"timestamp"`
	TotalAssets  float64                 `json:"total_assets"`
	Positions    map[string]PositionInfo `json:"positions"`
	RecentTrades []TradeRecord           `json:"recent_trades"`
}

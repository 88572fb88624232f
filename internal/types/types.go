package types

import "strings"

// Instrument is an exchange market code such as "KRW-BTC".
type Instrument = string

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction upper-cases s and maps anything unknown to HOLD.
func ParseAction(s string) Action {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case ActionBuy, ActionSell, ActionHold:
		return a
	default:
		return ActionHold
	}
}

type Candle struct {
	Ts    int64   `json:"ts"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	Vol   float64 `json:"volume"`
}

// MarketSnapshot is the fixed-schema view of one instrument for one cycle.
type MarketSnapshot struct {
	Instrument Instrument `json:"instrument"`
	Price      float64    `json:"price"`
	MA5        float64    `json:"ma5"`
	MA20       float64    `json:"ma20"`
	MA60       float64    `json:"ma60"`
	BB         struct {
		Middle float64 `json:"middle"`
		Upper  float64 `json:"upper"`
		Lower  float64 `json:"lower"`
	} `json:"bb"`
	MACD       float64  `json:"macd"`
	MACDSignal float64  `json:"macd_signal"`
	RSI        float64  `json:"rsi"`
	Recent     []Candle `json:"recent"`
	Time       int64    `json:"time"`
}

// Decision is the validated advisory recommendation. Value type: rewriting
// produces a copy.
type Decision struct {
	Action              Action     `json:"action"`
	Confidence          float64    `json:"confidence"`
	PositionSizePercent float64    `json:"position_size_percent"`
	Reason              ReasonCode `json:"reason_code"`
	StopLossPrice       float64    `json:"stop_loss_price,omitempty"`
	TakeProfitPrice     float64    `json:"take_profit_price,omitempty"`
	LimitPrice          float64    `json:"limit_price,omitempty"`
}

// HoldDecision is the safe default used whenever an instrument cannot be evaluated.
func HoldDecision(reason ReasonCode) Decision {
	return Decision{Action: ActionHold, Reason: reason}
}

// WithHold returns a copy downgraded to HOLD with the given reason.
// Confidence is kept so the record still shows how strong the signal was.
func (d Decision) WithHold(reason ReasonCode) Decision {
	d.Action = ActionHold
	d.Reason = reason
	return d
}

// WithReason returns a copy carrying a new reason code.
func (d Decision) WithReason(reason ReasonCode) Decision {
	d.Reason = reason
	return d
}

// WithSell returns a copy forced to SELL with the given reason.
func (d Decision) WithSell(reason ReasonCode) Decision {
	d.Action = ActionSell
	d.Reason = reason
	return d
}

type BalanceInfo struct {
	QuoteBalance    float64 `json:"quote_balance"`
	PositionBalance float64 `json:"position_balance"`
	AvgEntryPrice   float64 `json:"avg_entry_price"`
}

// PositionValue is the position's worth at price.
func (b BalanceInfo) PositionValue(price float64) float64 {
	return b.PositionBalance * price
}

// PortfolioContext is what the advisory oracle sees about the account.
type PortfolioContext struct {
	TotalEquity     float64
	Balance         BalanceInfo
	PositionValue   float64
	MaxPositionPct  float64
	StopLossDefault float64
	TakeProfitMin   float64
}

// CycleItem is one evaluated instrument handed to the sequencer.
type CycleItem struct {
	Instrument  Instrument
	Decision    Decision
	Price       float64
	Balance     BalanceInfo
	TotalEquity float64
	Err         error
}

type Stage string

const (
	StageEvaluated Stage = "EVALUATED"
	StageExecuted  Stage = "EXECUTED"
	StageSkipped   Stage = "SKIPPED"
	StageFailed    Stage = "FAILED"
)

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

type OrderResp struct {
	OrderID string  `json:"order_id"`
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Price   float64 `json:"price,omitempty"`
	Volume  float64 `json:"volume,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
}

// Execution is a single order the sequencer placed for an instrument.
// Amount is in quote currency; Volume is base units and is always set on sells.
type Execution struct {
	Side    OrderSide  `json:"side"`
	Amount  float64    `json:"amount"`
	Volume  float64    `json:"volume,omitempty"`
	OrderID string     `json:"order_id,omitempty"`
	Reason  ReasonCode `json:"reason_code"`
	Err     string     `json:"error,omitempty"`
}

// Outcome is the final per-instrument result of a cycle.
type Outcome struct {
	Instrument Instrument  `json:"instrument"`
	Decision   Decision    `json:"decision"`
	Price      float64     `json:"price"`
	Stage      Stage       `json:"stage"`
	Executions []Execution `json:"executions,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Holding is one balance line of the account, quote currency included.
type Holding struct {
	Currency      string
	Balance       float64
	AvgEntryPrice float64
}

// BaseCurrency maps "KRW-BTC" to "BTC". Identifiers without a dash are
// returned unchanged.
func BaseCurrency(instrument Instrument) string {
	if i := strings.IndexByte(instrument, '-'); i >= 0 {
		return instrument[i+1:]
	}
	return instrument
}

// MarketOf is the inverse of BaseCurrency for a given quote currency.
func MarketOf(quote, currency string) Instrument {
	return quote + "-" + currency
}

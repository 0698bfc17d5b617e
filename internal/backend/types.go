package backend

// Wire types for the Rubi Studio trading API. Field names follow the
// backend's published schemas exactly; every endpoint gets its own typed
// request/response pair so payloads are validated at the decode boundary.

// SignalType enumerates the trade instructions the backend can emit.
type SignalType string

const (
	SignalBuy       SignalType = "BUY"
	SignalSell      SignalType = "SELL"
	SignalCloseBuy  SignalType = "CLOSE_BUY"
	SignalCloseSell SignalType = "CLOSE_SELL"
)

// SignalStatus enumerates the terminal states a signal can be reported in.
type SignalStatus string

const (
	StatusExecuted SignalStatus = "EXECUTED"
	StatusRejected SignalStatus = "REJECTED"
)

// ConnectRequest carries the account snapshot that opens a session.
type ConnectRequest struct {
	AccountNumber string  `json:"account_number"`
	Broker        string  `json:"broker"`
	Server        string  `json:"server,omitempty"`
	Balance       float64 `json:"balance"`
	Equity        float64 `json:"equity"`
	Currency      string  `json:"currency"`
}

// ConnectResponse returns the opaque session token minted by the backend.
type ConnectResponse struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	ConnectedAt string `json:"connected_at"`
}

// PingRequest keeps the session alive and refreshes basic account numbers.
type PingRequest struct {
	SessionID  string  `json:"session_id"`
	Timestamp  string  `json:"timestamp"`
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	MarginFree float64 `json:"margin_free"`
}

// Position mirrors one open position as the backend stores it.
type Position struct {
	Ticket       string  `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Type         string  `json:"type"`
	Volume       float64 `json:"volume"`
	OpenPrice    float64 `json:"open_price"`
	CurrentPrice float64 `json:"current_price"`
	SL           float64 `json:"sl"`
	TP           float64 `json:"tp"`
	Profit       float64 `json:"profit"`
	Swap         float64 `json:"swap"`
	Commission   float64 `json:"commission"`
	OpenTime     string  `json:"open_time"`
}

// PositionsUpdateRequest pushes the full open-position snapshot.
type PositionsUpdateRequest struct {
	SessionID string     `json:"session_id"`
	Timestamp string     `json:"timestamp"`
	Positions []Position `json:"positions"`
}

// Signal is a backend-originated trade instruction awaiting local execution.
// It is read-only once fetched; Id doubles as the idempotence key for
// status reporting.
type Signal struct {
	ID         int64      `json:"id"`
	Symbol     string     `json:"symbol"`
	SignalType SignalType `json:"signal_type"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
	Volume     float64    `json:"volume"`
	Timeframe  string     `json:"timeframe"`
	Confidence float64    `json:"confidence"`
}

// PendingSignalsResponse wraps the pending set for a session.
type PendingSignalsResponse struct {
	Total   int      `json:"total"`
	Signals []Signal `json:"signals"`
}

// SignalStatusUpdate reports a signal's terminal state exactly once.
type SignalStatusUpdate struct {
	SignalID  int64        `json:"signal_id"`
	Status    SignalStatus `json:"status"`
	Message   string       `json:"message"`
	Timestamp string       `json:"timestamp"`
}

// AccountInfoUpdate pushes the account metrics block.
type AccountInfoUpdate struct {
	SessionID   string  `json:"session_id"`
	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	Margin      float64 `json:"margin"`
	MarginFree  float64 `json:"margin_free"`
	MarginLevel float64 `json:"margin_level"`
	Profit      float64 `json:"profit"`
}

// DisconnectRequest tears down the session with the lifetime counters.
type DisconnectRequest struct {
	SessionID            string `json:"session_id"`
	Timestamp            string `json:"timestamp"`
	TotalSignalsSent     int64  `json:"total_signals_sent"`
	TotalSignalsReceived int64  `json:"total_signals_received"`
	TotalOrdersExecuted  int64  `json:"total_orders_executed"`
	TotalErrors          int64  `json:"total_errors"`
}

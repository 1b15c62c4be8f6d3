package types

import (
	"errors"
	"fmt"
	"time"
)

// Direction is the side of a trade. SHORT is the canonical form of SELL,
// LONG of BUY; NEUTRAL is parseable but never routable.
type Direction string

const (
	Long    Direction = "LONG"
	Short   Direction = "SHORT"
	Neutral Direction = "NEUTRAL"
	Buy     Direction = "BUY"
	Sell    Direction = "SELL"
)

// Normalize maps BUY to LONG and SELL to SHORT. It is idempotent.
func (d Direction) Normalize() Direction {
	switch d {
	case Buy:
		return Long
	case Sell:
		return Short
	default:
		return d
	}
}

// Opposite returns the other routable side. NEUTRAL maps to itself.
func (d Direction) Opposite() Direction {
	switch d.Normalize() {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return Neutral
	}
}

// TradeDirectionRule gates which intent directions an account config admits.
type TradeDirectionRule string

const (
	RuleDisabled TradeDirectionRule = "DISABLED"
	RuleLong     TradeDirectionRule = "LONG"
	RuleShort    TradeDirectionRule = "SHORT"
	RuleBoth     TradeDirectionRule = "BOTH"
)

// Admits reports whether the rule allows the given direction after
// normalization.
func (r TradeDirectionRule) Admits(d Direction) bool {
	switch r {
	case RuleBoth:
		return d.Normalize() == Long || d.Normalize() == Short
	case RuleLong:
		return d.Normalize() == Long
	case RuleShort:
		return d.Normalize() == Short
	default:
		return false
	}
}

// StaggerMethod selects how a single entry is split into a price ladder.
type StaggerMethod string

const (
	StaggerNone        StaggerMethod = "NONE"
	StaggerLinear      StaggerMethod = "LINEAR"
	StaggerLogarithmic StaggerMethod = "LOGARITHMIC"
	StaggerFibonacci   StaggerMethod = "FIBONACCI"
)

// AssetType selects tick semantics for position sizing.
type AssetType string

const (
	AssetForex       AssetType = "FOREX"
	AssetCrypto      AssetType = "CRYPTO"
	AssetCommodities AssetType = "COMMODITIES"
	AssetStock       AssetType = "STOCK"
	AssetIndices     AssetType = "INDICES"
	AssetUnknown     AssetType = "UNKNOWN"
)

// Platform identifies a brokerage backend.
type Platform string

const (
	PlatformMetatrader Platform = "METATRADER"
	PlatformIG         Platform = "IG"
	PlatformKite       Platform = "KITE"
	PlatformPaper      Platform = "PAPER"
)

// TradeIntent is the canonical, immutable output of the signal parser.
// Ordering of entry / stop / take-profits is preserved from the input and
// not enforced here.
type TradeIntent struct {
	Symbol           string
	Direction        Direction
	TimeframeMinutes int
	Entry            float64
	StopLoss         float64
	TakeProfit1      float64
	TakeProfit2      *float64
	TakeProfit3      *float64
	AIConfidence     *float64
}

// Account is a routable brokerage account. Enabled is the only mutable
// boolean that gates routing.
type Account struct {
	UID          string   `gorm:"primaryKey;size:8"`
	Platform     Platform `gorm:"size:16"`
	PropFirm     string
	FriendlyName string
	SecretName   string
	Enabled      bool
}

// AccountConfig maps one signal asset onto one platform asset for one
// account. Composite key (AccountUID, PlatformAssetID); RiskPercent is the
// percent of balance risked across all legs combined.
type AccountConfig struct {
	AccountUID            string `gorm:"primaryKey;size:8"`
	PlatformAssetID       string `gorm:"primaryKey"`
	SignalAssetID         string
	EntryStaggerMethod    StaggerMethod `gorm:"size:16"`
	NStaggers             int
	RiskPercent           float64
	EntryOffset           float64
	DecimalPoints         int
	LotSize               float64
	AssetType             AssetType          `gorm:"size:16"`
	Mode                  string             `gorm:"size:16"`
	EnabledTradeDirection TradeDirectionRule `gorm:"size:16"`
}

// ConfluenceConfig binds one confluence slug to one account with its output
// mapping range. Composite key (AccountUID, ConfluenceID). When the rule is
// DISABLED the confluence contributes a neutral modifier of 1.0.
type ConfluenceConfig struct {
	AccountUID            string `gorm:"primaryKey;size:8"`
	ConfluenceID          string `gorm:"primaryKey"`
	MinValue              float64
	MaxValue              float64
	EnabledTradeDirection TradeDirectionRule `gorm:"size:16"`
}

// TradeEvent distinguishes trades from balance events in history rows.
type TradeEvent string

const (
	EventTrade    TradeEvent = "TRADE"
	EventDeposit  TradeEvent = "DEPOSIT"
	EventWithdraw TradeEvent = "WITHDRAWAL"
)

// TradeRecord is a closed-trade (or balance-event) row as consumed by the
// history analytics. DEPOSIT rows carry the deposit amount in Profit and
// establish an account's initial balance.
type TradeRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	AccountID  string `gorm:"index"`
	PositionID string
	Order      string
	TradeGroup string
	OpenedAt   time.Time
	ClosedAt   time.Time
	Direction  Direction  `gorm:"size:8"`
	Event      TradeEvent `gorm:"size:16"`
	Size       float64
	Symbol     string
	EntryPrice float64
	ExitPrice  float64
	Profit     float64
	Swap       float64
	Commission float64
}

// NetProfit is profit plus signed fees.
func (t TradeRecord) NetProfit() float64 {
	return t.Profit + t.Commission + t.Swap
}

// SymbolInfo is symbol metadata as reported by a broker backend.
type SymbolInfo struct {
	Name         string
	Digits       int
	ContractSize float64
}

// OrderType for broker submission.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
)

// OrderRequest is one leg of a staggered trade as handed to a broker client.
type OrderRequest struct {
	Symbol     string
	OrderType  OrderType
	LimitLevel float64
	Direction  Direction
	Size       float64
	StopLoss   float64
	TakeProfit float64
	Magic      uint32
}

// OrderAck is the broker's acknowledgement for one leg.
type OrderAck struct {
	OrderID string
	Status  string
	Message string
}

// Error kinds distinguished by the routing core. Per-leg, per-account and
// per-confluence failures are isolated; only a malformed signal halts the
// whole operation.
var (
	ErrInvalidIntent      = errors.New("invalid trade intent")
	ErrNoMatchingAccounts = errors.New("no matching accounts")
	ErrFeature            = errors.New("feature precondition failed")
	ErrBroker             = errors.New("broker call failed")
	ErrRepo               = errors.New("repository failure")
)

// ParseError wraps the last dialect failure after all grammars were tried.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("signal not parseable by any dialect: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

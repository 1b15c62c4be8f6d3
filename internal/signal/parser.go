package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"alpharai/internal/types"
)

// Parser turns raw signal text into a canonical TradeIntent. Two dialects
// are accepted: the Algopro broadcast format and the Alpharai key=value
// format. Algopro is tried first; Alpharai on failure; if both fail the
// caller gets a single ParseError wrapping the last cause.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// Parse tries all known dialects in order.
func (p *Parser) Parse(text string) (types.TradeIntent, error) {
	intent, err := parseAlgopro(text)
	if err == nil {
		return intent, nil
	}
	intent, err2 := parseAlpharai(text)
	if err2 == nil {
		return intent, nil
	}
	return types.TradeIntent{}, &types.ParseError{Cause: err2}
}

var algoproHeader = regexp.MustCompile(`(?i)^(Buy|Sell)\s+Signal\s+on\s+(\d+)\s+\w+\s+timeframe$`)

// parseAlgopro handles the broadcast dialect:
//
//	EURUSD
//	Buy Signal on 15 Minute timeframe
//	Entry: 1.1000
//	Stop Loss: 1.0950
//	Take Profit 1: 1.1100
func parseAlgopro(text string) (types.TradeIntent, error) {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return types.TradeIntent{}, fmt.Errorf("algopro: need at least symbol and header line, got %d lines", len(lines))
	}

	symbol := strings.TrimSpace(lines[0])
	if symbol == "" {
		return types.TradeIntent{}, fmt.Errorf("algopro: empty symbol line")
	}

	m := algoproHeader.FindStringSubmatch(strings.TrimSpace(lines[1]))
	if m == nil {
		return types.TradeIntent{}, fmt.Errorf("algopro: line 2 %q does not match signal header", lines[1])
	}

	direction := types.Direction(strings.ToUpper(m[1])).Normalize()
	timeframe, err := strconv.Atoi(m[2])
	if err != nil {
		return types.TradeIntent{}, fmt.Errorf("algopro: bad timeframe %q: %w", m[2], err)
	}

	fields := map[string]float64{}
	for _, line := range lines[2:] {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if f, ok := parseNumber(val); ok {
			fields[canonicalKey(key)] = f
		}
	}

	return buildIntent(symbol, direction, timeframe, fields, "algopro")
}

// parseAlpharai handles the key=value dialect:
//
//	Symbol = GBPUSD
//	Direction = SELL
//	Timeframe = 60
//	Entry = 1.2500
//	...
func parseAlpharai(text string) (types.TradeIntent, error) {
	lines := nonEmptyLines(text)
	if len(lines) < 3 {
		return types.TradeIntent{}, fmt.Errorf("alpharai: need at least 3 key=value lines, got %d", len(lines))
	}

	raw := map[string]string{}
	for _, line := range lines {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return types.TradeIntent{}, fmt.Errorf("alpharai: line %q is not key = value", line)
		}
		raw[canonicalKey(key)] = strings.TrimSpace(val)
	}

	symbol, ok := raw["symbol"]
	if !ok || symbol == "" {
		return types.TradeIntent{}, fmt.Errorf("alpharai: missing symbol")
	}
	dirStr, ok := raw["direction"]
	if !ok {
		return types.TradeIntent{}, fmt.Errorf("alpharai: missing direction")
	}
	direction := types.Direction(strings.ToUpper(dirStr)).Normalize()
	if direction != types.Long && direction != types.Short && direction != types.Neutral {
		return types.TradeIntent{}, fmt.Errorf("alpharai: unknown direction %q", dirStr)
	}
	tfStr, ok := raw["timeframe"]
	if !ok {
		return types.TradeIntent{}, fmt.Errorf("alpharai: missing timeframe")
	}
	timeframe, err := strconv.Atoi(strings.TrimSpace(tfStr))
	if err != nil {
		return types.TradeIntent{}, fmt.Errorf("alpharai: bad timeframe %q: %w", tfStr, err)
	}

	fields := map[string]float64{}
	for key, val := range raw {
		if f, ok := parseNumber(val); ok {
			fields[key] = f
		}
	}
	if _, ok := fields["entry"]; !ok {
		return types.TradeIntent{}, fmt.Errorf("alpharai: missing required field entry")
	}

	return buildIntent(symbol, direction, timeframe, fields, "alpharai")
}

// buildIntent assembles the intent from collected numeric fields. Take
// Profit 1 is required in both dialects.
func buildIntent(symbol string, direction types.Direction, timeframe int, fields map[string]float64, dialect string) (types.TradeIntent, error) {
	tp1, ok := fields["take profit 1"]
	if !ok {
		return types.TradeIntent{}, fmt.Errorf("%s: missing required field take profit 1", dialect)
	}

	intent := types.TradeIntent{
		Symbol:           symbol,
		Direction:        direction,
		TimeframeMinutes: timeframe,
		Entry:            fields["entry"],
		StopLoss:         fields["stop loss"],
		TakeProfit1:      tp1,
	}
	if v, ok := fields["take profit 2"]; ok {
		intent.TakeProfit2 = &v
	}
	if v, ok := fields["take profit 3"]; ok {
		intent.TakeProfit3 = &v
	}
	if v, ok := fields["ai confidence"]; ok {
		intent.AIConfidence = &v
	}
	return intent, nil
}

func canonicalKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(key)), " "))
}

// parseNumber coerces a value to a dot-decimal float, stripping a trailing
// percent sign. Non-numeric values are skipped, not errors; required-field
// checks catch the resulting absence.
func parseNumber(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

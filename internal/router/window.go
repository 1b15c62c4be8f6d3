package router

import (
	"context"
	"strconv"
	"time"

	"alpharai/internal/interfaces"
)

const minutesPerWeek = 7 * 24 * 60

// minutesSinceMonday maps a timestamp onto the weekly trade-window scale:
// minutes since Monday 00:00 UTC.
func minutesSinceMonday(t time.Time) int {
	t = t.UTC()
	weekday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return weekday*24*60 + t.Hour()*60 + t.Minute()
}

// insideTradeWindow reads the configured weekly window from settings. An
// unset or unparsable window means trading is always allowed. A window
// with start > end wraps across the week boundary.
func insideTradeWindow(ctx context.Context, settings interfaces.GeneralSettingsRepo, now time.Time) bool {
	if settings == nil {
		return true
	}
	startStr, err1 := settings.Get(ctx, interfaces.SettingTradeWindowStart)
	endStr, err2 := settings.Get(ctx, interfaces.SettingTradeWindowEnd)
	if err1 != nil || err2 != nil {
		return true
	}
	start, err1 := strconv.Atoi(startStr)
	end, err2 := strconv.Atoi(endStr)
	if err1 != nil || err2 != nil {
		return true
	}

	m := minutesSinceMonday(now)
	start = ((start % minutesPerWeek) + minutesPerWeek) % minutesPerWeek
	end = ((end % minutesPerWeek) + minutesPerWeek) % minutesPerWeek
	if start == end {
		return true
	}
	if start < end {
		return m >= start && m < end
	}
	return m >= start || m < end
}

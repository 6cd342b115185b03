package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tecnoter/ttsh/internal/feed"
)

// Job IDs for the built-in housekeeping jobs.
const (
	JobSystemInfo = "sysinfo_refresh"
	JobFeedReload = "feed_reload"
)

// DefaultLoadAvgPath is where Linux publishes the load average.
const DefaultLoadAvgPath = "/proc/loadavg"

// SystemInfoJob measures uptime, load average and date into store.
func SystemInfoJob(store *feed.Store, schedule string, started time.Time, now func() time.Time, loadAvgPath string) Job {
	if now == nil {
		now = time.Now
	}
	return Job{
		ID:       JobSystemInfo,
		Name:     "System info refresh",
		Schedule: schedule,
		Timeout:  5 * time.Second,
		Run: func(context.Context) error {
			store.SetLive(Measure(started, now(), loadAvgPath))
			return nil
		},
	}
}

// FeedReloadJob re-reads the feed file into store.
func FeedReloadJob(store *feed.Store, schedule string) Job {
	return Job{
		ID:       JobFeedReload,
		Name:     "Feed reload",
		Schedule: schedule,
		Timeout:  30 * time.Second,
		Run: func(context.Context) error {
			return store.Reload()
		},
	}
}

// Measure computes live system information. The load average is left empty
// when loadAvgPath cannot be read.
func Measure(started, now time.Time, loadAvgPath string) feed.Live {
	live := feed.Live{
		Uptime:      FormatUptime(now.Sub(started)),
		CurrentDate: now.Format("Mon Jan 02 2006"),
	}
	if loadAvgPath != "" {
		if avg, err := ReadLoadAverage(loadAvgPath); err == nil {
			live.LoadAverage = avg
		}
	}
	return live
}

// FormatUptime renders d the way uptime(1) does: "3 days, 4:05", "4:05" or
// "12 min".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	mins := int(d/time.Minute) % 60

	clock := fmt.Sprintf("%d:%02d", hours, mins)
	if hours == 0 {
		clock = fmt.Sprintf("%d min", mins)
	}
	switch {
	case days == 1:
		return "1 day, " + clock
	case days > 1:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
	return clock
}

// ReadLoadAverage returns the first three fields of a /proc/loadavg style
// file joined as "0.10, 0.20, 0.30".
func ReadLoadAverage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read load average: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return "", fmt.Errorf("malformed load average in %s", path)
	}
	return strings.Join(fields[:3], ", "), nil
}

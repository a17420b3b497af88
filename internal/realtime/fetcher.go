package realtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// Fetcher polls a GTFS-RT alerts feed and updates the store.
type Fetcher struct {
	alertsURL string
	interval  time.Duration
	language  string
	store     *Store
	client    *http.Client
	logger    *slog.Logger
}

// NewFetcher creates an alerts feed fetcher. language picks the preferred
// translation of alert texts; the first non-empty one is used otherwise.
func NewFetcher(alertsURL string, interval time.Duration, language string, store *Store, logger *slog.Logger) *Fetcher {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Fetcher{
		alertsURL: alertsURL,
		interval:  interval,
		language:  language,
		store:     store,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// Start begins polling the alerts feed. Blocks until context is cancelled.
func (f *Fetcher) Start(ctx context.Context) {
	f.poll(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.poll(ctx)
		case <-ctx.Done():
			f.logger.Info("alerts fetcher stopped")
			return
		}
	}
}

func (f *Fetcher) poll(ctx context.Context) {
	n, err := f.Fetch(ctx)
	if err != nil {
		f.logger.Warn("fetch alerts failed", "error", err)
		return
	}
	f.logger.Info("alerts updated", "count", n)
}

// Fetch downloads the feed once and replaces the stored alerts. The store is
// left untouched on any error.
func (f *Fetcher) Fetch(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.alertsURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create alerts request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get alerts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("alerts feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read alerts body: %w", err)
	}

	alerts, err := ParseAlerts(body, f.language)
	if err != nil {
		return 0, err
	}
	f.store.SetAlerts(alerts)
	return len(alerts), nil
}

// ParseAlerts decodes a GTFS-RT feed message and keeps its alert entities.
func ParseAlerts(body []byte, language string) ([]Alert, error) {
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("parse alerts protobuf: %w", err)
	}

	var alerts []Alert
	for _, entity := range feed.GetEntity() {
		a := entity.GetAlert()
		if a == nil || entity.GetIsDeleted() {
			continue
		}

		alert := Alert{
			ID:          entity.GetId(),
			Header:      translation(a.GetHeaderText(), language),
			Description: translation(a.GetDescriptionText(), language),
			Effect:      a.GetEffect().String(),
			Cause:       a.GetCause().String(),
		}
		alert.EffectLabel = FormatAlertEffect(alert.Effect)

		lineSet := make(map[string]bool)
		stationSet := make(map[string]bool)
		for _, ie := range a.GetInformedEntity() {
			if id := ie.GetRouteId(); id != "" && !lineSet[id] {
				alert.LineIDs = append(alert.LineIDs, id)
				lineSet[id] = true
			}
			if name := ie.GetStopId(); name != "" && !stationSet[name] {
				alert.Stations = append(alert.Stations, name)
				stationSet[name] = true
			}
		}

		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func translation(ts *gtfs.TranslatedString, language string) string {
	if ts == nil {
		return ""
	}
	first := ""
	for _, t := range ts.GetTranslation() {
		text := t.GetText()
		if text == "" {
			continue
		}
		if language != "" && t.GetLanguage() == language {
			return text
		}
		if first == "" {
			first = text
		}
	}
	return first
}

// FormatAlertEffect returns a human-readable effect description.
func FormatAlertEffect(effect string) string {
	switch effect {
	case "NO_SERVICE":
		return "No Service"
	case "REDUCED_SERVICE":
		return "Reduced Service"
	case "SIGNIFICANT_DELAYS":
		return "Significant Delays"
	case "DETOUR":
		return "Detour"
	case "ADDITIONAL_SERVICE":
		return "Additional Service"
	case "MODIFIED_SERVICE":
		return "Modified Service"
	case "STOP_MOVED":
		return "Stop Moved"
	default:
		return "Alert"
	}
}

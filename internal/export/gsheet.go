package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/app"
	"github.com/saltspray/heatline/internal/scoring"
	"github.com/saltspray/heatline/internal/store"
)

// GSheetExporter pushes leaderboard snapshots into google sheets on a
// cron schedule, one sheet per configured label.
type GSheetExporter struct {
	config        *app.Config
	store         store.HeatStore
	scheduler     *gocron.Scheduler
	sheetsService *sheets.Service
}

func NewGSheetExporter(config *app.Config, store store.HeatStore) (*GSheetExporter, error) {
	ctx := context.Background()
	scheduler := gocron.NewScheduler(time.UTC)

	exporter := &GSheetExporter{
		config:    config,
		store:     store,
		scheduler: scheduler,
	}

	for label, configs := range config.GSheet {
		for _, cfg := range configs {
			svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
			if err != nil {
				return nil, fmt.Errorf("failed to create sheets service: %w", err)
			}
			exporter.sheetsService = svc

			label := label
			cfg := cfg
			_, err = scheduler.Cron(cfg.Schedule).Do(func() {
				if err := exporter.Export(label, &cfg); err != nil {
					logger.Error.Printf("Export %s failed: %v", label, err)
				}
			})
			if err != nil {
				return nil, fmt.Errorf("failed to schedule export: %w", err)
			}
		}
	}

	scheduler.StartAsync()
	return exporter, nil
}

// Export writes the current top-N owners below the header row and
// stamps the refresh time so readers can tell a stale sheet.
func (e *GSheetExporter) Export(label string, cfg *app.GSheetConfig) error {
	rows, err := e.store.FetchLeaderboard(cfg.TopN)
	if err != nil {
		return fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	values := [][]interface{}{{"Rank", "Owner", "Fantasy Points"}}
	for i, row := range rows {
		values = append(values, []interface{}{i + 1, row.OwnerID, scoring.Format(row.Total)})
	}

	writeRange := fmt.Sprintf("%s!%s", cfg.SheetName, cfg.HeaderRange)
	_, err = e.sheetsService.Spreadsheets.Values.Update(cfg.SheetID, writeRange,
		&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to write leaderboard: %w", err)
	}

	timestamp := fmt.Sprintf("UPD: %s 🌊", time.Now().UTC().Format("2 January 15:04"))
	updateRange := fmt.Sprintf("%s!%s", cfg.SheetName, cfg.TimestampRange)
	_, err = e.sheetsService.Spreadsheets.Values.Update(cfg.SheetID, updateRange,
		&sheets.ValueRange{Values: [][]interface{}{{timestamp}}}).ValueInputOption("RAW").Do()

	return err
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripletex-bridge/internal/heatmap"
	"tripletex-bridge/internal/logger"
	"tripletex-bridge/internal/repository"
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap [file]",
	Short: "Render shipping destinations as an HTML heatmap",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHeatmap,
}

func init() {
	rootCmd.AddCommand(heatmapCmd)
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("heatmap")
	outPath := "orders-heatmap.html"
	if len(args) == 1 {
		outPath = args[0]
	}

	db, err := openDatabase()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	rows, err := repository.NewShippingRepository(db).ListWithCoordinates(cmd.Context())
	if err != nil {
		return fmt.Errorf("list shipping: %w", err)
	}

	points := make([]heatmap.Point, 0, len(rows))
	for _, s := range rows {
		points = append(points, heatmap.Point{Lat: *s.Latitude, Lng: *s.Longitude})
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	writeErr := heatmap.Write(out, points)
	if closeErr := out.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("write heatmap: %w", writeErr)
	}

	log.Info().Str("file", outPath).Int("points", len(points)).Msg("Heatmap written")
	return nil
}

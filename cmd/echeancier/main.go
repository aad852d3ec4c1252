package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/jmarceau/echeancier/internal/common"
	"github.com/jmarceau/echeancier/internal/export"
	"github.com/jmarceau/echeancier/internal/llm/gemini"
	"github.com/jmarceau/echeancier/internal/pipeline"
)

// One-shot extraction: echeancier [-csv out.csv] [-xlsx out.xlsx] <file.pdf>
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	csvPath := flag.String("csv", "", "write the schedule as CSV to this path")
	xlsxPath := flag.String("xlsx", "", "write the schedule as XLSX to this path")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: echeancier [-csv out.csv] [-xlsx out.xlsx] <file.pdf>")
		os.Exit(2)
	}
	pdfPath := flag.Arg(0)

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY env var is required")
		os.Exit(2)
	}

	document, err := os.ReadFile(pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", pdfPath, err)
		os.Exit(1)
	}

	analyzer := gemini.NewClient(gemini.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	processor := pipeline.NewProcessor(analyzer, nil, pipeline.Config{
		RepairPayload: cfg.LLM.RepairPayload,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout)
	defer cancel()

	result, err := processor.Process(ctx, document, filepath.Base(pdfPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "extraction failed: %v\n", err)
		os.Exit(1)
	}
	if result.NoData {
		fmt.Fprintf(os.Stderr, "no schedule found in response: %s\n", result.Reason)
		os.Exit(1)
	}

	stats := result.Summary
	fmt.Printf("Total assurances : %.2f €\n", stats.TotalInsurance)
	fmt.Printf("Total intérêts   : %.2f €\n", stats.TotalInterest)
	fmt.Printf("Première échéance : %s\n", stats.FirstDueDate)
	fmt.Printf("Nombre d'échéances : %d\n", stats.RowCount)

	if *csvPath != "" {
		data, err := export.ScheduleCSV(result.Table)
		if err == nil {
			err = os.WriteFile(*csvPath, data, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "write csv: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("CSV écrit : %s\n", *csvPath)
	}
	if *xlsxPath != "" {
		data, err := export.ScheduleXLSX(result.Table, stats, logger)
		if err == nil {
			err = os.WriteFile(*xlsxPath, data, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "write xlsx: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("XLSX écrit : %s\n", *xlsxPath)
	}
}

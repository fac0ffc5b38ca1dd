package main

import (
	"fmt"

	"appagent/internal/database"
	"appagent/internal/reporter"
)

func generateReport(args []string) {
	periodType := "day"
	if len(args) > 0 && args[0] != "--json" {
		periodType = args[0]
	}
	jsonOutput := hasFlag(args, "--json")

	cfg := mustConfig()
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		fatalf("Failed to initialize database: %v", err)
	}

	rep := reporter.New(cfg, database.NewRepository(db))
	report, err := rep.GenerateReport(periodType)
	if err != nil {
		fatalf("Failed to generate report: %v", err)
	}

	if jsonOutput {
		out, err := rep.FormatReportJSON(report)
		if err != nil {
			fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(out)
		return
	}
	fmt.Println(rep.FormatReportText(report))
}

func clearDatabase() {
	cfg := mustConfig()

	fmt.Print("This will delete all recorded focus, command, panel and audit events. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)
	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		fatalf("Failed to initialize database: %v", err)
	}

	if err := database.NewRepository(db).Clear(); err != nil {
		fatalf("Failed to clear database: %v", err)
	}
	success("Database cleared")
}

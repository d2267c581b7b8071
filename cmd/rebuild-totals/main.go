// rebuild-totals recomputes every material total from the inventory balances.
//
// Usage:
//   DB_DRIVER=... go run ./cmd/rebuild-totals -actor-id <user id> [-actor-name "Ops"]
//   go run ./cmd/rebuild-totals -dry-run     (report drift only, writes nothing)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
	"github.com/mmdatafocus/cabinet_inventory/workflow"
)

func main() {
	actorID := flag.String("actor-id", "", "Required unless -dry-run: user id recorded on the audit entry")
	actorName := flag.String("actor-name", "", "Optional: display name for the actor")
	dryRun := flag.Bool("dry-run", false, "Only report totals that drift from the ledger")
	asJSON := flag.Bool("json", false, "Print the result as JSON")
	flag.Parse()

	if !*dryRun && strings.TrimSpace(*actorID) == "" {
		fmt.Fprintln(os.Stderr, "-actor-id is required (or pass -dry-run)")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	// the rebuild lock is shared with running API instances through redis
	config.ConnectRedisWithRetry()
	logger := config.GetLogger()
	ctx := context.Background()

	if *dryRun {
		report, err := workflow.VerifyTotals(ctx, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify failed: %v\n", err)
			os.Exit(1)
		}
		if *asJSON {
			printJSON(report)
			return
		}
		fmt.Printf("Checked %d materials, %d drift from the ledger\n", report.Processed, report.DriftCount)
		for _, d := range report.Drift {
			fmt.Printf("  %s (%s): cached=%d ledger=%d\n", d.Name, d.MaterialId, d.PreviousTotal, d.NewTotal)
		}
		if report.DriftCount > 0 {
			os.Exit(3)
		}
		return
	}

	id := strings.TrimSpace(*actorID)
	name := strings.TrimSpace(*actorName)
	if err := models.EnsureUser(ctx, id, name, "", models.UserRoleAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure actor: %v\n", err)
		os.Exit(1)
	}
	if user, err := models.GetUser(ctx, id); err == nil {
		name = user.DisplayName()
	}
	ctx = utils.SetActorInContext(ctx, id, name, string(models.UserRoleAdmin))

	summary, err := workflow.RebuildTotals(ctx, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	models.FlushEvents()
	config.ClosePubSub()
	if *asJSON {
		printJSON(summary)
		return
	}
	fmt.Println(summary.Message)
	for _, r := range summary.Results {
		if r.Changed {
			fmt.Printf("  %s (%s): %d -> %d\n", r.Name, r.MaterialId, r.PreviousTotal, r.NewTotal)
		}
	}
	if summary.AuditTransactionId != "" {
		fmt.Printf("Audit transaction: %s\n", summary.AuditTransactionId)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adjovi/momo-tracker/internal/export"
	infraBQ "github.com/adjovi/momo-tracker/internal/infra/bigquery"
	"github.com/adjovi/momo-tracker/internal/ingest"
	"github.com/adjovi/momo-tracker/internal/ledger"
	"github.com/adjovi/momo-tracker/internal/logger"
	"github.com/adjovi/momo-tracker/internal/notify"
	"github.com/adjovi/momo-tracker/internal/parser"
)

var ledgerPath string

var rootCmd = &cobra.Command{
	Use:   "momo",
	Short: "Track MTN Mobile Money transactions from SMS notifications",
	Long:  `A CLI tool to parse MTN Mobile Money SMS notifications, maintain a deduplicated transaction ledger and export or mirror it.`,
}

var parseCmd = &cobra.Command{
	Use:   "parse <message>",
	Short: "Parse a single SMS and print the transaction as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := parser.Parse(args[0], 0)
		if err != nil {
			return fmt.Errorf("failed to parse message: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tx)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <backup.xml>",
	Short: "Import an SMS backup XML file into the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := ingest.ReadBackupFile(args[0])
		if err != nil {
			return err
		}

		svc := newService()
		parsed, added, err := svc.IngestBatch(cliContext(), msgs)
		if err != nil {
			return err
		}

		fmt.Printf("Backup: %d provider messages, %d parsed, %d new transactions\n", len(msgs), parsed, added)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download an SMS backup from Cloud Storage and import it",
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, _ := cmd.Flags().GetString("bucket")
		object, _ := cmd.Flags().GetString("object")
		if bucket == "" || object == "" {
			return fmt.Errorf("--bucket and --object are required")
		}

		ctx := cliContext()
		msgs, err := ingest.DownloadBackup(ctx, bucket, object)
		if err != nil {
			return err
		}

		svc := newService()
		parsed, added, err := svc.IngestBatch(ctx, msgs)
		if err != nil {
			return err
		}

		fmt.Printf("gs://%s/%s: %d provider messages, %d parsed, %d new transactions\n", bucket, object, len(msgs), parsed, added)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		transactions, err := newService().List(cliContext(), ledger.Filter{})
		if err != nil {
			return err
		}

		w := os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := export.WriteCSV(w, transactions); err != nil {
			return err
		}
		if out != "" {
			fmt.Printf("Exported %d transactions to %s\n", len(transactions), out)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print ledger statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newService().Stats(cliContext())
		if err != nil {
			return err
		}

		fmt.Printf("Transactions:    %d (%d sent, %d received)\n", stats.TransactionCount, stats.SentCount, stats.ReceivedCount)
		fmt.Printf("Total sent:      %.0f FCFA\n", stats.TotalSent)
		fmt.Printf("Total received:  %.0f FCFA\n", stats.TotalReceived)
		fmt.Printf("Total fees:      %.0f FCFA\n", stats.TotalFees)
		fmt.Printf("Current balance: %.0f FCFA\n", stats.CurrentBalance)
		return nil
	},
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror the ledger to the BigQuery warehouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cliContext(), 5*time.Minute)
		defer cancel()

		transactions, err := newService().List(ctx, ledger.Filter{})
		if err != nil {
			return err
		}

		mirror, err := infraBQ.NewBigQueryTransactionMirror(ctx)
		if err != nil {
			return err
		}
		defer mirror.Close()

		mirrored, err := mirror.Mirror(ctx, transactions)
		if err != nil {
			return err
		}

		fmt.Printf("Mirrored %d new transactions (%d total in ledger)\n", mirrored, len(transactions))
		return nil
	},
}

var notionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Push ledger transactions to the Notion database",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := os.Getenv("MOMO_NOTION_TOKEN")
		dbID := os.Getenv("MOMO_NOTION_DB")
		if token == "" || dbID == "" {
			return fmt.Errorf("MOMO_NOTION_TOKEN and MOMO_NOTION_DB must be set")
		}

		ctx := cliContext()
		transactions, err := newService().List(ctx, ledger.Filter{})
		if err != nil {
			return err
		}

		sink := notify.NewNotionSink(notify.NewNotionClient(token), dbID)
		var pushed int
		for _, tx := range transactions {
			if err := sink.Notify(ctx, tx); err != nil {
				return err
			}
			pushed++
		}

		fmt.Printf("Pushed %d transactions to Notion\n", pushed)
		return nil
	},
}

func newService() *ledger.Service {
	return ledger.NewService(ledger.NewFileStore(ledgerPath))
}

func cliContext() context.Context {
	log := logger.New()
	return logger.WithContext(context.Background(), log)
}

func init() {
	defaultLedger := os.Getenv("MOMO_LEDGER_PATH")
	if defaultLedger == "" {
		defaultLedger = "data/ledger.json"
	}
	rootCmd.PersistentFlags().StringVarP(&ledgerPath, "ledger", "l", defaultLedger, "Path to the ledger file")

	syncCmd.Flags().String("bucket", os.Getenv("MOMO_BACKUP_BUCKET"), "Cloud Storage bucket holding the backup")
	syncCmd.Flags().String("object", "", "Backup object name")
	exportCmd.Flags().StringP("output", "o", "", "Output file (defaults to stdout)")

	rootCmd.AddCommand(parseCmd, importCmd, syncCmd, exportCmd, statsCmd, mirrorCmd, notionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

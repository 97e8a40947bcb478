// Varo Believe statement to Monarch CSV converter.
//
// Reads Varo Believe credit card statement PDFs and writes transactions as a
// CSV that Monarch Money imports directly. Runs fully offline; statements
// never leave the machine.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/varo-monarch-converter/internal/api"
	"github.com/insightdelivered/varo-monarch-converter/internal/extractor"
	"github.com/insightdelivered/varo-monarch-converter/internal/logger"
	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/parser"
	"github.com/insightdelivered/varo-monarch-converter/internal/writer"
)

const version = "1.0.0"

var (
	verbose bool
	log     zerolog.Logger

	convertOutput    string
	convertPattern   string
	convertWorkers   int
	includeFileNames bool

	serveAddr string
)

var rootCmd = &cobra.Command{
	Use:   "varo-monarch-converter",
	Short: "Convert Varo Believe credit card statements to Monarch CSV",
	Long: `Converts Varo Believe credit card statement PDFs into the CSV
format Monarch Money imports. Purchases and fees become negative amounts on
the Believe card, payments and credits positive, and secured-account activity
keeps its printed sign under the Varo Secured Account.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logger.New(verbose)
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <folder>",
	Short: "Convert all statement PDFs in a folder to one Monarch CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output CSV path (default <folder>/varo_monarch_combined.csv)")
	convertCmd.Flags().StringVarP(&convertPattern, "pattern", "p", "*.pdf", "glob pattern for statement files")
	convertCmd.Flags().IntVarP(&convertWorkers, "workers", "w", defaultWorkers(), "number of parallel workers")
	convertCmd.Flags().BoolVar(&includeFileNames, "include-file-names", true, "include a Source File column in the CSV")
	rootCmd.AddCommand(convertCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// fileResult is the outcome of converting one statement.
type fileResult struct {
	path     string
	txs      []models.ClassifiedTransaction
	warnings []models.Warning
	err      error
}

func runConvert(cmd *cobra.Command, args []string) error {
	folder := args[0]
	info, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("reading folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", folder)
	}

	pdfs, err := findPDFs(folder, convertPattern)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}
	if len(pdfs) == 0 {
		return fmt.Errorf("no PDFs found matching %q in %s", convertPattern, folder)
	}

	outPath := convertOutput
	if outPath == "" {
		outPath = filepath.Join(folder, "varo_monarch_combined.csv")
	}

	cmd.Printf("Found %d PDF(s)\n", len(pdfs))
	cmd.Printf("Output: %s\n", outPath)

	results := convertAll(cmd, pdfs, convertWorkers)

	// Merge in filename order so reruns produce identical files.
	var combined []models.ClassifiedTransaction
	var failures int
	for _, r := range results {
		if r.err != nil {
			failures++
			continue
		}
		combined = append(combined, r.txs...)
	}

	if len(combined) == 0 {
		cmd.PrintErrln("No transactions extracted")
		os.Exit(2)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()

	if err := writer.Write(out, combined, writer.Options{IncludeSourceFile: includeFileNames}); err != nil {
		return err
	}
	cmd.Printf("✓ %d transactions → %s\n", len(combined), outPath)

	printAccountSummary(cmd, results)

	if failures > 0 {
		cmd.PrintErrf("%d file(s) failed\n", failures)
	}
	return nil
}

// convertAll fans the PDFs out to a worker pool and returns results in the
// same order as pdfs.
func convertAll(cmd *cobra.Command, pdfs []string, workers int) []fileResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]fileResult, len(pdfs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = convertOne(pdfs[i])
			}
		}()
	}
	for i := range pdfs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, r := range results {
		name := filepath.Base(r.path)
		if r.err != nil {
			cmd.PrintErrf("✗ %s: %v\n", name, r.err)
			continue
		}
		cmd.Printf("✓ %s → %d txns\n", name, len(r.txs))
		for _, warn := range r.warnings {
			log.Warn().Str("file", name).Msg(warn.String())
		}
	}
	return results
}

func convertOne(path string) fileResult {
	res := fileResult{path: path}
	doc, err := extractor.Open(path)
	if err != nil {
		res.err = err
		return res
	}
	res.txs, res.warnings = parser.ExtractTransactions(doc, filepath.Base(path))
	return res
}

// printAccountSummary prints the balances from the statement whose latest
// transaction is most recent, for setting up the matching Monarch accounts.
func printAccountSummary(cmd *cobra.Command, results []fileResult) {
	latest := latestByDate(results)
	if latest == "" {
		return
	}
	doc, err := extractor.Open(latest)
	if err != nil {
		log.Warn().Err(err).Str("file", filepath.Base(latest)).Msg("account summary skipped")
		return
	}
	summary := parser.ExtractSummary(doc, filepath.Base(latest))
	if !summary.HasEndingBalance && !summary.HasCreditLimit && !summary.HasNewBalance {
		return
	}

	cmd.Printf("\nAccount summary (%s):\n", filepath.Base(latest))
	name := "Varo Believe Card"
	if summary.AccountNumber != "" {
		name = fmt.Sprintf("%s (%s)", name, summary.AccountNumber)
	}
	if summary.HasNewBalance {
		cmd.Printf("  %-40s Current Balance $%s\n", name, summary.NewBalance.StringFixed(2))
	}
	if summary.HasCreditLimit {
		cmd.Printf("  %-40s Credit Limit    $%s\n", name, summary.CreditLimit.StringFixed(2))
	}
	if summary.HasPaymentDueAmount && summary.PaymentDueDate != "" {
		cmd.Printf("  %-40s Payment Due     $%s by %s\n", name, summary.PaymentDueAmount.StringFixed(2), summary.PaymentDueDate)
	}
	if summary.HasEndingBalance {
		cmd.Printf("  %-40s Balance         $%s\n", "Varo Secured Account", summary.EndingBalance.StringFixed(2))
	}
	cmd.Println("  Use these values when adding the accounts in Monarch Money.")
}

// latestByDate returns the path of the statement whose newest transaction
// date is the most recent. Falls back to the last path in sort order when no
// file yielded parseable dates.
func latestByDate(results []fileResult) string {
	if len(results) == 0 {
		return ""
	}
	best := results[len(results)-1].path
	var bestDate time.Time
	for _, r := range results {
		if r.err != nil {
			continue
		}
		for _, tx := range r.txs {
			d, err := time.Parse("01/02/2006", tx.Date)
			if err != nil {
				continue
			}
			if d.After(bestDate) {
				bestDate = d
				best = r.path
			}
		}
	}
	return best
}

// findPDFs walks the folder recursively and returns files matching pattern,
// sorted by path.
func findPDFs(folder, pattern string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(folder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return err
		}
		if ok {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	app := api.NewApp()
	log.Info().Str("addr", serveAddr).Msg("starting conversion API")
	if err := app.Listen(serveAddr); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

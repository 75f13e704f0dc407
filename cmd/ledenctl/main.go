// ledenctl is the operations companion to the API and the worker. It
// applies schema migrations, drafts and exports collection batches,
// runs the mandate scan, produces ANBI exports and bootstraps the
// credentials and staff accounts that the HTTP surface cannot create
// for itself.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"ledenbeheer/internal/adapter/repo"
	"ledenbeheer/internal/anbi"
	"ledenbeheer/internal/collection"
	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/infra/credentials"
	"ledenbeheer/internal/storage"
	"ledenbeheer/migrations"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledenctl",
		Short:         "Operations tooling for the ledenbeheer backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCommand(),
		newBatchCommand(),
		newMandateCommand(),
		newAnbiCommand(),
		newStatsCommand(),
		newCredentialsCommand(),
		newAccountCommand(),
	)
	return root
}

// cliEnv bundles the shared plumbing a subcommand needs once it
// actually runs. Opening is deferred into RunE so --help never touches
// the database.
type cliEnv struct {
	cfg    *infra.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool
	runner *infra.SQLRunner
}

func openEnv(ctx context.Context) (*cliEnv, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewLogger("cli", cfg.AppEnv)
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &cliEnv{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		runner: infra.NewSQLRunner(pool, logger),
	}, nil
}

func (e *cliEnv) Close() { e.pool.Close() }

func (e *cliEnv) fileStore() (*storage.FileStore, error) {
	return storage.NewFileStore(e.cfg.StorageDir)
}

func (e *cliEnv) collector() (*collection.Builder, error) {
	store, err := e.fileStore()
	if err != nil {
		return nil, err
	}
	settings := repo.NewSettingsRepository(e.runner)
	return collection.NewBuilder(
		repo.NewInvoiceRepository(e.runner),
		repo.NewMandateRepository(e.runner),
		repo.NewMemberRepository(e.runner, settings),
		repo.NewBatchRepository(e.runner),
		repo.NewDuesScheduleRepository(e.runner),
		settings,
		repo.NewNotificationRepository(e.runner),
		store,
		e.logger,
	), nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := infra.LoadConfig()
			if err != nil {
				return err
			}
			return infra.RunMigrations(cfg.DatabaseURL, migrations.FS, infra.NewLogger("cli", cfg.AppEnv))
		},
	}
}

func newBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Direct debit batch operations",
	}
	cmd.AddCommand(newBatchCreateCommand(), newBatchExportCommand())
	return cmd
}

func newBatchCreateCommand() *cobra.Command {
	var dateFlag, descFlag string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Draft a collection batch for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			collectionDate, err := time.Parse("2006-01-02", dateFlag)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			collector, err := env.collector()
			if err != nil {
				return err
			}
			batch, err := collector.CreateBatch(ctx, collectionDate, descFlag)
			if err != nil {
				return err
			}
			fmt.Printf("batch %s drafted: %d rows, EUR %s\n", batch.Name, batch.EntryCount, batch.TotalAmount.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "collection date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&descFlag, "description", "Manual collection run", "batch description")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newBatchExportCommand() *cobra.Command {
	var idFlag string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate the pain.008 file for a drafted batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			batch, err := repo.NewBatchRepository(env.runner).GetByID(ctx, idFlag)
			if err != nil {
				return err
			}
			collector, err := env.collector()
			if err != nil {
				return err
			}
			key, err := collector.Generate(ctx, batch, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("batch %s exported to %s\n", batch.Name, key)
			return nil
		},
	}
	cmd.Flags().StringVar(&idFlag, "id", "", "batch id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newMandateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mandate",
		Short: "SEPA mandate operations",
	}
	cmd.AddCommand(newMandateScanCommand())
	return cmd
}

func newMandateScanCommand() *cobra.Command {
	var applyFlag bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Compare active mandates against member bank data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			settings := repo.NewSettingsRepository(env.runner)
			scanner := collection.NewScanner(
				repo.NewMandateRepository(env.runner),
				repo.NewMemberRepository(env.runner, settings),
				repo.NewNotificationRepository(env.runner),
				env.logger,
			)
			discrepancies, err := scanner.Scan(ctx, time.Now(), applyFlag)
			if err != nil {
				return err
			}
			if len(discrepancies) == 0 {
				fmt.Println("no discrepancies found")
				return nil
			}
			for _, d := range discrepancies {
				fmt.Printf("%-16s mandate=%s member=%s %s\n", d.Kind, d.Mandate, d.Member, d.Detail)
			}
			fmt.Printf("%d discrepancies\n", len(discrepancies))
			return nil
		},
	}
	cmd.Flags().BoolVar(&applyFlag, "apply", false, "expire lapsed mandates and notify members")
	return cmd
}

func newAnbiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anbi",
		Short: "ANBI reporting",
	}
	cmd.AddCommand(newAnbiExportCommand())
	return cmd
}

func newAnbiExportCommand() *cobra.Command {
	var fromFlag, toFlag int
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate annual donor reports for a range of years",
		RunE: func(cmd *cobra.Command, args []string) error {
			lastYear := time.Now().Year() - 1
			if fromFlag == 0 {
				fromFlag = lastYear
			}
			if toFlag == 0 {
				toFlag = fromFlag
			}
			if toFlag < fromFlag {
				return errors.New("--to must not be before --from")
			}
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			store, err := env.fileStore()
			if err != nil {
				return err
			}
			reporter := anbi.NewReporter(
				repo.NewDonationRepository(env.runner),
				repo.NewDonorRepository(env.runner, env.cfg.PIIEncryptionKey),
				repo.NewAgreementRepository(env.runner),
				store,
				env.logger,
			)
			for year := fromFlag; year <= toFlag; year++ {
				result, err := reporter.GenerateAnnual(ctx, year)
				if err != nil {
					return fmt.Errorf("report %d: %w", year, err)
				}
				fmt.Printf("%d: %d donors, EUR %s, archive %s\n", result.Year, len(result.Lines), result.Total.StringFixed(2), result.ArchiveKey)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&fromFlag, "from", 0, "first year (default: last year)")
	cmd.Flags().IntVar(&toFlag, "to", 0, "last year (default: --from)")
	return cmd
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print membership and arrears numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			stats := repo.NewStatsRepository(env.runner)

			counts, err := stats.MemberCounts(ctx)
			if err != nil {
				return err
			}
			fmt.Println("members:")
			printSorted(counts, func(k domain.MemberStatus) string { return string(k) })

			sizes, err := stats.ChapterSizes(ctx)
			if err != nil {
				return err
			}
			fmt.Println("chapters:")
			printSorted(sizes, func(k string) string { return k })

			year := time.Now().Year()
			revenue, err := stats.RevenueByMonth(ctx, year)
			if err != nil {
				return err
			}
			fmt.Printf("revenue %d:\n", year)
			months := make([]string, 0, len(revenue))
			for m := range revenue {
				months = append(months, m)
			}
			sort.Strings(months)
			for _, m := range months {
				fmt.Printf("  %-12s %4d  EUR %s\n", m, revenue[m].Count, revenue[m].Total.StringFixed(2))
			}

			overdueCount, overdueSum, err := stats.OverdueInvoiceTotals(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("overdue: %d invoices, EUR %s outstanding\n", overdueCount, overdueSum.Total.StringFixed(2))
			return nil
		},
	}
}

func printSorted[K comparable](m map[K]int, key func(K) string) {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return key(keys[i]) < key(keys[j]) })
	for _, k := range keys {
		fmt.Printf("  %-16s %d\n", key(k), m[k])
	}
}

func newCredentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage stored integration credentials",
	}
	cmd.AddCommand(newCredentialsEBoekhoudenCommand())
	return cmd
}

func newCredentialsEBoekhoudenCommand() *cobra.Command {
	var tokenFlag string
	cmd := &cobra.Command{
		Use:   "set-eboekhouden",
		Short: "Store the e-Boekhouden API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(tokenFlag)
			if token == "" {
				token = strings.TrimSpace(os.Getenv("EBOEKHOUDEN_API_TOKEN"))
			}
			if token == "" {
				return errors.New("token required via --token or EBOEKHOUDEN_API_TOKEN")
			}
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			if err := credentials.NewStore(env.runner).SetEBoekhoudenToken(ctx, token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Println("e-Boekhouden API token stored")
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenFlag, "token", "", "API token (falls back to EBOEKHOUDEN_API_TOKEN)")
	return cmd
}

func newAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Staff account operations",
	}
	cmd.AddCommand(newAccountCreateCommand())
	return cmd
}

// newAccountCreateCommand exists for the bootstrap problem: creating
// accounts over the API requires an admin, and a fresh install has
// none.
func newAccountCreateCommand() *cobra.Command {
	var emailFlag, nameFlag, roleFlag, passwordFlag string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff login, e.g. the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			role := domain.AccountRole(strings.ToLower(strings.TrimSpace(roleFlag)))
			switch role {
			case domain.RoleAdmin, domain.RoleBoard:
			default:
				return fmt.Errorf("unsupported role %q, want admin or board", roleFlag)
			}
			password := passwordFlag
			if password == "" {
				password = os.Getenv("LEDENCTL_PASSWORD")
			}
			if len(password) < 10 {
				return errors.New("password of at least 10 characters required via --password or LEDENCTL_PASSWORD")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			acc := &domain.Account{
				Email:        strings.TrimSpace(emailFlag),
				Name:         strings.TrimSpace(nameFlag),
				PasswordHash: string(hash),
				Role:         role,
				Active:       true,
			}
			if err := repo.NewAccountRepository(env.runner).Create(ctx, acc); err != nil {
				return err
			}
			fmt.Printf("account %s created with role %s\n", acc.Email, acc.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&emailFlag, "email", "", "login email")
	cmd.Flags().StringVar(&nameFlag, "name", "", "display name")
	cmd.Flags().StringVar(&roleFlag, "role", "board", "account role (admin or board)")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "password (falls back to LEDENCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

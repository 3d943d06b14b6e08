package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"punch-go/internal/app"
	"punch-go/internal/config"
	"punch-go/internal/export"
	"punch-go/internal/punch"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file from the default location.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a PunchApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Clock", "Import").
func newApp(operation string) (*app.PunchApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewPunchApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on stderr and reads a line from the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// monthFlag parses --month, defaulting to the device's current month.
func monthFlag(cmd *cobra.Command, a *app.PunchApp) (punch.YearMonth, error) {
	raw, _ := cmd.Flags().GetString("month")
	if raw == "" {
		return a.CurrentMonth(), nil
	}
	return punch.ParseYearMonth(raw)
}

var rootCmd = &cobra.Command{
	Use:          "punch",
	Short:        "Punch clock and work hours tracker",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		deviceID := uuid.New().String()
		cfg := config.NewConfig(deviceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Device ID: %s\n", deviceID)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		threshold := cfg.Calculation.DailyThresholdMinutes
		if threshold <= 0 {
			threshold = punch.DefaultThresholdMinutes
		}
		tz := cfg.Calculation.Timezone
		if tz == "" {
			tz = "local"
		}

		fmt.Printf("Device ID:  %s\n", cfg.DeviceID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Threshold:  %s\n", export.FormatMinutes(threshold))
		fmt.Printf("Timezone:   %s\n", tz)
		fmt.Printf("Work days:  %s\n", strings.Join(cfg.Calculation.WorkDays, ", "))
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:      %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate the export encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := app.SetupKeys(cfg, pass); err != nil {
			return err
		}
		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Check that the vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.ValidateVault(cfg); err != nil {
			return fmt.Errorf("vault check failed: %w", err)
		}
		fmt.Printf("Vault %q is ready\n", cfg.Vaults[0].Name)
		return nil
	},
}

// clock command
var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Record the next punch of today",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := punch.ClockRequest{}
		req.LocationLabel, _ = cmd.Flags().GetString("location")
		req.Source, _ = cmd.Flags().GetString("source")
		req.Offline, _ = cmd.Flags().GetBool("offline")
		if cmd.Flags().Changed("accuracy") {
			acc, _ := cmd.Flags().GetFloat64("accuracy")
			req.AccuracyMeters = &acc
		}

		a, err := newApp("Clock")
		if err != nil {
			return err
		}
		defer a.Close()

		ev, err := a.Clock(req)
		if err != nil {
			return fmt.Errorf("clock failed: %w", err)
		}

		fmt.Printf("%s at %s\n", ev.Kind.Label(), ev.LocalTime().Format("15:04"))
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's punches and hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status()
		if err != nil {
			return err
		}
		printStatus(st)
		return nil
	},
}

func printStatus(st *punch.DayStatus) {
	fmt.Printf("%s (%s)\n", st.Date, st.Date.Weekday())
	if len(st.Events) == 0 {
		fmt.Println("No punches today.")
	}
	for _, ev := range st.Events {
		fmt.Printf("  %s  %s\n", ev.LocalTime().Format("15:04"), ev.Kind.Label())
	}

	worked := export.FormatMinutes(st.Totals.WorkedMinutes)
	if st.Totals.Live {
		worked += " (running)"
	}
	fmt.Printf("Worked:   %s\n", worked)
	if st.Totals.OvertimeMinutes > 0 {
		fmt.Printf("Overtime: %s\n", export.FormatMinutes(st.Totals.OvertimeMinutes))
	}
	fmt.Printf("Next:     %s\n", st.NextAction.Label())
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show today's status, refreshing until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		interval, err := cfg.Sync.Interval()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("interval") {
			interval, _ = cmd.Flags().GetDuration("interval")
		}

		a, err := app.NewPunchApp(cfg, "Watch")
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Watch(ctx, interval, func(st *punch.DayStatus) error {
			fmt.Printf("\n[%s]\n", st.Now.Format("15:04:05"))
			printStatus(st)
			return nil
		})
	},
}

// timesheet command
var timesheetCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Show a month of days with worked, overtime and deficit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Timesheet")
		if err != nil {
			return err
		}
		defer a.Close()

		month, err := monthFlag(cmd, a)
		if err != nil {
			return err
		}
		ts, err := a.Timesheet(month)
		if err != nil {
			return err
		}
		return export.Render(os.Stdout, ts, export.Markdown)
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a monthly timesheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		rawFormat, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(rawFormat)
		if err != nil {
			return err
		}
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		toVault, _ := cmd.Flags().GetBool("vault")

		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		month, err := monthFlag(cmd, a)
		if err != nil {
			return err
		}

		name, err := a.Export(app.ExportOptions{
			Month:   month,
			Format:  format,
			Encrypt: encrypt,
			ToVault: toVault,
		}, os.Stdout)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if toVault {
			fmt.Printf("Stored %s in vault\n", name)
		}
		return nil
	},
}

var exportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exports stored in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListExports")
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.ListExports()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No exports stored.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var exportDecryptCmd = &cobra.Command{
	Use:   "decrypt NAME",
	Short: "Decrypt an export stored in the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DecryptExport")
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		return a.DecryptExport(args[0], pass, os.Stdout)
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import punches queued offline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Import(args[0])
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("Imported %d punch(es), skipped %d duplicate(s)\n", res.Imported, res.Duplicates)
		for _, r := range res.Rejected {
			fmt.Printf("Rejected: %v\n", r)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-12s  %s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configVaultCmd)

	// export subcommands
	exportCmd.AddCommand(exportListCmd)
	exportCmd.AddCommand(exportDecryptCmd)
	exportCmd.Flags().String("month", "", "Month to export as YYYY-MM (default: current month)")
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv, json or md")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt the export with the configured age key")
	exportCmd.Flags().Bool("vault", false, "Store the export in the vault instead of printing it")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(clockCmd)
	clockCmd.Flags().String("location", "", "Location label to attach to the punch")
	clockCmd.Flags().Float64("accuracy", 0, "Location accuracy in meters")
	clockCmd.Flags().String("source", "", "Location source: gps, network or external")
	clockCmd.Flags().Bool("offline", false, "Mark the punch as captured without connectivity")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("interval", config.DefaultPollInterval, "Refresh interval")
	rootCmd.AddCommand(timesheetCmd)
	timesheetCmd.Flags().String("month", "", "Month to show as YYYY-MM (default: current month)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}

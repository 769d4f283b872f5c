package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teamcal/internal/app"
	"teamcal/internal/config"
	"teamcal/internal/db"
	"teamcal/internal/domain"
	"teamcal/internal/engine"
	"teamcal/internal/migrate"
	"teamcal/internal/repo"
	"teamcal/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "tc",
	Short: "Teamcal CLI",
	Long: `Teamcal resolves team availability into a shared calendar.
Core concepts:
- Workspace: your .teamcal directory holding the database; configs live in the DB and are imported explicitly.
- Company: owns employees, config, and the event log.
- Employees: each carries a location (country, region, city) that decides which holidays apply to them.
- Holidays: imported from feeds or files, deduplicated on (date, name), scoped national/regional/local.
- Activities: vacation, absence, HLD, guard, training, other; single day or a date range; guards derive hours from shift times.
- Calendar: 'tc calendar show' renders the month grid with per-day codes and per-employee totals.
- Event log: diary of changes, view with 'tc log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TEAMCAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("company", "", "company id (overrides config default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("company", rootCmd.PersistentFlags().Lookup("company"))
}

func registerCommands() {
	rootCmd.AddCommand(companyCmd())
	rootCmd.AddCommand(employeeCmd())
	rootCmd.AddCommand(holidayCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func companyCmd() *cobra.Command {
	c := &cobra.Command{Use: "company", Short: "Manage companies"}
	c.AddCommand(companyInitCmd())
	c.AddCommand(companyListCmd())
	c.AddCommand(companyShowCmd())
	c.AddCommand(companyUseCmd())
	c.AddCommand(companyConfigCmd())
	return c
}

func companyInitCmd() *cobra.Command {
	var id, name, country string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg := config.Default(id)
			if country != "" {
				cfg.Company.Country = country
			}
			e := engine.New(conn, cfg)
			c, err := e.InitCompany(cmd.Context(), id, name, country, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printJSONOrTable(c)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "company id")
	cmd.Flags().StringVar(&name, "name", "", "company name")
	cmd.Flags().StringVar(&country, "country", "", "home country")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func companyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListCompanies(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func companyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := viper.GetString("company")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if target == "" {
					target = e.Config.Company.ID
				}
				c, err := e.Repo.GetCompany(ctx, target)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func companyUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Set current company for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID := strings.TrimSpace(args[0])
			if companyID == "" {
				return fmt.Errorf("company id is required")
			}
			workspace := viper.GetString("workspace")
			if err := setEnvValue(filepath.Join(workspace, ".env"), "TEAMCAL_COMPANY", companyID); err != nil {
				return err
			}
			fmt.Printf("Set TEAMCAL_COMPANY=%s in %s/.env\n", companyID, workspace)
			return nil
		},
	}
	return cmd
}

func companyConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage company config",
	}
	cfg.AddCommand(companyConfigShowCmd())
	cfg.AddCommand(companyConfigImportCmd())
	cfg.AddCommand(companyConfigValidateCmd())
	return cfg
}

func companyConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show company config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func companyConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import company config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			cfg, err := config.FromYAML(data)
			if err != nil {
				return err
			}
			companyID := cfg.Company.ID
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if companyID == "" {
					companyID = e.Config.Company.ID
				}
				if err := e.Repo.UpsertCompanyConfig(ctx, companyID, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func companyConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func employeeCmd() *cobra.Command {
	emp := &cobra.Command{
		Use:   "employee",
		Short: "Manage employees",
		Long:  "Employees carry a location (country, region, city). The location decides which imported holidays land on their calendar row.",
	}
	emp.AddCommand(employeeAddCmd())
	emp.AddCommand(employeeListCmd())
	emp.AddCommand(employeeGetCmd())
	emp.AddCommand(employeeUpdateCmd())
	emp.AddCommand(employeeRmCmd())
	return emp
}

func employeeAddCmd() *cobra.Command {
	var opts engine.EmployeeCreateOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if opts.CompanyID == "" {
					opts.CompanyID = e.Config.Company.ID
				}
				emp, err := e.CreateEmployee(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "employee id (optional, deterministic UUID if omitted)")
	cmd.Flags().StringVar(&opts.CompanyID, "company", "", "company id")
	cmd.Flags().StringVar(&opts.Name, "name", "", "full name")
	cmd.Flags().StringVar(&opts.Team, "team", "", "team")
	cmd.Flags().StringVar(&opts.Country, "country", "", "country (name or ISO code)")
	cmd.Flags().StringVar(&opts.Region, "region", "", "region")
	cmd.Flags().StringVar(&opts.City, "city", "", "city")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("country")
	return cmd
}

func employeeListCmd() *cobra.Command {
	var f repo.EmployeeFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if f.CompanyID == "" {
					f.CompanyID = e.Config.Company.ID
				}
				items, err := e.Repo.ListEmployees(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Team", "Country", "Region", "City"})
				for _, emp := range items {
					tw.AppendRow(table.Row{emp.ID, emp.Name, emp.Team, emp.Country, emp.Region, emp.City})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.CompanyID, "company", "", "company id")
	cmd.Flags().StringVar(&f.Team, "team", "", "team filter")
	return cmd
}

func employeeGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				emp, err := e.Repo.GetEmployee(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	return cmd
}

func employeeUpdateCmd() *cobra.Command {
	var name, team, country, region, city string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			opts := engine.EmployeeUpdateOptions{ActorID: viper.GetString("actor-id")}
			if cmd.Flags().Changed("name") {
				opts.Name = &name
			}
			if cmd.Flags().Changed("team") {
				opts.Team = &team
			}
			if cmd.Flags().Changed("country") {
				opts.Country = &country
			}
			if cmd.Flags().Changed("region") {
				opts.Region = &region
			}
			if cmd.Flags().Changed("city") {
				opts.City = &city
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				emp, err := e.UpdateEmployee(ctx, id, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(emp)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&team, "team", "", "team (empty clears)")
	cmd.Flags().StringVar(&country, "country", "", "country")
	cmd.Flags().StringVar(&region, "region", "", "region (empty clears)")
	cmd.Flags().StringVar(&city, "city", "", "city (empty clears)")
	return cmd
}

func employeeRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.DeleteEmployee(ctx, id)
			})
		},
	}
	return cmd
}

func holidayCmd() *cobra.Command {
	h := &cobra.Command{
		Use:   "holiday",
		Short: "Manage holidays",
		Long:  "Holidays come from feed files or configured remote feeds. Imports skip any (date, name) pair already stored, so re-importing is harmless.",
	}
	h.AddCommand(holidayImportCmd())
	h.AddCommand(holidayListCmd())
	h.AddCommand(holidayRmCmd())
	return h
}

func holidayImportCmd() *cobra.Command {
	var filePath, source string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import holidays from a JSON feed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			var list []domain.Holiday
			if err := json.Unmarshal(data, &list); err != nil {
				return fmt.Errorf("parse %s: %w", filePath, err)
			}
			if source == "" {
				source = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.ImportHolidays(ctx, e.Config.Company.ID, source, viper.GetString("actor-id"), list)
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to JSON holiday list")
	cmd.Flags().StringVar(&source, "source", "", "source label (defaults to file name)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func holidayListCmd() *cobra.Command {
	var f repo.HolidayFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored holidays",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListHolidays(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Date", "Name", "Country", "Scope", "Region", "City", "Source"})
				for _, h := range items {
					tw.AppendRow(table.Row{h.Date, h.Name, h.Country, h.Scope, h.Region, h.City, h.Source})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&f.Year, "year", 0, "year filter")
	cmd.Flags().StringVar(&f.Country, "country", "", "country filter")
	cmd.Flags().StringVar(&f.Scope, "scope", "", "scope filter (national, regional, local)")
	cmd.Flags().StringVar(&f.Source, "source", "", "source filter")
	return cmd
}

func holidayRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove holiday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteHoliday(ctx, id)
			})
		},
	}
	return cmd
}

func activityCmd() *cobra.Command {
	a := &cobra.Command{
		Use:   "activity",
		Short: "Manage calendar entries",
		Long:  "Activities mark what an employee does on a day or range: vacation (V), absence (A), HLD, guard (G), training (F), other (C). Guard entries derive hours from --start-time/--end-time.",
	}
	a.AddCommand(activityAddCmd())
	a.AddCommand(activityListCmd())
	a.AddCommand(activityRmCmd())
	return a
}

func activityAddCmd() *cobra.Command {
	var opts engine.ActivityCreateOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a calendar entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CreateActivity(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "activity id (optional)")
	cmd.Flags().StringVar(&opts.EmployeeID, "employee", "", "employee id")
	cmd.Flags().StringVar(&opts.Type, "type", "", "activity type or code letter")
	cmd.Flags().StringVar(&opts.Date, "date", "", "single date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.StartDate, "start", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.EndDate, "end", "", "range end (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&opts.Hours, "hours", 0, "hours (required for hld and training)")
	cmd.Flags().StringVar(&opts.StartTime, "start-time", "", "guard shift start (HH:MM)")
	cmd.Flags().StringVar(&opts.EndTime, "end-time", "", "guard shift end (HH:MM)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func activityListCmd() *cobra.Command {
	var f repo.ActivityFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListActivities(ctx, f)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&f.EmployeeID, "employee", "", "employee filter")
	cmd.Flags().StringVar(&f.Type, "type", "", "type filter")
	return cmd
}

func activityRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteActivity(ctx, id, viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func calendarCmd() *cobra.Command {
	cal := &cobra.Command{Use: "calendar", Short: "Calendar views"}
	cal.AddCommand(calendarShowCmd())
	return cal
}

func calendarShowCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the month grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 || month == 0 {
				now := time.Now()
				if year == 0 {
					year = now.Year()
				}
				if month == 0 {
					month = int(now.Month())
				}
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				view, err := e.MonthView(ctx, e.Config.Company.ID, year, time.Month(month))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				renderMonthView(view)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (defaults to current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (defaults to current)")
	return cmd
}

func renderMonthView(view engine.MonthView) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	header := table.Row{"Employee"}
	for _, d := range view.Days {
		header = append(header, fmt.Sprintf("%d", d.Number))
	}
	header = append(header, "Vac", "Abs", "Hours")
	tw.AppendHeader(header)
	for _, row := range view.Rows {
		tr := table.Row{row.Employee.Name}
		for _, cell := range row.Cells {
			mark := cell.Code
			if mark == "" && cell.Holiday {
				mark = "*"
			}
			tr = append(tr, mark)
		}
		hours := row.Hours.Guard + row.Hours.HLD + row.Hours.Training
		tr = append(tr, row.Totals.VacationDays, row.Totals.AbsenceDays, fmt.Sprintf("%.1f", hours))
		tw.AppendRow(tr)
	}
	tw.Render()
	if len(view.Holidays) > 0 {
		fmt.Println("Holidays:")
		for _, h := range view.Holidays {
			scope := h.Scope
			if scope == "" {
				scope = h.Type
			}
			fmt.Printf("  %s  %s (%s)\n", h.Date, h.Name, scope)
		}
	}
}

func summaryCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "summary <employee-id>",
		Short: "Yearly totals for an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if year == 0 {
				year = time.Now().Year()
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				sum, err := e.YearSummary(ctx, id, year)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sum)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Month", "Vacation", "Absence", "HLD h", "Guard h", "Training h"})
				for _, m := range sum.Months {
					tw.AppendRow(table.Row{
						time.Month(m.Month).String(),
						m.Totals.VacationDays,
						m.Totals.AbsenceDays,
						m.Hours.HLD,
						m.Hours.Guard,
						m.Hours.Training,
					})
				}
				tw.AppendFooter(table.Row{
					"Total",
					sum.Totals.VacationDays,
					sum.Totals.AbsenceDays,
					sum.Hours.HLD,
					sum.Hours.Guard,
					sum.Hours.Training,
				})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (defaults to current)")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: company setup, employee changes, imports, and calendar entries.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, e.Config.Company.ID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyListCmd())
	k.AddCommand(apikeyRmCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var name, actor string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create API key (prints the key once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor == "" {
				actor = viper.GetString("actor-id")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				raw := uuid.NewString() + uuid.NewString()
				key := domain.APIKey{
					ID:      uuid.NewString(),
					ActorID: actor,
					Name:    name,
					KeyHash: repo.HashAPIKey(raw),
				}
				if err := r.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				return printJSONOrTable(map[string]string{
					"id":       key.ID,
					"actor_id": key.ActorID,
					"name":     key.Name,
					"key":      raw,
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	cmd.Flags().StringVar(&actor, "actor", "", "actor the key authenticates as (defaults to --actor-id)")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(keys)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "actor filter")
	return cmd
}

func apikeyRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, id)
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveCompanyAndConfig(cmd.Context(), viper.GetString("company"), viper.GetString("actor-id"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("TEAMCAL_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("TEAMCAL_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Teamcal API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveCompanyAndConfig(ctx, viper.GetString("company"), viper.GetString("actor-id"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	return fn(ctx, r)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

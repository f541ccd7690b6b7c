package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/Strob0t/MissionControl/internal/adapter/postgres"
	"github.com/Strob0t/MissionControl/internal/config"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/port/database"
	"github.com/Strob0t/MissionControl/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "migrate":
		return runAdminMigrate(args[1:])
	case "rollback":
		return runAdminRollback(args[1:])
	case "version":
		return runAdminVersion(args[1:])
	case "seed":
		return runAdminSeed(args[1:])
	case "list-agents":
		return runAdminListAgents(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: missioncontrol admin <command> [options]

Commands:
  migrate       Apply pending PostgreSQL migrations
  rollback      Roll back PostgreSQL migrations
  version       Print the current PostgreSQL schema version
  seed          Insert the demo roster and tasks into an empty database
  list-agents   List registered agents
  help          Show this help message

Examples:
  missioncontrol admin migrate
  missioncontrol admin rollback --steps 2
  missioncontrol admin seed
  missioncontrol admin list-agents
`)
}

// loadAdminStore opens the configured store. SQLite stores are migrated on
// open; PostgreSQL stores are migrated as well so seed works on a fresh
// database.
func loadAdminStore(ctx context.Context) (database.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return openStore(ctx, cfg)
}

func postgresDSN() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return "", errors.New("schema commands apply to the postgres driver only; sqlite migrates on open")
	}
	return cfg.Postgres.DSN, nil
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	dsn, err := postgresDSN()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	v, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Migrations applied, schema version %d\n", v)
	return nil
}

func runAdminRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 1 {
		return errors.New("--steps must be >= 1")
	}
	dsn, err := postgresDSN()
	if err != nil {
		return err
	}

	if !*yes {
		ok, err := confirm(fmt.Sprintf("Roll back %d migration(s)? Data in dropped tables is lost. [y/N] ", *steps))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	ctx := context.Background()
	if err := postgres.RollbackMigrations(ctx, dsn, *steps); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	v, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Rolled back %d migration(s), schema version %d\n", *steps, v)
	return nil
}

func runAdminVersion(args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	dsn, err := postgresDSN()
	if err != nil {
		return err
	}
	v, err := postgres.MigrationVersion(context.Background(), dsn)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Println(v)
	return nil
}

func runAdminSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, cleanup, err := loadAdminStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// No hub or queue: seeding happens before anyone is listening.
	res, err := service.NewSeedService(store, service.NewPublisher(nil, nil, nil, nil)).Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "%s seeded %d agents and %d tasks\n", color.GreenString("✓"), res.Agents, res.Tasks)
	return nil
}

func runAdminListAgents(args []string) error {
	fs := flag.NewFlagSet("list-agents", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, cleanup, err := loadAdminStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	agents, err := service.NewAgentService(store, service.NewPublisher(nil, nil, nil, nil), agent.DefaultStaleAfter).List(ctx)
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}
	if len(agents) == 0 {
		fmt.Println("No agents found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSTALE\tLAST_HEARTBEAT")
	for i := range agents {
		_, _ = fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
			agents[i].ID, agents[i].Emoji, agents[i].Name, statusColor(agents[i].Status), staleColor(agents[i].Stale),
			agents[i].LastHeartbeat.Format(time.RFC3339))
	}
	return w.Flush()
}

// Every cell gets an escape sequence of the same length so tabwriter
// columns stay aligned.
func statusColor(s agent.Status) string {
	switch s {
	case agent.StatusActive:
		return color.GreenString(string(s))
	case agent.StatusBusy:
		return color.YellowString(string(s))
	case agent.StatusError:
		return color.RedString(string(s))
	default:
		return color.WhiteString(string(s))
	}
}

func staleColor(stale bool) string {
	if stale {
		return color.RedString("yes")
	}
	return color.GreenString("no")
}

// confirm asks a yes/no question on the terminal. Without a terminal it
// refuses, so scripts must pass --yes explicitly.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in int
		return false, errors.New("stdin is not a terminal; pass --yes to confirm")
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Command menuctl prints and edits a dashboard's sidebar menu through the
// REST API.
//
//	menuctl [-api URL] [-user NAME] [-password PASS] -dashboard ID [-state FILE] [-cache-ttl D] <command> [flags]
//
// Commands: tree, nav, add, rm, seed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"admin-dashboard/apiclient"
	"admin-dashboard/cache"
	"admin-dashboard/config"
	"admin-dashboard/menutree"
	"admin-dashboard/navstate"
	"admin-dashboard/services"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: menuctl [flags] tree|nav|add|rm|seed [command flags]")
	flag.PrintDefaults()
}

func main() {
	// LoadConfig's missing .env notice is noise for a CLI.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	config.LoadConfig()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	opts := defaultOptions()
	flag.StringVar(&opts.api, "api", opts.api, "API base URL including the route prefix")
	flag.StringVar(&opts.user, "user", opts.user, "login username")
	flag.StringVar(&opts.password, "password", opts.password, "login password")
	flag.StringVar(&opts.dashboardID, "dashboard", opts.dashboardID, "dashboard id")
	flag.StringVar(&opts.statePath, "state", opts.statePath, "SQLite file keeping the last navigation per dashboard")
	flag.DurationVar(&opts.cacheTTL, "cache-ttl", opts.cacheTTL, "how long a fetched menu is reused")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 || opts.dashboardID == "" {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, opts, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "menuctl:", err)
		os.Exit(1)
	}
}

type options struct {
	api         string
	user        string
	password    string
	dashboardID string
	statePath   string
	cacheTTL    time.Duration
}

// defaultOptions reads the MENUCTL_* variables and falls back to the server's
// own settings, so a local server on APP_PORT works without flags.
func defaultOptions() options {
	return options{
		api:         env("MENUCTL_API", "http://localhost:"+config.APP_PORT+config.MAIN_ROUTES),
		user:        env("MENUCTL_USER", "admin"),
		password:    env("MENUCTL_PASSWORD", ""),
		dashboardID: env("MENUCTL_DASHBOARD", ""),
		statePath:   env("MENUCTL_STATE", ""),
		cacheTTL:    config.MenuCacheTTL,
	}
}

func run(ctx context.Context, out io.Writer, opts options, args []string) error {
	client := apiclient.New(opts.api)

	var store navstate.SnapshotStore
	if opts.statePath != "" {
		s, err := navstate.OpenSQLiteSnapshotStore(opts.statePath)
		if err != nil {
			return fmt.Errorf("open state: %w", err)
		}
		defer s.Close()
		store = s
	}
	provider := navstate.NewProvider(client, cache.NewMenuCache(opts.cacheTTL), store)

	cmd, rest := args[0], args[1:]
	if opts.password != "" {
		if _, err := client.Login(ctx, opts.user, opts.password); err != nil {
			if cmd == "nav" && store != nil {
				return printSnapshot(ctx, out, provider, opts.dashboardID, err)
			}
			return fmt.Errorf("login: %w", err)
		}
	}

	switch cmd {
	case "tree":
		if err := provider.Select(ctx, opts.dashboardID); err != nil {
			return err
		}
		printTree(out, provider.View().Tree, 0)
		return nil

	case "nav":
		if err := provider.Select(ctx, opts.dashboardID); err != nil {
			if store == nil {
				return err
			}
			return printSnapshot(ctx, out, provider, opts.dashboardID, err)
		}
		printNav(out, provider.View().Nav)
		return nil

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		title := fs.String("title", "", "item title")
		parent := fs.String("parent", "", "parent item id (empty for a root)")
		order := fs.Int("order", -1, "position among siblings (default: last)")
		icon := fs.String("icon", "", "icon name")
		href := fs.String("href", "", "link target")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if strings.TrimSpace(*title) == "" {
			return errors.New("add: -title is required")
		}
		in := services.CreateMenuItemInput{Title: *title, Icon: *icon, Href: *href}
		if *parent != "" {
			in.ParentID = parent
		}
		if *order >= 0 {
			in.OrderIndex = order
		}
		if err := provider.Select(ctx, opts.dashboardID); err != nil {
			return err
		}
		item, err := provider.AddItem(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", item.ID)
		printTree(out, provider.View().Tree, 0)
		return nil

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ContinueOnError)
		id := fs.String("id", "", "item id")
		cascade := fs.Bool("cascade", false, "delete the whole subtree instead of promoting children")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("rm: -id is required")
		}
		if err := provider.Select(ctx, opts.dashboardID); err != nil {
			return err
		}
		result, err := provider.DeleteItem(ctx, *id, *cascade)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s, promoted %d\n", strings.Join(result.Deleted, ", "), result.Promoted)
		printTree(out, provider.View().Tree, 0)
		return nil

	case "seed":
		item, err := client.SeedDefaults(ctx, opts.dashboardID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", item.Title, item.ID)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func printTree(w io.Writer, nodes []*menutree.Node, depth int) {
	for _, n := range nodes {
		line := fmt.Sprintf("%s- %s", strings.Repeat("  ", depth), n.Title)
		if n.URL.Href != "" {
			line += " " + n.URL.Href
		}
		if !n.IsActive {
			line += " (inactive)"
		}
		fmt.Fprintf(w, "%s  [%s]\n", line, n.ID)
		printTree(w, n.Children, depth+1)
	}
}

func printNav(w io.Writer, nav menutree.NavMainData) {
	for _, g := range nav.NavMain {
		fmt.Fprintf(w, "%s (%s)\n", g.Title, g.URL)
		for _, link := range g.Items {
			fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", link.Level-1), link.Title, link.URL)
		}
	}
}

// printSnapshot falls back to the stored navigation when the API is unreachable.
func printSnapshot(ctx context.Context, w io.Writer, provider *navstate.Provider, dashboardID string, cause error) error {
	nav, savedAt, ok, err := provider.Snapshot(ctx, dashboardID)
	if err != nil {
		return err
	}
	if !ok {
		return cause
	}
	slog.Warn("showing saved navigation", "dashboard_id", dashboardID, "saved_at", savedAt.Format(time.RFC3339), "error", cause)
	printNav(w, nav)
	return nil
}

// Command taskdeck is a small CLI front end over the client engine. It
// is intentionally plain: each subcommand starts a session, runs one
// engine operation, prints, and exits; watch stays up and streams
// what's-new notifications.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/taskdeck/taskdeck/internal/app"
	"github.com/taskdeck/taskdeck/internal/credential"
	"github.com/taskdeck/taskdeck/internal/filter"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/status"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(args, *configPath, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: taskdeck [flags] <command> [args]

commands:
  login                 store the API token in the system keyring
  assignments [-all]    show my assignments grouped by project
  projects              list projects
  tasks <project-id>    list a project's tasks (supports filter flags)
  file <task-id> <subtask-id>
                        download a subtask's referenced file to the current directory
  watch                 stream what's-new notifications until interrupted

flags:
`)
	flag.PrintDefaults()
}

func run(args []string, configPath string, logger *slog.Logger) error {
	cmd, rest := args[0], args[1:]

	if cmd == "login" {
		return runLogin()
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url not set in %s", configPath)
	}

	sess, err := app.NewSession(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	if err := sess.Start(ctx); err != nil {
		return err
	}
	if sess.Offline() {
		fmt.Fprintln(os.Stderr, "(offline: showing cached data)")
	}

	switch cmd {
	case "assignments":
		return runAssignments(ctx, sess, rest)
	case "projects":
		return runProjects(sess)
	case "tasks":
		return runTasks(ctx, sess, rest)
	case "file":
		return runFile(ctx, sess, rest)
	case "watch":
		return runWatch(sess)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// runLogin reads a token from stdin and stores it in the keyring. Tokens
// never pass through argv, which would leak into shell history and ps.
func runLogin() error {
	fmt.Fprint(os.Stderr, "API token: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if err := credential.Set(credential.KeyAPIToken, token); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "token stored")
	return nil
}

func runAssignments(ctx context.Context, sess *app.Session, args []string) error {
	fs := flag.NewFlagSet("assignments", flag.ExitOnError)
	showCompleted := fs.Bool("all", false, "include completed tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	groups, err := sess.Assignments(ctx, *showCompleted)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("nothing assigned to you")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	now := time.Now()
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t(%d pending, %d in progress, %d elapsed, %d subtasks)\n",
			g.Project.Name,
			g.PendingCount, g.InProgressCount, g.ElapsedCount, g.TotalSubtaskCount)
		for _, t := range g.Tasks {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				t.ID, t.Title, status.Effective(t.Task, now), formatDue(t.DueDate))
			for _, sub := range t.Subtasks {
				fmt.Fprintf(w, "    -\t%s\t[%s]\n", sub.Question, sub.Type)
			}
		}
	}
	return w.Flush()
}

func runProjects(sess *app.Session) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, p := range sess.Projects() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Description)
	}
	return w.Flush()
}

func runTasks(ctx context.Context, sess *app.Session, args []string) error {
	fs := flag.NewFlagSet("tasks", flag.ExitOnError)
	search := fs.String("search", "", "substring match on title/description/status")
	assignment := fs.String("assignment", filter.ScopeAll, "all|assigned|unassigned")
	statuses := fs.String("status", "", "comma-separated status filter")
	priorities := fs.String("priority", "", "comma-separated priority filter")
	overdue := fs.Bool("overdue", false, "only overdue tasks")
	withSubtasks := fs.Bool("subtasks", false, "only tasks with subtasks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: taskdeck tasks [flags] <project-id>")
	}

	if err := sess.SelectProject(ctx, fs.Arg(0)); err != nil {
		return err
	}

	f := filter.Filters{
		Search:          *search,
		Assignment:      *assignment,
		Status:          splitList(*statuses),
		Priority:        splitList(*priorities),
		OverdueOnly:     *overdue,
		RequireSubtasks: *withSubtasks,
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE\tASSIGNEE")
	for _, t := range sess.Tasks(f, now) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, status.Effective(t, now), t.Priority,
			formatDue(t.DueDate), t.AssignedTo)
	}
	return w.Flush()
}

func runFile(ctx context.Context, sess *app.Session, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: taskdeck file <task-id> <subtask-id>")
	}
	taskID, subtaskID := args[0], args[1]

	full, err := sess.Client().GetTaskFull(ctx, taskID)
	if err != nil {
		return err
	}

	var sub *model.Subtask
	for i := range full.Subtasks {
		if full.Subtasks[i].ID == subtaskID {
			sub = &full.Subtasks[i]
			break
		}
	}
	if sub == nil {
		return fmt.Errorf("subtask %s not found on task %s", subtaskID, taskID)
	}

	file, err := sess.ResolveFile(ctx, *sub)
	if err != nil {
		return err
	}

	if err := os.WriteFile(file.Name, file.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", file.Name, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", file.Name, len(file.Data))
	return nil
}

func runWatch(sess *app.Session) error {
	if sess.Offline() {
		return fmt.Errorf("server unreachable; cannot watch for updates")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Fprintln(os.Stderr, "watching for updates (ctrl-c to stop)")
	sess.Poller().Refresh()

	for {
		select {
		case u := <-sess.Poller().Updates():
			if u.Err != nil {
				fmt.Fprintln(os.Stderr, "poll failed:", u.Err)
				continue
			}
			for _, msg := range u.Messages {
				fmt.Printf("%s  %s\n", msg.CreatedAt.Local().Format("15:04"), msg.Message)
			}
		case <-sigCh:
			return nil
		}
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

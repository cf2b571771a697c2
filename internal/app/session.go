// Package app wires the engine together for a front end: config,
// credentials, the API client, the local cache, the sync guards for the
// active project and task, the assignment aggregator, and the what's-new
// poller. A view layer (terminal, desktop, tests) drives a Session and
// reads its accessors; the Session owns no rendering.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/assignments"
	"github.com/taskdeck/taskdeck/internal/attachment"
	"github.com/taskdeck/taskdeck/internal/credential"
	"github.com/taskdeck/taskdeck/internal/filter"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/notify"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/syncguard"
)

// Session is the long-lived application state shared by all views.
type Session struct {
	cfg    *model.AppConfig
	client *api.Client
	store  store.Store
	logger *slog.Logger
	poller *notify.Poller

	taskGuard    *syncguard.Guard[[]model.Task]
	subtaskGuard *syncguard.Guard[[]model.Subtask]

	mu           sync.Mutex
	user         *model.User
	projects     []model.Project
	tasks        []model.Task
	subtasks     []model.Subtask
	offline      bool
	unauthorized bool
}

// NewSession builds a session from configuration. The API token is read
// from the OS keyring; a missing token is an error because every server
// operation requires one. logger may be nil.
func NewSession(cfg *model.AppConfig, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	token, err := credential.Get(credential.KeyAPIToken)
	if err != nil {
		return nil, fmt.Errorf("reading API token from keyring (run login first): %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", cfg.Cache.Path, err)
	}

	sess := &Session{
		cfg:    cfg,
		store:  s,
		logger: logger,
	}

	sess.client = api.NewClient(cfg.Server.BaseURL, token, sess.handleUnauthorized)

	sess.taskGuard = syncguard.New(
		func(projectID string, tasks []model.Task) {
			sess.mu.Lock()
			sess.tasks = tasks
			sess.mu.Unlock()
		},
		func() {
			sess.mu.Lock()
			sess.tasks = nil
			sess.mu.Unlock()
		},
	)
	sess.subtaskGuard = syncguard.New(
		func(taskID string, subs []model.Subtask) {
			sess.mu.Lock()
			sess.subtasks = subs
			sess.mu.Unlock()
		},
		func() {
			sess.mu.Lock()
			sess.subtasks = nil
			sess.mu.Unlock()
		},
	)

	interval := time.Duration(cfg.Sync.PollIntervalSec) * time.Second
	sess.poller = notify.New(sess.client, s, interval, logger)

	return sess, nil
}

// handleUnauthorized is the process-wide logout signal, invoked by the
// API client on any 401-class response.
func (s *Session) handleUnauthorized() {
	s.mu.Lock()
	s.unauthorized = true
	s.mu.Unlock()
	s.logger.Warn("server rejected credentials; session requires re-login")
}

// Unauthorized reports whether any request hit a 401 since startup.
func (s *Session) Unauthorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unauthorized
}

// Offline reports whether the last refresh fell back to cached data.
func (s *Session) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// Start resolves the configured username against the server's user list
// and loads the project list. When the server is unreachable it falls
// back to the cache so previously fetched data stays readable; an auth
// failure is never masked by the fallback.
func (s *Session) Start(ctx context.Context) error {
	users, err := s.client.ListUsers(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			return err
		}
		s.logger.Warn("server unreachable, using cached data", "error", err)
		return s.startFromCache(ctx)
	}

	if err := s.store.ReplaceUsers(ctx, users); err != nil {
		return fmt.Errorf("caching users: %w", err)
	}

	user := findUser(users, s.cfg.Server.Username)
	if user == nil {
		return fmt.Errorf("user %q not found on server", s.cfg.Server.Username)
	}

	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}
	if err := s.store.ReplaceProjects(ctx, projects); err != nil {
		return fmt.Errorf("caching projects: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.projects = projects
	s.offline = false
	s.mu.Unlock()

	s.poller.Start()
	return nil
}

// startFromCache loads user and projects from the local cache.
func (s *Session) startFromCache(ctx context.Context) error {
	user, err := s.store.GetUserByUsername(ctx, s.cfg.Server.Username)
	if err != nil {
		return fmt.Errorf("reading cached user: %w", err)
	}
	if user == nil {
		return fmt.Errorf(
			"user %q not in cache; first run requires a reachable server",
			s.cfg.Server.Username,
		)
	}

	projects, err := s.store.GetProjects(ctx)
	if err != nil {
		return fmt.Errorf("reading cached projects: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.projects = projects
	s.offline = true
	s.mu.Unlock()
	return nil
}

// User returns the resolved current user. Nil before Start succeeds.
func (s *Session) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Projects returns the project list from the last refresh.
func (s *Session) Projects() []model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects
}

// Tasks returns the active project's tasks, optionally filtered.
func (s *Session) Tasks(f filter.Filters, now time.Time) []model.Task {
	s.mu.Lock()
	tasks := s.tasks
	userID := ""
	if s.user != nil {
		userID = s.user.ID
	}
	s.mu.Unlock()
	return filter.Apply(tasks, f, userID, now)
}

// Subtasks returns the active task's subtasks.
func (s *Session) Subtasks() []model.Subtask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtasks
}

// SelectProject makes projectID the active project and loads its tasks
// through the task guard, so a stale response from a previously selected
// project can never overwrite the current one. The active task selection
// is cleared alongside. An empty projectID clears the task list.
func (s *Session) SelectProject(ctx context.Context, projectID string) error {
	// Changing project invalidates the subtask pane regardless of what
	// the task fetch does.
	if err := s.subtaskGuard.Load(ctx, "", nil); err != nil {
		return err
	}

	return s.taskGuard.Load(ctx, projectID, func(ctx context.Context) ([]model.Task, error) {
		tasks, err := s.client.ListTasks(ctx, projectID)
		if err != nil {
			if api.IsAuthError(err) {
				return nil, err
			}
			cached, cacheErr := s.store.GetProjectTasks(ctx, projectID)
			if cacheErr != nil || len(cached) == 0 {
				return nil, err
			}
			s.logger.Warn("task fetch failed, serving cache",
				"project_id", projectID, "error", err)
			return cached, nil
		}
		if err := s.store.ReplaceProjectTasks(ctx, projectID, tasks); err != nil {
			s.logger.Warn("caching tasks failed", "project_id", projectID, "error", err)
		}
		return tasks, nil
	})
}

// SelectTask makes taskID the active task and loads its subtasks through
// the subtask guard. An empty taskID clears the subtask list.
func (s *Session) SelectTask(ctx context.Context, taskID string) error {
	return s.subtaskGuard.Load(ctx, taskID, func(ctx context.Context) ([]model.Subtask, error) {
		subs, err := s.client.ListSubtasks(ctx, taskID)
		if err != nil {
			if api.IsAuthError(err) {
				return nil, err
			}
			cached, cacheErr := s.store.GetTaskSubtasks(ctx, taskID)
			if cacheErr != nil || len(cached) == 0 {
				return nil, err
			}
			return cached, nil
		}
		if err := s.store.ReplaceTaskSubtasks(ctx, taskID, subs); err != nil {
			s.logger.Warn("caching subtasks failed", "task_id", taskID, "error", err)
		}
		return subs, nil
	})
}

// TaskGuard exposes the task guard's observable state for the view.
func (s *Session) TaskGuard() syncguard.Snapshot { return s.taskGuard.Snapshot() }

// SubtaskGuard exposes the subtask guard's observable state.
func (s *Session) SubtaskGuard() syncguard.Snapshot { return s.subtaskGuard.Snapshot() }

// Assignments builds the "my assignments" view for the current user
// across all projects. In offline mode tasks and subtasks come from the
// cache; online they are fetched fresh and cached as a side effect.
func (s *Session) Assignments(
	ctx context.Context,
	showCompleted bool,
) ([]assignments.ProjectGroup, error) {
	s.mu.Lock()
	user := s.user
	projects := s.projects
	offline := s.offline
	s.mu.Unlock()

	if user == nil {
		return nil, fmt.Errorf("session not started")
	}

	var allTasks []model.Task
	for _, p := range projects {
		tasks, err := s.listTasks(ctx, p.ID, offline)
		if err != nil {
			if api.IsAuthError(err) {
				return nil, err
			}
			s.logger.Warn("skipping project in assignments",
				"project_id", p.ID, "error", err)
			continue
		}
		allTasks = append(allTasks, tasks...)
	}

	fetch := func(ctx context.Context, taskID string) ([]model.Subtask, error) {
		if offline {
			return s.store.GetTaskSubtasks(ctx, taskID)
		}
		subs, err := s.client.ListSubtasks(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if err := s.store.ReplaceTaskSubtasks(ctx, taskID, subs); err != nil {
			s.logger.Warn("caching subtasks failed", "task_id", taskID, "error", err)
		}
		return subs, nil
	}

	return assignments.Build(ctx, assignments.Input{
		Projects:      projects,
		Tasks:         allTasks,
		FetchSubtasks: fetch,
		UserID:        user.ID,
		ShowCompleted: showCompleted,
		Now:           time.Now(),
		Logger:        s.logger,
	})
}

// listTasks fetches one project's tasks, caching on success.
func (s *Session) listTasks(
	ctx context.Context,
	projectID string,
	offline bool,
) ([]model.Task, error) {
	if offline {
		return s.store.GetProjectTasks(ctx, projectID)
	}
	tasks, err := s.client.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceProjectTasks(ctx, projectID, tasks); err != nil {
		s.logger.Warn("caching tasks failed", "project_id", projectID, "error", err)
	}
	return tasks, nil
}

// ResolveFile fetches the supporting material behind a subtask's file
// reference. On-disk references resolve under the configured attachments
// directory; emailed references require mailbox settings in the config
// and the IMAP password in the keyring.
func (s *Session) ResolveFile(
	ctx context.Context,
	sub model.Subtask,
) (*attachment.File, error) {
	var mail *attachment.MailFetcher
	if mb := s.cfg.Attachments.Mailbox; mb.Host != "" {
		password, err := credential.Get(credential.KeyIMAPPassword)
		if err != nil {
			return nil, fmt.Errorf("reading IMAP password from keyring: %w", err)
		}
		mail = attachment.NewMailFetcher(
			mb.Host, mb.Port, mb.Username, password, mb.Mailbox, mb.TLS,
		)
	}
	return attachment.NewResolver(s.cfg.Attachments.Dir, mail).Resolve(ctx, sub)
}

// Client exposes the API client for direct mutations (create, answer,
// transition). Mutating views call it and then re-select to refresh.
func (s *Session) Client() *api.Client { return s.client }

// Store exposes the local cache, read-only use expected.
func (s *Session) Store() store.Store { return s.store }

// Poller exposes the what's-new poller for update subscriptions.
func (s *Session) Poller() *notify.Poller { return s.poller }

// Close stops the poller and closes the cache.
func (s *Session) Close() error {
	s.poller.Stop()
	return s.store.Close()
}

// findUser matches by username, which the server keeps unique.
func findUser(users []model.User, username string) *model.User {
	for i := range users {
		if users[i].Username == username {
			return &users[i]
		}
	}
	return nil
}

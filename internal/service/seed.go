package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/task"
	"github.com/Strob0t/MissionControl/internal/port/database"
)

// SeedResult reports what Seed inserted.
type SeedResult struct {
	Agents int `json:"agents"`
	Tasks  int `json:"tasks"`
}

type seedAgent struct {
	name, emoji  string
	status       agent.Status
	model        string
	sessionKey   string
	capabilities []string
}

var seedAgents = []seedAgent{
	{"BagBot", "💼", agent.StatusActive, "claude-opus-4-5", "agent:main:main",
		[]string{"system_management", "file_operations", "windows_commands", "browser_automation"}},
	{"MacBag", "🧠", agent.StatusIdle, "claude-sonnet-4", "agent:macbag:main",
		[]string{"creative_tasks", "macos_commands", "research", "imessage_relay"}},
	{"WinBag", "🪟", agent.StatusIdle, "", "agent:winbag:main",
		[]string{"virtualization", "testing", "windows_dev"}},
	{"Jarvis", "🤖", agent.StatusIdle, "claude-opus-4-5", "agent:jarvis:main",
		[]string{"coordination", "delegation", "monitoring", "task_management"}},
	{"Friday", "💻", agent.StatusIdle, "claude-sonnet-4", "agent:developer:main",
		[]string{"coding", "debugging", "code_review", "testing"}},
	{"Fury", "🔍", agent.StatusIdle, "claude-sonnet-4", "agent:researcher:main",
		[]string{"research", "analysis", "competitive_intel", "data_gathering"}},
}

type seedTask struct {
	title, description string
	status             task.Status
	priority           task.Priority
	tags               []string
	age                time.Duration
}

var seedTasks = []seedTask{
	{"Build Mission Control v2",
		"Upgrade Mission Control with 5-column Kanban, @mentions, agent heartbeats, and OpenClaw integration",
		task.StatusDone, task.PriorityUrgent, []string{"engineering", "priority"}, time.Hour},
	{"Deploy to test.theaicouncil.io",
		"Set up Railway deployment for Mission Control and configure subdomain",
		task.StatusInProgress, task.PriorityHigh, []string{"devops", "deployment"}, 0},
	{"Integrate Council agents",
		"Import the 57 specialist agents from The Council into Mission Control as assignable agents",
		task.StatusInbox, task.PriorityMedium, []string{"integration", "agents"}, 0},
	{"Add daily standup cron",
		"Create a cron job that compiles agent activity into a daily standup summary sent to Telegram",
		task.StatusInbox, task.PriorityMedium, []string{"automation", "reporting"}, 0},
}

// SeedService loads the demo roster and board into an empty store.
type SeedService struct {
	store database.Store
	pub   *Publisher
	now   func() time.Time
}

// NewSeedService creates a new SeedService.
func NewSeedService(store database.Store, pub *Publisher) *SeedService {
	return &SeedService{store: store, pub: pub, now: utcNow}
}

// Seed inserts the default agents, sample tasks and a system activity. It
// fails with domain.ErrInvalidState when any agent already exists.
func (s *SeedService) Seed(ctx context.Context) (*SeedResult, error) {
	now := s.now()
	rec := &recorder{now: s.now}
	err := s.store.InTx(ctx, func(tx database.Store) error {
		n, err := tx.CountAgents(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("database already seeded: %w", domain.ErrInvalidState)
		}

		for _, sa := range seedAgents {
			a := &agent.Agent{
				ID:            uuid.NewString(),
				Name:          sa.name,
				Emoji:         sa.emoji,
				Status:        sa.status,
				Capabilities:  sa.capabilities,
				SessionKey:    strPtr(sa.sessionKey),
				LastHeartbeat: now,
				CreatedAt:     now,
			}
			if sa.model != "" {
				a.CurrentModel = strPtr(sa.model)
			}
			if err := tx.CreateAgent(ctx, a); err != nil {
				return err
			}
		}

		for _, st := range seedTasks {
			t := &task.Task{
				ID:          uuid.NewString(),
				Title:       st.title,
				Description: st.description,
				Status:      st.status,
				Priority:    st.priority,
				Tags:        st.tags,
				CreatedAt:   now.Add(-st.age),
				UpdatedAt:   now,
			}
			if err := tx.CreateTask(ctx, t); err != nil {
				return err
			}
		}

		return rec.record(ctx, tx, activity.New(activity.TypeSystem,
			fmt.Sprintf("🚀 BagBros Mission Control v2 initialized with %d agents. Let's secure some bags!", len(seedAgents)),
			nil, nil))
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "store seeded", "agents", len(seedAgents), "tasks", len(seedTasks))
	s.pub.Activities(ctx, rec.written...)
	s.pub.InvalidateBoard(ctx)
	return &SeedResult{Agents: len(seedAgents), Tasks: len(seedTasks)}, nil
}

func strPtr(s string) *string { return &s }

package services

import (
	"sort"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/monocle-dev/taskboard/db"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(sqlite.Open(":memory:"), false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every new connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.MigrateDatabase(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type refreshCall struct {
	userIDs []uint
	taskID  uint
	reason  string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []refreshCall
}

func (n *recordingNotifier) NotifyRefresh(userIDs []uint, taskID uint, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := append([]uint(nil), userIDs...)
	n.calls = append(n.calls, refreshCall{userIDs: ids, taskID: taskID, reason: reason})
}

func (n *recordingNotifier) last(t *testing.T) refreshCall {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		t.Fatalf("expected a refresh notification")
	}
	return n.calls[len(n.calls)-1]
}

type fixture struct {
	db       *gorm.DB
	tasks    *TaskService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := newTestDB(t)
	logger, _ := test.NewNullLogger()
	notifier := &recordingNotifier{}
	return &fixture{
		db:       conn,
		tasks:    NewTaskService(conn, logger, notifier, nil),
		notifier: notifier,
	}
}

// createUser inserts directly to keep bcrypt out of task tests.
func (f *fixture) createUser(t *testing.T, name, email string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, PasswordHash: "x"}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func (f *fixture) visibleTaskIDs(t *testing.T, userID uint) []uint {
	t.Helper()
	var ids []uint
	if err := f.db.Model(&models.TaskVisibility{}).Where("user_id = ?", userID).Order("task_id").Pluck("task_id", &ids).Error; err != nil {
		t.Fatalf("visible tasks: %v", err)
	}
	return ids
}

func (f *fixture) boardMembers(t *testing.T, taskID uint) []uint {
	t.Helper()
	var ids []uint
	if err := f.db.Model(&models.TaskBoardMember{}).Where("task_id = ?", taskID).Order("user_id").Pluck("user_id", &ids).Error; err != nil {
		t.Fatalf("board members: %v", err)
	}
	return ids
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortedIDs(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(a, b []uint) bool {
	a, b = sortedIDs(a), sortedIDs(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"elderly_care_monitor/internal/domain/mail"
	"elderly_care_monitor/internal/domain/reminder"
	"elderly_care_monitor/internal/domain/safety"
	"elderly_care_monitor/internal/domain/user"
	"elderly_care_monitor/internal/domain/vitals"
	idb "elderly_care_monitor/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeReminderRepo struct {
	mu        sync.Mutex
	nextID    int64
	reminders map[int64]*reminder.Reminder
	users     map[string]*user.User
	listErr   error
	markErr   error
	bulk      [][]*reminder.Reminder
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{reminders: map[int64]*reminder.Reminder{}, users: map[string]*user.User{}}
}

func (f *fakeReminderRepo) Create(_ context.Context, r *reminder.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	cp := *r
	f.reminders[r.ID] = &cp
	return nil
}

func (f *fakeReminderRepo) BulkCreate(ctx context.Context, rs []*reminder.Reminder) error {
	f.mu.Lock()
	f.bulk = append(f.bulk, rs)
	f.mu.Unlock()
	for _, r := range rs {
		if err := f.Create(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeReminderRepo) GetByID(_ context.Context, id int64) (*reminder.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return nil, idb.ErrReminderNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReminderRepo) ListPending(_ context.Context) ([]*reminder.Pending, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*reminder.Pending
	for _, r := range f.reminders {
		if r.Sent {
			continue
		}
		p := &reminder.Pending{Reminder: *r}
		if u, ok := f.users[r.UserID]; ok {
			p.Email = u.Email
			p.CaregiverChat = u.CaregiverChatID
			p.UserFullName = sql.NullString{String: u.FullName, Valid: u.FullName != ""}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReminderRepo) ListRecent(_ context.Context, limit int) ([]*reminder.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*reminder.Reminder
	for id := f.nextID; id > 0 && len(out) < limit; id-- {
		if r, ok := f.reminders[id]; ok {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) MarkSent(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	r, ok := f.reminders[id]
	if !ok || r.Sent {
		return false, nil
	}
	r.Sent = true
	r.SentAt = sql.NullTime{Time: time.Now(), Valid: true}
	return true, nil
}

func (f *fakeReminderRepo) Acknowledge(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok || !r.Sent || r.Acknowledged {
		return false, nil
	}
	r.Acknowledged = true
	return true, nil
}

func (f *fakeReminderRepo) sent(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reminders[id].Sent
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type chatMessage struct {
	ChatID  int64
	Text    string
	Options *telebot.SendOptions
}

type fakeChat struct {
	mu   sync.Mutex
	sent []chatMessage
	err  error
}

func (f *fakeChat) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, chatMessage{ChatID: chatID, Text: text, Options: options})
	return nil
}

func (f *fakeChat) messages() []chatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chatMessage(nil), f.sent...)
}

type fakeUserRepo struct {
	users     map[string]*user.User
	getErr    error
	createErr error
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[string]*user.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[u.ID]; ok {
		return idb.ErrDuplicateUser
	}
	u.CreatedAt = time.Now()
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) SetCaregiverChat(_ context.Context, id string, chatID sql.NullInt64) error {
	u, ok := f.users[id]
	if !ok {
		return idb.ErrUserNotFound
	}
	u.CaregiverChatID = chatID
	return nil
}

func (f *fakeUserRepo) ListAll(_ context.Context) ([]*user.User, error) {
	var out []*user.User
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeVitalsRepo struct {
	records  []*vitals.Record
	counts   []vitals.AlertCount
	since    time.Time
	countErr error
}

func (f *fakeVitalsRepo) Create(_ context.Context, rec *vitals.Record) error {
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeVitalsRepo) ListRecent(_ context.Context, limit int) ([]*vitals.Record, error) {
	if len(f.records) < limit {
		limit = len(f.records)
	}
	return f.records[len(f.records)-limit:], nil
}

func (f *fakeVitalsRepo) CountAlertsByUser(_ context.Context, since time.Time, _ []string) ([]vitals.AlertCount, error) {
	f.since = since
	return f.counts, f.countErr
}

type fakeSafetyRepo struct {
	records  []*safety.Record
	counts   []safety.AlertCount
	since    time.Time
	err      error
	countErr error
}

func (f *fakeSafetyRepo) Create(_ context.Context, rec *safety.Record) error {
	if f.err != nil {
		return f.err
	}
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeSafetyRepo) ListRecent(_ context.Context, limit int) ([]*safety.Record, error) {
	if len(f.records) < limit {
		limit = len(f.records)
	}
	return f.records[len(f.records)-limit:], nil
}

func (f *fakeSafetyRepo) CountAlertsByUser(_ context.Context, since time.Time) ([]safety.AlertCount, error) {
	f.since = since
	return f.counts, f.countErr
}

type fakeLLM struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

var errBoom = errors.New("boom")

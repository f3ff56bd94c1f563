package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"elderly_care_monitor/internal/app"
	"elderly_care_monitor/internal/domain/reminder"
	"elderly_care_monitor/internal/domain/safety"
	"elderly_care_monitor/internal/domain/summary"
	"elderly_care_monitor/internal/domain/user"
	"elderly_care_monitor/internal/domain/vitals"
	idb "elderly_care_monitor/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

// fakeContext implements the parts of telebot.Context the handlers use.
type fakeContext struct {
	telebot.Context
	args      []string
	sender    *telebot.User
	message   *telebot.Message
	callback  *telebot.Callback
	sent      []string
	responses []string
	edited    []string
}

func newCommand(args ...string) *fakeContext {
	return &fakeContext{args: args, sender: &telebot.User{ID: 100, FirstName: "Grace"}, message: &telebot.Message{}}
}

func (f *fakeContext) Args() []string        { return f.args }
func (f *fakeContext) Sender() *telebot.User { return f.sender }
func (f *fakeContext) Message() *telebot.Message {
	return f.message
}
func (f *fakeContext) Callback() *telebot.Callback { return f.callback }
func (f *fakeContext) Text() string                { return strings.Join(f.args, " ") }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, fmt.Sprint(what))
	return nil
}

func (f *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	f.edited = append(f.edited, fmt.Sprint(what))
	return nil
}

func (f *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	for _, r := range resp {
		f.responses = append(f.responses, r.Text)
	}
	return nil
}

func (f *fakeContext) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeUsers struct {
	registered []*user.User
	err        error
}

func (f *fakeUsers) RegisterUser(_ context.Context, id, fullName, email string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := &user.User{ID: id, FullName: fullName}
	if email != "-" {
		u.Email = sql.NullString{String: email, Valid: true}
	}
	f.registered = append(f.registered, u)
	return u, nil
}

func (f *fakeUsers) SetCaregiverChat(_ context.Context, id, chat string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := &user.User{ID: id}
	if chat != "-" {
		var v int64
		fmt.Sscan(chat, &v)
		u.CaregiverChatID = sql.NullInt64{Int64: v, Valid: true}
	}
	return u, nil
}

func (f *fakeUsers) ListUsers(context.Context) ([]*user.User, error) { return f.registered, f.err }

type fakeReminders struct {
	added    []string
	imported []*reminder.Reminder
	recent   []*reminder.Reminder
	ackErr   error
	err      error
}

func (f *fakeReminders) AddReminder(_ context.Context, userID, typ, at string) (*reminder.Reminder, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, userID+"|"+typ+"|"+at)
	return &reminder.Reminder{ID: 7, UserID: userID, Type: reminder.Type(typ), ScheduledTime: at}, nil
}

func (f *fakeReminders) ImportReminders(_ context.Context, rs []*reminder.Reminder) error {
	f.imported = append(f.imported, rs...)
	return f.err
}

func (f *fakeReminders) RecentReminders(context.Context, int) ([]*reminder.Reminder, error) {
	return f.recent, f.err
}

func (f *fakeReminders) AcknowledgeReminder(_ context.Context, id int64) (*reminder.Reminder, error) {
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return &reminder.Reminder{ID: id, UserID: "D1000", Sent: true, Acknowledged: true}, nil
}

type fakeMonitor struct {
	readings []vitals.Reading
	events   []safety.Event
	err      error
}

func (f *fakeMonitor) RecordVitals(_ context.Context, r vitals.Reading) (*vitals.Record, error) {
	f.readings = append(f.readings, r)
	return &vitals.Record{ID: int64(len(f.readings)), Reading: r, Flags: vitals.Evaluate(r)}, nil
}

func (f *fakeMonitor) RecordSafetyEvent(_ context.Context, ev safety.Event) (*safety.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.events = append(f.events, ev)
	return &safety.Record{ID: int64(len(f.events)), Event: ev, Flags: safety.Evaluate(ev)}, nil
}

func (f *fakeMonitor) RecentVitals(context.Context, int) ([]*vitals.Record, error) {
	var out []*vitals.Record
	for i, r := range f.readings {
		out = append(out, &vitals.Record{ID: int64(i + 1), Reading: r, Flags: vitals.Evaluate(r)})
	}
	return out, nil
}

func (f *fakeMonitor) RecentSafetyEvents(context.Context, int) ([]*safety.Record, error) {
	var out []*safety.Record
	for i, ev := range f.events {
		out = append(out, &safety.Record{ID: int64(i + 1), Event: ev, Flags: safety.Evaluate(ev)})
	}
	return out, nil
}

type fakeSummaries struct {
	got   summary.Summary
	since time.Time
	err   error
}

func (f *fakeSummaries) Summarize(_ context.Context, s summary.Summary) (*app.SummaryReport, error) {
	f.got = s
	return &app.SummaryReport{Summary: s}, f.err
}

func (f *fakeSummaries) SummarizeStore(_ context.Context, since time.Time) (*app.SummaryReport, error) {
	f.since = since
	return &app.SummaryReport{Summary: summary.Summary{Source: "store"}, Suggestions: "Walk daily."}, f.err
}

type botFixture struct {
	bot       *CaregiverBot
	users     *fakeUsers
	reminders *fakeReminders
	monitor   *fakeMonitor
	summaries *fakeSummaries
}

func newFixture() *botFixture {
	l := logrus.New()
	l.SetOutput(io.Discard)
	f := &botFixture{
		users:     &fakeUsers{},
		reminders: &fakeReminders{},
		monitor:   &fakeMonitor{},
		summaries: &fakeSummaries{},
	}
	f.bot = NewCaregiverBot(context.Background(), f.users, f.reminders, f.monitor, f.summaries, logrus.NewEntry(l))
	f.bot.now = func() time.Time { return time.Date(2024, 5, 2, 20, 0, 0, 0, time.UTC) }
	return f
}

func TestRestrictMiddleware(t *testing.T) {
	f := newFixture()
	called := false
	next := func(telebot.Context) error { called = true; return nil }
	handler := f.bot.restrict(100)(next)

	require.NoError(t, handler(newCommand()))
	assert.True(t, called)

	called = false
	stranger := newCommand()
	stranger.sender = &telebot.User{ID: 999}
	require.NoError(t, handler(stranger))
	assert.False(t, called)
	assert.Equal(t, unauthorizedText, stranger.last())

	cb := newCommand()
	cb.sender = &telebot.User{ID: 999}
	cb.callback = &telebot.Callback{Data: "1"}
	require.NoError(t, handler(cb))
	assert.Equal(t, []string{unauthorizedText}, cb.responses)
}

func TestRestrictMiddleware_RoutesEachCommand(t *testing.T) {
	f := newFixture()
	b, err := telebot.NewBot(telebot.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)

	var ran []string
	b.Use(f.bot.restrict(100))
	b.Handle("/start", func(telebot.Context) error { ran = append(ran, "start"); return nil })
	b.Handle("/help", func(telebot.Context) error { ran = append(ran, "help"); return nil })
	b.Handle("/users", func(telebot.Context) error { ran = append(ran, "users"); return nil })

	caregiver := &telebot.User{ID: 100}
	for i, text := range []string{"/start", "/help", "/users", "/help"} {
		b.ProcessUpdate(telebot.Update{
			ID:      i + 1,
			Message: &telebot.Message{ID: i + 1, Text: text, Sender: caregiver, Chat: &telebot.Chat{ID: 100}},
		})
	}
	assert.Equal(t, []string{"start", "help", "users", "help"}, ran)
}

func TestHandleStartAndHelp(t *testing.T) {
	f := newFixture()
	c := newCommand()
	require.NoError(t, f.bot.handleStart(c))
	assert.Contains(t, c.last(), "Grace")

	require.NoError(t, f.bot.handleHelp(c))
	assert.Contains(t, c.last(), "/vitals")
	assert.Contains(t, c.last(), "Exercise|Hydration|Appointment|Medication")
}

func TestHandleAddUser(t *testing.T) {
	f := newFixture()

	c := newCommand("D1000", "ada@example.com", "Ada", "Lovelace")
	require.NoError(t, f.bot.handleAddUser(c))
	assert.Equal(t, "User Ada Lovelace (D1000) added.", c.last())

	c = newCommand("D1001", "-")
	require.NoError(t, f.bot.handleAddUser(c))
	assert.Contains(t, c.last(), "No email on file")

	c = newCommand("D1002")
	require.NoError(t, f.bot.handleAddUser(c))
	assert.Contains(t, c.last(), "Invalid format")

	f.users.err = fmt.Errorf("%w: invalid email", app.ErrInvalidUser)
	c = newCommand("D1003", "nope")
	require.NoError(t, f.bot.handleAddUser(c))
	assert.Equal(t, "Error: invalid user: invalid email", c.last())

	f.users.err = app.ErrUserAlreadyExists
	c = newCommand("D1000", "-")
	require.NoError(t, f.bot.handleAddUser(c))
	assert.Equal(t, "Error: user D1000 already exists.", c.last())
}

func TestHandleSetChat(t *testing.T) {
	f := newFixture()

	c := newCommand("D1000", "4242")
	require.NoError(t, f.bot.handleSetChat(c))
	assert.Equal(t, "Alerts for D1000 now go to chat 4242.", c.last())

	c = newCommand("D1000", "-")
	require.NoError(t, f.bot.handleSetChat(c))
	assert.Equal(t, "Alerts for D1000 go to the default caregiver chat.", c.last())

	c = newCommand("D1000")
	require.NoError(t, f.bot.handleSetChat(c))
	assert.Contains(t, c.last(), "Invalid format")

	f.users.err = fmt.Errorf("failed to set caregiver chat: %w", idb.ErrUserNotFound)
	c = newCommand("D9", "12")
	require.NoError(t, f.bot.handleSetChat(c))
	assert.Equal(t, "Error: user D9 not found.", c.last())

	f.users.err = fmt.Errorf("%w: invalid chat ID \"x\"", app.ErrInvalidUser)
	c = newCommand("D1000", "x")
	require.NoError(t, f.bot.handleSetChat(c))
	assert.Contains(t, c.last(), "invalid chat ID")
}

func TestHandleListUsers(t *testing.T) {
	f := newFixture()
	c := newCommand()
	require.NoError(t, f.bot.handleListUsers(c))
	assert.Contains(t, c.last(), "No users registered")

	f.users.registered = []*user.User{
		{ID: "D1000", FullName: "Ada", Email: sql.NullString{String: "a@b.c", Valid: true}},
		{ID: "D1001", CaregiverChatID: sql.NullInt64{Int64: 55, Valid: true}},
	}
	require.NoError(t, f.bot.handleListUsers(c))
	assert.Contains(t, c.last(), "ID: D1000, Name: Ada, Email: a@b.c\n")
	assert.Contains(t, c.last(), "ID: D1001, Name: -, Email: -, Chat: 55\n")
}

func TestHandleRemind(t *testing.T) {
	f := newFixture()

	c := newCommand("D1000", "Medication", "2024-05-03", "08:00")
	require.NoError(t, f.bot.handleRemind(c))
	assert.Equal(t, []string{"D1000|Medication|2024-05-03 08:00"}, f.reminders.added)
	assert.Contains(t, c.last(), "Reminder #7 added")

	c = newCommand("D1000", "Medication")
	require.NoError(t, f.bot.handleRemind(c))
	assert.Contains(t, c.last(), "Invalid format")

	f.reminders.err = fmt.Errorf("%w: unknown reminder type", app.ErrInvalidReminder)
	c = newCommand("D1000", "Nap", "08:00")
	require.NoError(t, f.bot.handleRemind(c))
	assert.Contains(t, c.last(), "unknown reminder type")
}

func TestHandleListReminders(t *testing.T) {
	f := newFixture()
	f.reminders.recent = []*reminder.Reminder{
		{ID: 2, UserID: "D1000", Type: reminder.TypeHydration, ScheduledTime: "10:00:00"},
		{ID: 1, UserID: "D1000", Type: reminder.TypeMedication, ScheduledTime: "08:00:00", Sent: true, Acknowledged: true},
	}
	c := newCommand()
	require.NoError(t, f.bot.handleListReminders(c))
	assert.Contains(t, c.last(), "#2 D1000: Hydration at 10:00:00 (pending)")
	assert.Contains(t, c.last(), "#1 D1000: Medication at 08:00:00 (acknowledged)")
}

func TestHandleAcknowledge(t *testing.T) {
	f := newFixture()

	c := newCommand()
	c.callback = &telebot.Callback{Data: "12"}
	c.message = &telebot.Message{Text: "⏰ Medication reminder for D1000 is due at 09:00."}
	require.NoError(t, f.bot.handleAcknowledge(c))
	assert.Equal(t, []string{"Acknowledged!"}, c.responses)
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.edited[0], "✅ Acknowledged")

	for _, tc := range []struct {
		data string
		err  error
		want string
	}{
		{data: "x", want: "Invalid reminder."},
		{data: "12", err: app.ErrNothingToAcknowledge, want: "Already acknowledged."},
		{data: "13", err: idb.ErrReminderNotFound, want: "Reminder not found."},
		{data: "14", err: errors.New("db down"), want: "An error occurred."},
	} {
		f.reminders.ackErr = tc.err
		c := newCommand()
		c.callback = &telebot.Callback{Data: tc.data}
		require.NoError(t, f.bot.handleAcknowledge(c))
		assert.Equal(t, []string{tc.want}, c.responses, tc.data)
		assert.Empty(t, c.edited)
	}
}

func TestHandleVitals(t *testing.T) {
	f := newFixture()

	c := newCommand("D1000", "120", "130/85", "100", "97%")
	require.NoError(t, f.bot.handleVitals(c))
	assert.Equal(t, "Reading #1 stored. 🚨 Alert: heart rate out of range.", c.last())
	require.Len(t, f.monitor.readings, 1)
	assert.Equal(t, vitals.BloodPressure{Systolic: 130, Diastolic: 85}, f.monitor.readings[0].BloodPressure)

	c = newCommand("D1000", "72", "120/80", "100", "97")
	require.NoError(t, f.bot.handleVitals(c))
	assert.Contains(t, c.last(), "within range")

	c = newCommand("D1000", "72", "120-80", "100", "97")
	require.NoError(t, f.bot.handleVitals(c))
	assert.Contains(t, c.last(), "expected SYS/DIA")

	c = newCommand("D1000", "72")
	require.NoError(t, f.bot.handleVitals(c))
	assert.Equal(t, vitalsUsage, c.last())

	require.NoError(t, f.bot.handleListVitals(c))
	assert.Contains(t, c.last(), "HR 120, BP 130/85")
	assert.Contains(t, c.last(), "🚨 heart rate")
}

func TestHandleSafety(t *testing.T) {
	f := newFixture()

	c := newCommand("D1000", "lying", "yes", "high", "300", "living_room")
	require.NoError(t, f.bot.handleSafety(c))
	assert.Contains(t, c.last(), "caregiver alerted")
	require.Len(t, f.monitor.events, 1)
	assert.Equal(t, safety.Event{
		UserID:             "D1000",
		Movement:           safety.MovementLying,
		FallDetected:       true,
		ImpactForce:        safety.ImpactHigh,
		InactivityDuration: 300,
		Location:           safety.LocationLivingRoom,
	}, f.monitor.events[0])

	c = newCommand("D1000", "No_Movement", "no", "-", "500s", "Bedroom")
	require.NoError(t, f.bot.handleSafety(c))
	assert.Equal(t, "Event #2 stored. No alert.", c.last())

	c = newCommand("D1000", "walking", "maybe", "-", "0", "Kitchen")
	require.NoError(t, f.bot.handleSafety(c))
	assert.Contains(t, c.last(), "fall must be yes or no")

	f.monitor.err = fmt.Errorf("%w: %w", app.ErrInvalidEvent, safety.ErrImpactWithoutFall)
	c = newCommand("D1000", "walking", "no", "low", "0", "Kitchen")
	require.NoError(t, f.bot.handleSafety(c))
	assert.Contains(t, c.last(), "impact force is only recorded")

	require.NoError(t, f.bot.handleListEvents(c))
	assert.Contains(t, c.last(), "Lying in Living Room, fall (High impact), inactive 300s (🚨 alert)")
}

func TestHandleSummary(t *testing.T) {
	f := newFixture()
	c := newCommand()
	require.NoError(t, f.bot.handleSummary(c))
	assert.Equal(t, time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), f.summaries.since)
	assert.Contains(t, c.last(), "Walk daily.")

	f.summaries.err = errors.New("model offline")
	require.NoError(t, f.bot.handleSummary(c))
	assert.Contains(t, c.last(), "Care suggestions are unavailable")

	f.summaries.err = app.ErrLLMDisabled
	require.NoError(t, f.bot.handleSummary(c))
	assert.NotContains(t, c.last(), "unavailable")
}

func documentContext(name, content string) (*fakeContext, func(*telebot.File) (io.ReadCloser, error)) {
	c := newCommand()
	c.message = &telebot.Message{Document: &telebot.Document{
		File:     telebot.File{FileID: "f1", FileSize: int64(len(content))},
		FileName: name,
	}}
	fetch := func(*telebot.File) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}
	return c, fetch
}

func TestHandleDocument_HealthExport(t *testing.T) {
	f := newFixture()
	c, fetch := documentContext("health_monitoring.csv",
		"Device-ID/User-ID,Glucose Levels Below/Above Threshold (Yes/No),Alert Triggered (Yes/No)\nD1000,Yes,Yes\nD1001,No,No\n")
	f.bot.fetchFile = fetch
	f.summaries.err = app.ErrLLMDisabled

	require.NoError(t, f.bot.handleDocument(c))
	assert.Equal(t, 2, f.summaries.got.Rows)
	assert.Contains(t, c.last(), "Glucose Levels Below/Above Threshold (Yes/No): 1 alerts")
	assert.Contains(t, c.last(), "D1000: 1")
}

func TestHandleDocument_ReminderExport(t *testing.T) {
	f := newFixture()
	c, fetch := documentContext("daily_reminder.csv",
		"Device-ID/User-ID,Reminder Type,Scheduled Time,Reminder Sent (Yes/No)\nD1000,Exercise,07:00:00,No\nD1001,Nap,08:00:00,No\nD1002,Hydration,09:00:00,Yes\n")
	f.bot.fetchFile = fetch

	require.NoError(t, f.bot.handleDocument(c))
	require.Len(t, f.reminders.imported, 1)
	assert.Equal(t, "D1000", f.reminders.imported[0].UserID)
	assert.Contains(t, c.last(), "Imported 1 pending reminder(s) from daily_reminder.csv.")
	assert.Contains(t, c.last(), "Skipped 1 row(s):\nline 3:")
}

func TestHandleDocument_Rejections(t *testing.T) {
	f := newFixture()

	c, fetch := documentContext("notes.txt", "hello")
	f.bot.fetchFile = fetch
	require.NoError(t, f.bot.handleDocument(c))
	assert.Contains(t, c.last(), "unsupported file format")

	c, _ = documentContext("big.csv", "")
	c.message.Document.FileSize = maxUploadSize + 1
	require.NoError(t, f.bot.handleDocument(c))
	assert.Contains(t, c.last(), "too large")

	c, _ = documentContext("x.csv", "a")
	f.bot.fetchFile = func(*telebot.File) (io.ReadCloser, error) { return nil, errors.New("404") }
	require.NoError(t, f.bot.handleDocument(c))
	assert.Contains(t, c.last(), "downloading")
}

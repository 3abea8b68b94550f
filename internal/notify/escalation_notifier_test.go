package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskcore/sla-engine/internal/config"
	"github.com/deskcore/sla-engine/internal/domain"
	"github.com/deskcore/sla-engine/internal/escalation"
)

type fakeDirectory struct {
	assignee *domain.StaffMember
	getErr   error
	managers []domain.StaffMember
	listErr  error
}

func (d *fakeDirectory) GetByID(context.Context, string) (*domain.StaffMember, error) {
	return d.assignee, d.getErr
}

func (d *fakeDirectory) ListManagers(context.Context) ([]domain.StaffMember, error) {
	return d.managers, d.listErr
}

type capturingSender struct {
	msgs []Message
	err  error
}

func (s *capturingSender) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func notifierUnderTest(directory *fakeDirectory, sender Sender) *EscalationNotifier {
	cfg := config.NotificationConfig{
		EmailFrom:   "sla@example.com",
		FrontendURL: "https://desk.example.com/",
	}
	return NewEscalationNotifier(directory, sender, cfg, zap.NewNop())
}

func assigneeID() *string {
	id := "staff-1"
	return &id
}

func testEvent(level escalation.Level, assigned bool) escalation.Event {
	createdAt := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	ticket := domain.TicketSLAView{
		TicketID:  "t-1",
		Number:    "INC-1001",
		Subject:   "VPN down for branch office",
		Priority:  domain.TicketPriorityP2,
		Status:    domain.TicketStatusNew,
		CreatedAt: createdAt,
	}
	if assigned {
		ticket.AssigneeID = assigneeID()
	}
	return escalation.Event{
		Ticket:         ticket,
		Level:          level,
		Track:          escalation.TrackResponse,
		ElapsedPercent: 80,
		DueAt:          createdAt.Add(time.Hour),
	}
}

func managers() []domain.StaffMember {
	return []domain.StaffMember{
		{ID: "m-1", Name: "Dana", Email: "dana@example.com", Role: domain.StaffRoleManager},
		{ID: "m-2", Name: "Lee", Email: "lee@example.com", Role: domain.StaffRoleManager},
	}
}

func TestNotifyViolationRoutesToAssigneeAndManagers(t *testing.T) {
	directory := &fakeDirectory{
		assignee: &domain.StaffMember{ID: "staff-1", Name: "Sam", Email: "sam@example.com"},
		managers: managers(),
	}
	sender := &capturingSender{}

	err := notifierUnderTest(directory, sender).Notify(context.Background(), testEvent(escalation.LevelViolation, true))
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, []string{"sam@example.com", "dana@example.com", "lee@example.com"}, msg.To)
	assert.Empty(t, msg.Cc)
	assert.Equal(t, "sla@example.com", msg.From)
	assert.Equal(t, "t-1", msg.TicketID)
	assert.Equal(t, "violation", msg.Level)
}

func TestNotifyWarningCopiesManagers(t *testing.T) {
	directory := &fakeDirectory{
		assignee: &domain.StaffMember{ID: "staff-1", Name: "Sam", Email: "sam@example.com"},
		managers: managers(),
	}
	sender := &capturingSender{}

	err := notifierUnderTest(directory, sender).Notify(context.Background(), testEvent(escalation.LevelWarning, true))
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, []string{"sam@example.com"}, msg.To)
	assert.Equal(t, []string{"dana@example.com", "lee@example.com"}, msg.Cc)
}

func TestNotifyUnassignedRoutesToManagers(t *testing.T) {
	directory := &fakeDirectory{managers: managers()}
	sender := &capturingSender{}

	err := notifierUnderTest(directory, sender).Notify(context.Background(), testEvent(escalation.LevelWarning, false))
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, []string{"dana@example.com", "lee@example.com"}, msg.To)
	assert.Empty(t, msg.Cc)
	assert.Contains(t, msg.Body, "unassigned")
}

func TestNotifyAssigneeLookupFailureFallsBackToManagers(t *testing.T) {
	directory := &fakeDirectory{
		getErr:   errors.New("no rows"),
		managers: managers(),
	}
	sender := &capturingSender{}

	err := notifierUnderTest(directory, sender).Notify(context.Background(), testEvent(escalation.LevelWarning, true))
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, []string{"dana@example.com", "lee@example.com"}, sender.msgs[0].To)
}

func TestNotifyManagerListFailure(t *testing.T) {
	directory := &fakeDirectory{listErr: errors.New("database unavailable")}
	sender := &capturingSender{}

	err := notifierUnderTest(directory, sender).Notify(context.Background(), testEvent(escalation.LevelWarning, false))
	require.Error(t, err)
	assert.Empty(t, sender.msgs)
}

func TestNotifyNoRecipients(t *testing.T) {
	directory := &fakeDirectory{}
	sender := &capturingSender{}

	err := notifierUnderTest(directory, sender).Notify(context.Background(), testEvent(escalation.LevelWarning, false))
	require.Error(t, err)
	assert.Empty(t, sender.msgs)
}

func TestNotifyMessageContent(t *testing.T) {
	directory := &fakeDirectory{
		assignee: &domain.StaffMember{ID: "staff-1", Name: "Sam", Email: "sam@example.com"},
		managers: managers(),
	}
	sender := &capturingSender{}

	err := notifierUnderTest(directory, sender).Notify(context.Background(), testEvent(escalation.LevelWarning, true))
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, "[SLA warning] INC-1001 - first response due", msg.Subject)
	assert.Contains(t, msg.Body, "INC-1001")
	assert.Contains(t, msg.Body, "VPN down for branch office")
	assert.Contains(t, msg.Body, "Sam")
	// Trailing slash on the frontend URL is trimmed before the link is built.
	assert.Contains(t, msg.Body, "https://desk.example.com/tickets/t-1")
}

func TestNotifySenderFailurePropagates(t *testing.T) {
	directory := &fakeDirectory{managers: managers()}
	sender := &capturingSender{err: errors.New("webhook returned 502")}

	err := notifierUnderTest(directory, sender).Notify(context.Background(), testEvent(escalation.LevelViolation, false))
	require.Error(t, err)
}

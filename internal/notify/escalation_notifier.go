package notify

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskcore/sla-engine/internal/config"
	"github.com/deskcore/sla-engine/internal/domain"
	"github.com/deskcore/sla-engine/internal/escalation"
)

// StaffDirectory resolves notification recipients.
type StaffDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	ListManagers(ctx context.Context) ([]domain.StaffMember, error)
}

// EscalationNotifier turns escalation events into messages and routes them.
//
// Approaching and warning levels go to the assignee with managers as passive
// copies; a violation goes to the assignee and every manager as primary
// recipients. An unassigned ticket routes to managers directly so the alert
// is never dropped.
type EscalationNotifier struct {
	directory   StaffDirectory
	sender      Sender
	logger      *zap.Logger
	emailFrom   string
	frontendURL string
}

// NewEscalationNotifier builds the notifier.
func NewEscalationNotifier(directory StaffDirectory, sender Sender, cfg config.NotificationConfig, logger *zap.Logger) *EscalationNotifier {
	return &EscalationNotifier{
		directory:   directory,
		sender:      sender,
		logger:      logger,
		emailFrom:   cfg.EmailFrom,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
	}
}

// Notify resolves recipients, renders the message and sends it.
func (n *EscalationNotifier) Notify(ctx context.Context, event escalation.Event) error {
	ticket := event.Ticket

	var assignee *domain.StaffMember
	if ticket.AssigneeID != nil {
		member, err := n.directory.GetByID(ctx, *ticket.AssigneeID)
		if err != nil {
			n.logger.Warn("assignee lookup failed, routing to managers only",
				zap.String("ticket_id", ticket.TicketID),
				zap.Error(err))
		} else {
			assignee = member
		}
	}

	managers, err := n.directory.ListManagers(ctx)
	if err != nil {
		return fmt.Errorf("list managers: %w", err)
	}

	to, cc := n.route(event.Level, assignee, managers)
	if len(to) == 0 {
		return fmt.Errorf("no recipients for ticket %s", ticket.TicketID)
	}

	msg := Message{
		From:     n.emailFrom,
		To:       to,
		Cc:       cc,
		Subject:  n.subject(event),
		Body:     n.body(event, assignee),
		TicketID: ticket.TicketID,
		Level:    string(event.Level),
		Track:    string(event.Track),
	}
	return n.sender.Send(ctx, msg)
}

// route builds recipient lists per level.
func (n *EscalationNotifier) route(level escalation.Level, assignee *domain.StaffMember, managers []domain.StaffMember) (to, cc []string) {
	managerEmails := make([]string, 0, len(managers))
	for _, m := range managers {
		managerEmails = append(managerEmails, m.Email)
	}

	if level == escalation.LevelViolation {
		if assignee != nil {
			to = append(to, assignee.Email)
		}
		to = append(to, managerEmails...)
		return to, nil
	}

	if assignee != nil {
		return []string{assignee.Email}, managerEmails
	}
	return managerEmails, nil
}

func (n *EscalationNotifier) subject(event escalation.Event) string {
	var label string
	switch event.Level {
	case escalation.LevelApproaching:
		label = "SLA deadline approaching"
	case escalation.LevelWarning:
		label = "SLA warning"
	default:
		label = "SLA violation"
	}
	return fmt.Sprintf("[%s] %s - %s due", label, event.Ticket.Number, event.Track.Label())
}

func (n *EscalationNotifier) body(event escalation.Event, assignee *domain.StaffMember) string {
	ticket := event.Ticket

	assigneeName := "unassigned"
	if assignee != nil {
		assigneeName = assignee.Name
	}

	var callToAction string
	switch event.Level {
	case escalation.LevelApproaching:
		remaining := time.Until(event.DueAt).Round(time.Minute)
		if remaining < 0 {
			remaining = 0
		}
		callToAction = fmt.Sprintf("The %s deadline is about %s away.", event.Track.Label(), remaining)
	case escalation.LevelWarning:
		callToAction = fmt.Sprintf("%.0f%% of the %s allowance has been consumed.", event.ElapsedPercent, event.Track.Label())
	default:
		callToAction = fmt.Sprintf("The %s deadline has been exceeded. Immediate action required.", event.Track.Label())
	}

	lines := []string{
		callToAction,
		"",
		fmt.Sprintf("Ticket:    %s", ticket.Number),
		fmt.Sprintf("Subject:   %s", ticket.Subject),
		fmt.Sprintf("Priority:  %s", ticket.Priority),
		fmt.Sprintf("Status:    %s", ticket.Status),
		fmt.Sprintf("Assignee:  %s", assigneeName),
		fmt.Sprintf("Due at:    %s", event.DueAt.Format(time.RFC3339)),
		fmt.Sprintf("Elapsed:   %d%%", int(math.Min(math.Round(event.ElapsedPercent), 999))),
		"",
		fmt.Sprintf("%s/tickets/%s", n.frontendURL, ticket.TicketID),
	}
	return strings.Join(lines, "\n")
}

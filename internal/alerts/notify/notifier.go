package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"text/template"
	"time"

	"predictive-maintenance/internal/alerts/application/events"
	alerts "predictive-maintenance/internal/alerts/domain"
)

const defaultTemplate = `Machine Alert
Machine: {{.MachineID}}
Status: {{.Status}}
Temperature: {{printf "%.2f" .Temperature}} K (avg {{.AvgTemperatureText}})
Vibration: {{printf "%.0f" .Vibration}} RPM (avg {{.AvgVibrationText}})
Reading Time: {{.Timestamp}}`

// Clock provides time. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Notifier forwards anomalous alert records to a channel, rate-limited per
// machine. Normal records are ignored. Delivery failures are logged and
// swallowed: notification is a best-effort boundary concern and must never
// stall the engine.
type Notifier struct {
	channel  Channel
	tpl      *template.Template
	logger   *log.Logger
	clock    Clock
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[int]time.Time
}

// NotifierOption customizes the notifier.
type NotifierOption func(*Notifier)

// WithCooldown sets the minimum interval between notifications per machine.
func WithCooldown(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d >= 0 {
			n.cooldown = d
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) NotifierOption {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) NotifierOption {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier constructs a notifier. templateText empty selects the default.
func NewNotifier(channel Channel, templateText string, opts ...NotifierOption) (*Notifier, error) {
	if channel == nil {
		return nil, errors.New("notifier: nil channel")
	}
	if templateText == "" {
		templateText = defaultTemplate
	}
	tpl, err := template.New("alert").Parse(templateText)
	if err != nil {
		return nil, err
	}
	n := &Notifier{
		channel:  channel,
		tpl:      tpl,
		logger:   log.Default(),
		clock:    systemClock{},
		cooldown: 5 * time.Minute,
		lastSent: make(map[int]time.Time),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// HandleAlertRaised consumes bus events. Wire with eventing.Subscribe.
func (n *Notifier) HandleAlertRaised(ctx context.Context, event events.AlertRaised) error {
	n.Notify(ctx, event.Record)
	return nil
}

// Notify sends one record if it is anomalous and outside the cooldown.
func (n *Notifier) Notify(ctx context.Context, record alerts.Record) {
	if !record.Anomalous() {
		return
	}
	now := n.clock.Now()

	n.mu.Lock()
	if last, ok := n.lastSent[record.MachineID]; ok && n.cooldown > 0 && now.Sub(last) < n.cooldown {
		n.mu.Unlock()
		return
	}
	n.lastSent[record.MachineID] = now
	n.mu.Unlock()

	content, err := n.render(record)
	if err != nil {
		n.logger.Printf("event=notify_render_error machine_id=%d error=%v", record.MachineID, err)
		return
	}
	if err := n.channel.Send(ctx, content); err != nil {
		n.logger.Printf("event=notify_send_error machine_id=%d error=%v", record.MachineID, err)
	}
}

type templateData struct {
	alerts.Record
	AvgTemperatureText string
	AvgVibrationText   string
}

func (n *Notifier) render(record alerts.Record) (string, error) {
	data := templateData{
		Record:             record,
		AvgTemperatureText: "N/A",
		AvgVibrationText:   "N/A",
	}
	if record.AvgTemperature != nil {
		data.AvgTemperatureText = fmt.Sprintf("%.2f", *record.AvgTemperature)
	}
	if record.AvgVibration != nil {
		data.AvgVibrationText = fmt.Sprintf("%.2f", *record.AvgVibration)
	}
	var sb strings.Builder
	if err := n.tpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

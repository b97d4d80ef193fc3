// Package interactive provides the interactive command prompt for
// mixerlink-monitor.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/connection"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/discovery"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/persistence"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/session"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/snapshot"
)

// Monitor handles interactive mode for mixerlink-monitor.
type Monitor struct {
	sess  *session.Session
	store *persistence.Store
	rl    *readline.Instance
}

// New creates a new interactive monitor handler. store may be nil, in
// which case saved snapshots only live in memory for the session.
func New(sess *session.Session, store *persistence.Store) (*Monitor, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mixer> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	m := &Monitor{sess: sess, store: store, rl: rl}

	sess.OnStateChange(func(st connection.State) {
		fmt.Fprintf(m.rl.Stdout(), "connection: %s\n", st)
	})

	return m, nil
}

// Stdout returns a writer that coordinates with the readline input.
func (m *Monitor) Stdout() io.Writer {
	return m.rl.Stdout()
}

// Run starts the interactive command loop.
func (m *Monitor) Run(ctx context.Context, cancel context.CancelFunc) {
	defer m.rl.Close()

	m.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := m.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(m.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			m.printHelp()

		case "discover", "d":
			m.cmdDiscover(ctx)

		case "connect", "c":
			m.cmdConnect(ctx, args)

		case "disconnect":
			m.sess.Disconnect()

		case "status", "s":
			m.cmdStatus()

		case "channels":
			m.cmdChannels()

		case "channel", "ch":
			m.cmdChannel(args)

		case "save":
			m.cmdSave(args)

		case "snapshots", "ls":
			m.cmdSnapshots()

		case "background", "bg":
			m.sess.EnterBackground()

		case "foreground", "fg":
			if err := m.sess.EnterForeground(ctx); err != nil {
				fmt.Fprintf(m.rl.Stdout(), "foreground: %v\n", err)
			}

		case "quit", "exit", "q":
			cancel()
			return

		default:
			fmt.Fprintf(m.rl.Stdout(), "unknown command %q, try 'help'\n", cmd)
		}
	}
}

func (m *Monitor) printHelp() {
	fmt.Fprint(m.rl.Stdout(), `Commands:
  discover                       Find consoles on the local network
  connect <host> <model> [port]  Connect to a console (sq, qu)
  disconnect                     Tear down the connection
  status                         Show connection state and mirror summary
  channels                       List channels with observed state
  channel <n>                    Show one channel in detail
  save <name>                    Freeze the current mirror under a name
  snapshots                      List saved snapshot records
  background / foreground        Suspend and restore the connection
  quit                           Exit
`)
}

func (m *Monitor) cmdDiscover(ctx context.Context) {
	browseCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	browser := discovery.NewBrowser(discovery.BrowserConfig{})
	consoles, err := browser.FindAll(browseCtx)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "discover: %v\n", err)
		return
	}
	if len(consoles) == 0 {
		fmt.Fprintln(m.rl.Stdout(), "no consoles found")
		return
	}
	for _, c := range consoles {
		note := ""
		if !c.Supported() {
			note = " (unsupported)"
		}
		fmt.Fprintf(m.rl.Stdout(), "  %s  model=%s%s  %s:%d\n",
			c.InstanceName, c.Model, note, c.Addr(), c.Port)
	}
}

func (m *Monitor) cmdConnect(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(m.rl.Stdout(), "usage: connect <host> <model> [port]")
		return
	}
	host := args[0]
	model := profile.Model(strings.ToLower(args[1]))

	port := 0
	if len(args) >= 3 {
		p, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(m.rl.Stdout(), "invalid port %q\n", args[2])
			return
		}
		port = p
	}
	if port == 0 {
		prof, err := profile.ForModel(model)
		if err != nil {
			fmt.Fprintf(m.rl.Stdout(), "connect: %v\n", err)
			return
		}
		port = prof.DefaultPort()
	}

	if err := m.sess.Connect(ctx, host, port, model); err != nil {
		fmt.Fprintf(m.rl.Stdout(), "connect: %v\n", err)
	}
}

func (m *Monitor) cmdStatus() {
	fmt.Fprintf(m.rl.Stdout(), "state: %s\n", m.sess.State())
	snap := m.sess.Snapshot()
	if snap == nil {
		fmt.Fprintln(m.rl.Stdout(), "mirror: empty")
		return
	}
	captured := "never"
	if !snap.CapturedAt().IsZero() {
		captured = snap.CapturedAt().Format(time.RFC3339)
	}
	fmt.Fprintf(m.rl.Stdout(), "mirror: model=%s channels=%d captured=%s\n",
		snap.Model(), snap.Len(), captured)
}

func (m *Monitor) cmdChannels() {
	snap := m.sess.Snapshot()
	if snap == nil || snap.Len() == 0 {
		fmt.Fprintln(m.rl.Stdout(), "no channel state observed")
		return
	}
	for _, i := range snap.ChannelIndexes() {
		ch := snap.Channel(i)
		fmt.Fprintf(m.rl.Stdout(), "  ch %2d  %s\n", i+1, channelSummary(ch))
	}
}

func (m *Monitor) cmdChannel(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(m.rl.Stdout(), "usage: channel <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		fmt.Fprintf(m.rl.Stdout(), "invalid channel %q\n", args[0])
		return
	}
	snap := m.sess.Snapshot()
	if snap == nil {
		fmt.Fprintln(m.rl.Stdout(), "no channel state observed")
		return
	}
	ch := snap.Channel(n - 1)
	if ch == nil {
		fmt.Fprintf(m.rl.Stdout(), "no state for channel %d\n", n)
		return
	}
	m.printChannel(n, ch)
}

func (m *Monitor) cmdSave(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(m.rl.Stdout(), "usage: save <name>")
		return
	}
	name := strings.Join(args, " ")
	saved, err := m.sess.SaveCurrentSnapshot(name)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "save: %v\n", err)
		return
	}
	if m.store != nil {
		if err := m.store.Save(saved); err != nil {
			fmt.Fprintf(m.rl.Stdout(), "save: %v\n", err)
			return
		}
	}
	fmt.Fprintf(m.rl.Stdout(), "saved %q id=%s channels=%d\n",
		saved.Name, saved.ID, len(saved.Channels))
}

func (m *Monitor) cmdSnapshots() {
	if m.store == nil {
		fmt.Fprintln(m.rl.Stdout(), "no state directory configured (-state-dir)")
		return
	}
	records, err := m.store.List()
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "snapshots: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(m.rl.Stdout(), "no saved snapshots")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(m.rl.Stdout(), "  %s  %-20s model=%s channels=%d %s\n",
			rec.ID, rec.Name, rec.Model, len(rec.Channels),
			rec.CapturedAt.Format(time.RFC3339))
	}
}

func (m *Monitor) printChannel(n int, ch *snapshot.Channel) {
	out := m.rl.Stdout()
	fmt.Fprintf(out, "channel %d:\n", n)
	if ch.Name != nil {
		fmt.Fprintf(out, "  name:      %s\n", *ch.Name)
	}
	if ch.Gain != nil {
		fmt.Fprintf(out, "  gain:      %.1f dB\n", *ch.Gain)
	}
	if ch.PadEnabled != nil {
		fmt.Fprintf(out, "  pad:       %s\n", onOff(*ch.PadEnabled))
	}
	if ch.PhantomEnabled != nil {
		fmt.Fprintf(out, "  phantom:   %s\n", onOff(*ch.PhantomEnabled))
	}
	if ch.HPFFrequency != nil {
		fmt.Fprintf(out, "  hpf:       %.0f Hz\n", *ch.HPFFrequency)
	}
	if ch.HPFEnabled != nil {
		fmt.Fprintf(out, "  hpf sw:    %s\n", onOff(*ch.HPFEnabled))
	}
	if ch.Fader != nil {
		fmt.Fprintf(out, "  fader:     %.1f dB\n", *ch.Fader)
	}
	if ch.Muted != nil {
		fmt.Fprintf(out, "  mute:      %s\n", onOff(*ch.Muted))
	}
	for i, band := range ch.EQBands {
		if band == nil {
			continue
		}
		fmt.Fprintf(out, "  eq band %d:", i+1)
		if band.Frequency != nil {
			fmt.Fprintf(out, " f=%.0fHz", *band.Frequency)
		}
		if band.Gain != nil {
			fmt.Fprintf(out, " g=%+.1fdB", *band.Gain)
		}
		if band.Q != nil {
			fmt.Fprintf(out, " q=%.2f", *band.Q)
		}
		if band.Enabled != nil {
			fmt.Fprintf(out, " %s", onOff(*band.Enabled))
		}
		fmt.Fprintln(out)
	}
	if ch.CompThreshold != nil {
		fmt.Fprintf(out, "  comp thr:  %.1f dB\n", *ch.CompThreshold)
	}
	if ch.CompRatio != nil {
		fmt.Fprintf(out, "  comp rat:  %s\n", formatRatio(*ch.CompRatio))
	}
	if ch.CompAttack != nil {
		fmt.Fprintf(out, "  comp atk:  %.1f ms\n", *ch.CompAttack)
	}
	if ch.CompRelease != nil {
		fmt.Fprintf(out, "  comp rel:  %.0f ms\n", *ch.CompRelease)
	}
}

func channelSummary(ch *snapshot.Channel) string {
	var parts []string
	if ch.Name != nil {
		parts = append(parts, *ch.Name)
	}
	if ch.Fader != nil {
		parts = append(parts, fmt.Sprintf("fader %.1fdB", *ch.Fader))
	}
	if ch.Muted != nil && *ch.Muted {
		parts = append(parts, "MUTED")
	}
	if len(parts) == 0 {
		return "(partial state)"
	}
	return strings.Join(parts, "  ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatRatio(r float64) string {
	if r > 1e6 {
		return "inf:1"
	}
	return fmt.Sprintf("%.1f:1", r)
}

// Package interactive provides the operator shell of motorlink-ui.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/service"
)

// DefaultTimeout bounds every command sent to the worker.
const DefaultTimeout = 5 * time.Second

// Config configures a Shell.
type Config struct {
	// Timeout bounds each command (default: DefaultTimeout).
	Timeout time.Duration

	// HistoryFile keeps command history across runs (optional).
	HistoryFile string
}

// Shell drives a worker session from the terminal.
type Shell struct {
	remote  *service.Remote
	out     io.Writer
	rl      *readline.Instance
	timeout time.Duration

	samples atomic.Bool
}

// New creates a shell on the terminal. Bind must be called before Run.
func New(cfg Config) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "motorlink> ",
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s := newShell(rl.Stdout(), cfg.Timeout)
	s.rl = rl
	return s, nil
}

func newShell(out io.Writer, timeout time.Duration) *Shell {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &Shell{
		out:     out,
		timeout: timeout,
	}
	s.samples.Store(true)
	return s
}

// Bind attaches the shell to a worker and subscribes to its events.
func (s *Shell) Bind(remote *service.Remote) {
	s.remote = remote
	remote.OnEvent(s.handleEvent)
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("connect"),
		readline.PcItem("disconnect"),
		readline.PcItem("status"),
		readline.PcItem("ping"),
		readline.PcItem("signals"),
		readline.PcItem("heartbeat",
			readline.PcItem("on"),
			readline.PcItem("set"),
			readline.PcItem("off"),
		),
		readline.PcItem("telemetry",
			readline.PcItem("start"),
			readline.PcItem("add"),
			readline.PcItem("remove"),
			readline.PcItem("stop"),
		),
		readline.PcItem("samples",
			readline.PcItem("on"),
			readline.PcItem("off"),
		),
		readline.PcItem("canid"),
		readline.PcItem("param",
			readline.PcItem("get"),
			readline.PcItem("set"),
		),
		readline.PcItem("burn"),
		readline.PcItem("reset"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Stdout returns a writer that coordinates with the prompt. Use it for log
// output.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Close releases the terminal. A pending Run returns.
func (s *Shell) Close() error {
	if s.rl == nil {
		return nil
	}
	return s.rl.Close()
}

// Run reads commands until quit, EOF or ctx ends. cancel is called when the
// operator leaves.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if !s.Execute(ctx, line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the operator asked
// to quit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp()
	case "connect", "c":
		err = s.cmdConnect(ctx, args)
	case "disconnect", "d":
		err = s.remote.Disconnect(ctx)
	case "status", "s":
		err = s.cmdStatus(ctx)
	case "ping":
		err = s.cmdPing(ctx)
	case "signals":
		err = s.cmdSignals(ctx)
	case "heartbeat", "hb":
		err = s.cmdHeartbeat(ctx, args)
	case "telemetry", "t":
		err = s.cmdTelemetry(ctx, args)
	case "samples":
		err = s.cmdSamples(args)
	case "canid":
		err = s.cmdCANID(ctx, args)
	case "param", "p":
		err = s.cmdParam(ctx, args)
	case "burn":
		err = s.remote.BurnFlash(ctx)
		if err == nil {
			fmt.Fprintln(s.out, "Parameters burned to flash")
		}
	case "reset":
		err = s.remote.FactoryReset(ctx)
		if err == nil {
			fmt.Fprintln(s.out, "Factory reset done")
		}
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
MotorLink Commands:
  Session:
    connect <id>                - Connect to a device (disconnects the current one)
    disconnect                  - Disconnect the current device
    status                      - Show session status
    ping                        - Ping the current device

  Heartbeat:
    heartbeat on <id> <value>   - Send <value> as setpoint every heartbeat period
    heartbeat set <id> <value>  - Change the heartbeated setpoint
    heartbeat off <id>          - Stop the heartbeat

  Telemetry:
    signals                     - List the signals the device can stream
    telemetry start             - Open the telemetry stream
    telemetry add <id> <sig>    - Subscribe to a signal
    telemetry remove <id> <sig> - Unsubscribe from a signal
    telemetry stop              - Close the telemetry stream
    samples on|off              - Show or hide incoming samples

  Device:
    canid <new-id>              - Move the device to a new bus id
    param get <key>             - Read a parameter (e.g. 0x2002)
    param set <key> <value>     - Write a parameter
    burn                        - Burn parameters to flash
    reset                       - Factory reset

  General:
    help                        - Show this help
    quit                        - Exit`)
}

func (s *Shell) cmdConnect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: connect <id>")
	}
	info, err := s.remote.Connect(ctx, resource.DeviceID(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Connected to %s (firmware %s, serial %s)\n", info.ID, info.Firmware, info.Serial)
	return nil
}

func (s *Shell) cmdStatus(ctx context.Context) error {
	st, err := s.remote.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "\nSession Status")
	fmt.Fprintln(s.out, "-------------------------------------------")
	if st.Connected {
		fmt.Fprintf(s.out, "  Device:     %s\n", st.Device)
	} else {
		fmt.Fprintln(s.out, "  Device:     (none)")
	}
	fmt.Fprintf(s.out, "  Paused:     %t\n", st.Paused)
	if len(st.Resources) > 0 {
		fmt.Fprintf(s.out, "  Resources:  %s\n", strings.Join(st.Resources, ", "))
	} else {
		fmt.Fprintln(s.out, "  Resources:  0")
	}
	for _, ref := range st.Signals {
		fmt.Fprintf(s.out, "  Signal:     %s/%d\n", ref.DeviceID, ref.SignalID)
	}
	fmt.Fprintln(s.out)
	return nil
}

func (s *Shell) cmdPing(ctx context.Context) error {
	start := time.Now()
	if err := s.remote.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "pong in %s\n", time.Since(start).Round(time.Microsecond))
	return nil
}

func (s *Shell) cmdSignals(ctx context.Context) error {
	signals, err := s.remote.TelemetryList(ctx)
	if err != nil {
		return err
	}
	for _, sig := range signals {
		fmt.Fprintf(s.out, "  %3d  %-12s %s\n", sig.ID, sig.Name, sig.Unit)
	}
	return nil
}

func (s *Shell) cmdHeartbeat(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: heartbeat on|set|off <id> [value]")
	}
	id := resource.DeviceID(args[1])
	switch args[0] {
	case "on", "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: heartbeat %s <id> <value>", args[0])
		}
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid setpoint: %s", args[2])
		}
		if args[0] == "on" {
			return s.remote.EnableHeartbeat(ctx, id, value)
		}
		return s.remote.UpdateHeartbeat(id, value)
	case "off":
		return s.remote.DisableHeartbeat(ctx, id)
	default:
		return fmt.Errorf("unknown heartbeat action: %s", args[0])
	}
}

func (s *Shell) cmdTelemetry(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: telemetry start|add|remove|stop")
	}
	switch args[0] {
	case "start":
		return s.remote.StartTelemetry(ctx)
	case "stop":
		return s.remote.StopTelemetry(ctx)
	case "add", "remove":
		if len(args) != 3 {
			return fmt.Errorf("usage: telemetry %s <id> <signal>", args[0])
		}
		sig, err := strconv.ParseUint(args[2], 0, 16)
		if err != nil {
			return fmt.Errorf("invalid signal: %s", args[2])
		}
		id := resource.DeviceID(args[1])
		if args[0] == "add" {
			return s.remote.AddSignal(ctx, id, resource.SignalID(sig))
		}
		return s.remote.RemoveSignal(ctx, id, resource.SignalID(sig))
	default:
		return fmt.Errorf("unknown telemetry action: %s", args[0])
	}
}

func (s *Shell) cmdSamples(args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return errors.New("usage: samples on|off")
	}
	s.samples.Store(args[0] == "on")
	return nil
}

func (s *Shell) cmdCANID(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: canid <new-id>")
	}
	return s.remote.ChangeCANID(ctx, resource.DeviceID(args[0]))
}

func (s *Shell) cmdParam(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: param get <key> | param set <key> <value>")
	}
	key, err := parseKey(args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "get":
		value, err := s.remote.GetParameter(ctx, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "  0x%04x = %g\n", uint16(key), value)
		return nil
	case "set":
		if len(args) != 3 {
			return errors.New("usage: param set <key> <value>")
		}
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid value: %s", args[2])
		}
		return s.remote.SetParameter(ctx, key, value)
	default:
		return fmt.Errorf("unknown param action: %s", args[0])
	}
}

func parseKey(s string) (device.ParameterKey, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid parameter key: %s", s)
	}
	return device.ParameterKey(v), nil
}

// handleEvent prints worker events. Successful heartbeats are not shown.
func (s *Shell) handleEvent(e service.Event) {
	switch e.Type {
	case service.EventConnected:
		fmt.Fprintf(s.out, "[EVENT] Connected: %s\n", e.DeviceID)
	case service.EventDisconnected:
		if e.Error != "" {
			fmt.Fprintf(s.out, "[EVENT] Disconnected: %s (%s)\n", e.DeviceID, e.Error)
		} else {
			fmt.Fprintf(s.out, "[EVENT] Disconnected: %s\n", e.DeviceID)
		}
	case service.EventHeartbeat:
		if e.Error != "" {
			fmt.Fprintf(s.out, "[EVENT] Heartbeat to %s failed: %s\n", e.DeviceID, e.Error)
		}
	case service.EventTelemetry:
		s.printTelemetry(e)
	case service.EventIDChanged:
		fmt.Fprintf(s.out, "[EVENT] Device %s is now %s\n", e.PreviousID, e.DeviceID)
	}
}

func (s *Shell) printTelemetry(e service.Event) {
	switch e.Telemetry {
	case resource.EventData:
		if e.Sample == nil || !s.samples.Load() {
			return
		}
		fmt.Fprintf(s.out, "[DATA] %s %s/%d = %g\n",
			e.Sample.Timestamp.Format("15:04:05.000"), e.Sample.DeviceID, e.Sample.SignalID, e.Sample.Value)
	case resource.EventError:
		fmt.Fprintf(s.out, "[EVENT] Telemetry error: %s\n", e.Error)
	default:
		fmt.Fprintf(s.out, "[EVENT] Telemetry %s\n", e.Telemetry)
	}
}

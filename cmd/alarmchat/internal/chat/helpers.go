package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal"
	"github.com/tinyland-inc/alarmchat/pkg/alarm"
	"github.com/tinyland-inc/alarmchat/pkg/bus"
	"github.com/tinyland-inc/alarmchat/pkg/logger"
	"github.com/tinyland-inc/alarmchat/pkg/screens"
)

type options struct {
	with     string
	username string
	debug    bool
}

// statusResetter clears the backend's chat warnings for a user.
type statusResetter interface {
	ResetChatStatus(ctx context.Context, userID string) (string, error)
}

func chatCmd(ctx context.Context, opts options) error {
	cfg, err := internal.LoadConfig(opts.debug)
	if err != nil {
		return err
	}
	if opts.debug {
		fmt.Println("🔍 Debug mode enabled")
	}

	store := internal.CredentialStore()
	creds, err := internal.RequireCredentials(store)
	if err != nil {
		return err
	}
	client, err := internal.NewDirectoryClient(cfg, store)
	if err != nil {
		return err
	}

	session := alarm.NewSession(cfg.ChannelURL(), internal.NewLocator(cfg),
		alarm.WithDialer(&websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: time.Duration(cfg.Channel.HandshakeTimeoutSecs) * time.Second,
		}),
		alarm.WithEventBuffer(cfg.Channel.EventBufferSize),
		alarm.WithLocationTimeout(time.Duration(cfg.Channel.LocationTimeoutSecs)*time.Second),
	)
	if err := session.Connect(ctx); err != nil {
		fmt.Printf("⚠ Live channel unavailable: %v\n", err)
	}

	var screenOpts []screens.ChatOption
	if sink := internal.NewAlertSink(cfg); sink != nil {
		screenOpts = append(screenOpts, screens.WithAlertSink(sink))
	}
	screen := screens.NewChatScreen(client, session, creds.UserID, opts.username, screenOpts...)
	defer screen.Close()

	c := &console{screen: screen, resetter: client, out: os.Stdout}
	if err := screen.LoadContacts(ctx); err != nil {
		fmt.Printf("Error loading contacts: %v\n", err)
	}
	if opts.username == "" {
		screen.SetUsername(c.selfName())
	}
	if opts.with != "" && !screen.Select(opts.with) {
		fmt.Printf("Unknown contact %q\n", opts.with)
	}

	fmt.Printf("%s Chat mode (Ctrl+C to exit, /help for commands)\n\n", internal.Logo)
	interactiveMode(ctx, c)

	return nil
}

// console drives a ChatScreen from line-oriented input.
type console struct {
	screen   *screens.ChatScreen
	resetter statusResetter
	out      io.Writer
}

func (c *console) selfName() string {
	for _, u := range c.screen.Contacts() {
		if u.UserID == c.screen.UserID() {
			return u.Username
		}
	}
	return ""
}

// pump prints live channel events until the channel closes.
func (c *console) pump(ctx context.Context) {
	c.screen.Run(ctx, c.printEvent)
	if ctx.Err() == nil {
		fmt.Fprintln(c.out, "⚠ Live channel closed")
	}
}

func (c *console) printEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.KindAlert:
		fmt.Fprintf(c.out, "\n%s ALERT: %s\n", internal.Logo, ev.Message)
	case bus.KindNotice:
		fmt.Fprintf(c.out, "\nℹ %s\n", ev.Message)
	case bus.KindLocationRequest:
		fmt.Fprintln(c.out, "\n📍 Location requested")
	}
}

// handle processes one input line and reports whether the user asked to
// quit.
func (c *console) handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "exit", "quit":
		return true
	case "/help":
		fmt.Fprintln(c.out, "  /users          list contacts")
		fmt.Fprintln(c.out, "  /select <id>    choose who to chat with")
		fmt.Fprintln(c.out, "  /alerts         show alerts received this session")
		fmt.Fprintln(c.out, "  /reset          clear your chat warnings")
		fmt.Fprintln(c.out, "  exit            leave")
	case "/users":
		if err := c.screen.LoadContacts(ctx); err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return false
		}
		for _, u := range c.screen.Contacts() {
			fmt.Fprintf(c.out, "  %-16s %s\n", u.UserID, u.DisplayName())
		}
	case "/select":
		if !c.screen.Select(arg) {
			fmt.Fprintf(c.out, "Unknown contact %q\n", arg)
			return false
		}
		fmt.Fprintf(c.out, "── %s ──\n%s\n", c.screen.Header(), c.screen.Placeholder())
	case "/alerts":
		alerts := c.screen.Alerts()
		if len(alerts) == 0 {
			fmt.Fprintln(c.out, "No alerts yet.")
		}
		for i, a := range alerts {
			fmt.Fprintf(c.out, "  %d. %s\n", i+1, a)
		}
	case "/reset":
		msg, err := c.resetter.ResetChatStatus(ctx, c.screen.UserID())
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintln(c.out, msg)
	default:
		c.send(input)
	}
	return false
}

func (c *console) send(text string) {
	if _, ok := c.screen.Selected(); !ok {
		fmt.Fprintln(c.out, c.screen.Placeholder()+" Use /select <id>.")
		return
	}
	c.screen.SetDraft(text)
	if !c.screen.Submit() {
		fmt.Fprintln(c.out, "⚠ Live channel is not connected, message not sent")
	}
}

func interactiveMode(ctx context.Context, c *console) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s You: ", internal.Logo),
		HistoryFile:     filepath.Join(os.TempDir(), ".alarmchat_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(ctx, c, os.Stdin)
		return
	}
	defer rl.Close()

	c.out = rl.Stdout()
	logger.SetOutput(rl.Stderr())
	go c.pump(ctx)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(c.out, "Error reading input: %v\n", err)
			continue
		}
		if c.handle(ctx, line) {
			fmt.Fprintln(c.out, "Goodbye!")
			return
		}
	}
}

func simpleInteractiveMode(ctx context.Context, c *console, in io.Reader) {
	go c.pump(ctx)

	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(c.out, "%s You: ", internal.Logo)
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.handle(ctx, line)
				fmt.Fprintln(c.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(c.out, "Error reading input: %v\n", err)
			continue
		}
		if c.handle(ctx, line) {
			fmt.Fprintln(c.out, "Goodbye!")
			return
		}
	}
}

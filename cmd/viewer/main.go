package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"estate-desk/grpc"
	"estate-desk/observability"
	"estate-desk/runtime"
	"estate-desk/runtime/workers"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const help = `commands:
  open <n>                 select the nth conversation of the list
  select <email> <listing> select a conversation
  send <text>              send to the selected conversation
  back                     deselect
  quit`

var errQuit = stderrors.New("quit")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run connects to the desk and keeps the conversations of DESK_EMAIL on screen.
func run() error {
	_ = godotenv.Load()
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := grpc.Dial(config.DeskAddr, config.Token)
	if err != nil {
		return fmt.Errorf("dial %s: %w", config.DeskAddr, err)
	}
	defer func() { _ = client.Close() }()

	view := newTerminalView(os.Stdout, config.Email, config.Colours)
	monitoring := observability.NewMonitoringManager(log, time.Minute)
	synchronizer := runtime.NewSynchronizer(log, config.Email, client, view, workers.NewSupervisor(log), monitoring,
		runtime.SyncConfig{ListInterval: config.ListInterval, MessageInterval: config.MessageInterval})
	synchronizer.Start(ctx)
	defer synchronizer.Stop()

	// Pushed hints only shorten the wait, polling stays the source of truth.
	go func() {
		err := client.Watch(ctx, config.WatchRetry, func(e grpc.WatchEvent) {
			if key, ok := e.Key(); ok {
				synchronizer.Nudge(key)
			}
		})
		if err != nil {
			view.ShowError(fmt.Errorf("live updates disabled: %w", err))
		}
	}()

	fmt.Println(help)
	lines := readLines(ctx, os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := execute(ctx, synchronizer, view, line); err != nil {
				if stderrors.Is(err, errQuit) {
					return nil
				}
				view.ShowError(err)
			}
		}
	}
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// execute runs one command line against the synchronizer.
func execute(ctx context.Context, synchronizer *runtime.Synchronizer, view *terminalView, line string) error {
	command, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	switch command {
	case "":
		return nil
	case "open":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("open expects a row number, got %q", rest)
		}
		conversation, ok := view.conversation(n)
		if !ok {
			return fmt.Errorf("no conversation at row %d", n)
		}
		return synchronizer.Select(conversation.Participant.Email, conversation.Property.ID)
	case "select":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return fmt.Errorf("select expects an email and a listing id")
		}
		return synchronizer.Select(fields[0], fields[1])
	case "send":
		_, err := synchronizer.Send(ctx, rest)
		return err
	case "back":
		synchronizer.Deselect()
		return nil
	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q\n%s", command, help)
}

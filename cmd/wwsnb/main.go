package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Teyk0o/wwsnb/pkg/config"
	"github.com/Teyk0o/wwsnb/pkg/logging"
	"github.com/Teyk0o/wwsnb/pkg/reactions"
	"github.com/Teyk0o/wwsnb/pkg/transport"
)

// wwsnb is a relay probe: it joins a session the way the in-page agent
// does, optionally toggles one reaction, and prints every state push it
// receives until the watch window ends.
func main() {
	var (
		configName string
		session    string
		userID     string
		toggle     string
		watch      time.Duration
	)

	root := &cobra.Command{
		Use:   "wwsnb",
		Short: "Join a WWSNB session and watch its reaction state",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			logger := logging.New(logging.LevelDebug)
			cfg, err := config.Load(logger, configName)
			if err != nil {
				return err
			}
			logger = logging.New(logging.ParseLevel(cfg.LogLevel))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			state := reactions.NewState()
			client := transport.NewClient(ctx, transport.ClientConfig{
				URL:          cfg.Client.RelayURL,
				SessionToken: session,
				MaxRetries:   cfg.Client.ReconnectAttempts,
				RetryDelay:   cfg.Client.ReconnectDelay,
				SendTimeout:  cfg.Client.SendTimeout,
			}, logger)
			client.SetSnapshotFunc(state.Snapshot)

			pushes := make(chan reactions.Snapshot, 16)
			client.SetUpdateFunc(func(snap reactions.Snapshot) {
				state.ReplaceAll(snap)
				pushes <- snap
			})

			if err := client.Connect(); err != nil {
				return fmt.Errorf("connect to %s: %w", cfg.Client.RelayURL, err)
			}
			defer client.Close("probe finished")

			if toggle != "" {
				messageID, emoji, ok := strings.Cut(toggle, ":")
				if !ok {
					return fmt.Errorf("invalid --toggle %q, want messageID:emoji", toggle)
				}
				action := transport.ActionAdd
				if state.UserReacted(messageID, emoji, userID) {
					action = transport.ActionRemove
				}
				frame, err := transport.NewReactionUpdate(messageID, emoji, userID, action)
				if err != nil {
					return err
				}
				if err := client.Send(frame); err != nil {
					return fmt.Errorf("send toggle: %w", err)
				}
			}

			deadline := time.After(watch)
			for {
				select {
				case snap := <-pushes:
					obj, err := reactions.EncodeObject(snap)
					if err != nil {
						return err
					}
					fmt.Println(string(obj))
				case <-deadline:
					return nil
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	root.Flags().StringVar(&configName, "config", "config", "config file name (without extension)")
	root.Flags().StringVar(&session, "session", "default-session", "session token to join")
	root.Flags().StringVar(&userID, "user", "probe", "user id for toggles")
	root.Flags().StringVar(&toggle, "toggle", "", "toggle one reaction, as messageID:emoji")
	root.Flags().DurationVar(&watch, "watch", 10*time.Second, "how long to watch state pushes")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

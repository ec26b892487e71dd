package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chatapp/internal/feature/auth/client"
	"chatapp/internal/feature/auth/store"
	apphttp "chatapp/internal/platform/http"
	"chatapp/internal/platform/realtime"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat client: sign in and watch who is online",
	RunE:  runShell,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func runShell(cmd *cobra.Command, _ []string) error {
	// .envを読み込む
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not found; using system environment variables")
	}
	logger := setupLogger(cmd.ErrOrStderr(), verbose)

	cfg, err := client.LoadConfig()
	if err != nil {
		return err
	}
	jar, err := apphttp.NewCookieJar()
	if err != nil {
		return err
	}
	api := client.New(cfg.BaseURL, apphttp.NewHTTPClient(cfg.Timeout, jar))

	newSocket := func(userID string) (store.Socket, error) {
		return realtime.New(cfg.SocketURL,
			realtime.WithQuery("userId", userID),
			realtime.WithLogger(logger),
		), nil
	}

	out := cmd.OutOrStdout()
	st := store.New(api, store.NewWriterNotifier(out), newSocket, store.WithLogger(logger))
	defer st.Close()

	unsubscribe := st.Subscribe(presencePrinter(out))
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// ページ読み込み時と同じくセッションを確認する
	st.CheckAuth(ctx)

	return newShell(st, cmd.InOrStdin(), out).run(ctx)
}

// presencePrinter prints the online list whenever it changes.
func presencePrinter(w io.Writer) func(store.State) {
	var mu sync.Mutex
	last := []string{}
	return func(s store.State) {
		mu.Lock()
		defer mu.Unlock()
		if slices.Equal(last, s.OnlineUsers) {
			return
		}
		last = s.OnlineUsers
		_, _ = fmt.Fprintf(w, "online (%d): %s\n", len(last), strings.Join(last, ", "))
	}
}

// Command schedulactl is a terminal client for the schedula HTTP API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"schedula/internal/client"
	"schedula/internal/config"
	"schedula/internal/export"
	"schedula/internal/models"
	"schedula/internal/repository"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("schedulactl", flag.ContinueOnError)
	var (
		addr     = fs.String("addr", envOr("SCHEDULA_ADDR", "http://localhost:8080"), "API base URL")
		clientID = fs.String("client", envOr("SCHEDULA_CLIENT", "schedulactl"), "client id sent as X-Client-ID")
		from     = fs.String("from", "", "export start date YYYY-MM-DD")
		to       = fs.String("to", "", "export end date YYYY-MM-DD")
		output   = fs.String("out", "", "export file (default derived from dates)")
		page     = fs.Int("page", 1, "history page")
		redisURL = fs.String("redis", os.Getenv("SCHEDULA_REDIS"), "redis address for caching the bookings list (empty disables)")
		cacheTTL = fs.Duration("cache-ttl", time.Minute, "bookings cache lifetime")
	)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: schedulactl [flags] chat [message...] | bookings | history | export")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(strings.TrimRight(*addr, "/"), *clientID)
	if *redisURL != "" {
		rdb := repository.NewRedisClient(config.RedisConfig{Address: *redisURL})
		defer rdb.Close()
		c.UseRedisCache(rdb, *cacheTTL)
	}

	cmd := fs.Arg(0)
	switch cmd {
	case "", "chat":
		if fs.NArg() > 1 {
			return sendOne(ctx, c, strings.Join(fs.Args()[1:], " "), out)
		}
		return repl(ctx, c, in, out)
	case "bookings":
		bookings, err := c.ListBookings(ctx)
		if err != nil {
			return err
		}
		printBookings(out, bookings)
		return nil
	case "history":
		result, err := c.ListConversations(ctx, *page, models.DefaultPageLimit)
		if err != nil {
			return err
		}
		for _, conv := range result.Conversations {
			fmt.Fprintf(out, "[%s] > %s\n%s\n\n", conv.Timestamp.Local().Format("2006-01-02 15:04"), conv.Message, conv.Response)
		}
		fmt.Fprintf(out, "page %d of %d (%d total)\n", result.Pagination.Page, result.Pagination.Pages, result.Pagination.Total)
		return nil
	case "export":
		return exportBookings(ctx, c, *from, *to, *output, out)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func sendOne(ctx context.Context, c *client.Client, message string, out io.Writer) error {
	reply, err := c.Chat(ctx, message)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply.Response)
	if len(reply.Suggestions) > 0 {
		fmt.Fprintf(out, "\nTry: %s\n", strings.Join(reply.Suggestions, " | "))
	}
	return nil
}

func repl(ctx context.Context, c *client.Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "quit", "exit":
			return nil
		default:
			if err := sendOne(ctx, c, line, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func exportBookings(ctx context.Context, c *client.Client, fromRaw, toRaw, path string, out io.Writer) error {
	if fromRaw == "" || toRaw == "" {
		return errors.New("export needs -from and -to")
	}
	from, err := time.Parse("2006-01-02", fromRaw)
	if err != nil {
		return fmt.Errorf("bad -from: %w", err)
	}
	to, err := time.Parse("2006-01-02", toRaw)
	if err != nil {
		return fmt.Errorf("bad -to: %w", err)
	}
	if path == "" {
		path = export.FileName(from, to)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.ExportBookings(ctx, f, from, to); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s\n", path)
	return nil
}

func printBookings(out io.Writer, bookings []*models.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(out, "no bookings")
		return
	}
	for _, b := range bookings {
		start, end := b.StartTime.Local(), b.EndTime.Local()
		fmt.Fprintf(out, "%s  %s  %s-%s  %s\n", b.ID, start.Format("2006-01-02"), start.Format("15:04"), end.Format("15:04"), b.Title)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

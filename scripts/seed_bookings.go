package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"schedula/internal/database"
	"schedula/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// seedEntry is one booking in the seed file. Times use "2006-01-02 15:04"
// in the -tz location.
type seedEntry struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	ClientName  string `yaml:"client_name"`
	ClientEmail string `yaml:"client_email"`
	Status      string `yaml:"status"`
}

type seedFile struct {
	Bookings []seedEntry `yaml:"bookings"`
}

type bookingStore interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBooking(ctx context.Context, booking *models.Booking) error
}

const seedTimeLayout = "2006-01-02 15:04"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("file", "configs/seed_bookings.yaml", "path to seed yaml")
		dbPath   = flag.String("db", "./data/schedula.db", "path to sqlite db")
		tz       = flag.String("tz", "Local", "IANA timezone of the seed times")
	)
	flag.Parse()

	loc := time.Local
	if *tz != "Local" {
		l, err := time.LoadLocation(*tz)
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
		loc = l
	}

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var file seedFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(file.Bookings) == 0 {
		return fmt.Errorf("no bookings in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, updated, err := seed(ctx, db, file.Bookings, loc)
	if err != nil {
		return err
	}
	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}

// seed upserts entries: an entry whose id already exists is updated, any
// other is created.
func seed(ctx context.Context, db bookingStore, entries []seedEntry, loc *time.Location) (created, updated int, err error) {
	for i, e := range entries {
		b, err := e.toBooking(loc)
		if err != nil {
			return created, updated, fmt.Errorf("entry %d (%q): %w", i+1, e.Title, err)
		}

		if b.ID != "" {
			_, getErr := db.GetBooking(ctx, b.ID)
			if getErr == nil {
				if err := db.UpdateBooking(ctx, b); err != nil {
					return created, updated, fmt.Errorf("update %s: %w", b.ID, err)
				}
				updated++
				continue
			}
			if !errors.Is(getErr, database.ErrBookingNotFound) {
				return created, updated, fmt.Errorf("get %s: %w", b.ID, getErr)
			}
		}

		if err := db.CreateBooking(ctx, b); err != nil {
			return created, updated, fmt.Errorf("create %q: %w", b.Title, err)
		}
		created++
	}
	return created, updated, nil
}

func (e seedEntry) toBooking(loc *time.Location) (*models.Booking, error) {
	if e.Title == "" {
		return nil, errors.New("title is required")
	}
	start, err := time.ParseInLocation(seedTimeLayout, e.Start, loc)
	if err != nil {
		return nil, fmt.Errorf("bad start: %w", err)
	}
	end, err := time.ParseInLocation(seedTimeLayout, e.End, loc)
	if err != nil {
		return nil, fmt.Errorf("bad end: %w", err)
	}
	if !end.After(start) {
		return nil, errors.New("end must be after start")
	}

	return &models.Booking{
		ID:          e.ID,
		Title:       e.Title,
		Description: optional(e.Description),
		Category:    optional(e.Category),
		StartTime:   start,
		EndTime:     end,
		ClientName:  optional(e.ClientName),
		ClientEmail: optional(e.ClientEmail),
		Status:      models.BookingStatus(e.Status),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

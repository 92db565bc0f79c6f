// Package intent turns a free-text chat message into a scheduling intent.
//
// Classification is a keyword heuristic; nothing here touches storage.
package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"schedula/internal/models"
)

// Kind selects what the materializer does with an Intent.
type Kind string

const (
	KindChat   Kind = "chat"
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Name is the branch of the classifier that produced the intent.
type Name string

const (
	NameList   Name = "list"
	NameCreate Name = "create"
	NameCancel Name = "cancel"
	NameSelect Name = "select"
	NameHelp   Name = "help"
)

// Draft is a proposed booking. ID is only set for updates.
type Draft struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

type Intent struct {
	Kind      Kind
	Name      Name
	Draft     *Draft
	BookingID string
	Response  string
	// Candidates is the numbered cancel listing, in display order.
	Candidates []*models.Booking
}

var selectNumberRe = regexp.MustCompile(`^(?:#|no\.?\s*|number\s+|option\s+)?(\d+)\.?$`)

// Classify inspects message against bookings (ordered by start ascending).
// now carries the location that dates and times are built and rendered in.
// pending is the outstanding cancel listing for this client, if any.
func Classify(message string, now time.Time, bookings []*models.Booking, pending *models.Selection) Intent {
	text := strings.ToLower(message)

	switch {
	case containsAny(text, "show", "list", "my bookings"):
		return listIntent(bookings, now.Location())
	case containsAny(text, "schedule", "book", "meeting"):
		return createIntent(text, now)
	case containsAny(text, "cancel", "delete", "remove"):
		// "cancel 2" right after a listing picks from it
		if hasCandidates(pending) {
			if in, ok := selectIntent(stripCancelWords(text), pending); ok && in.Kind == KindDelete {
				return in
			}
		}
		return cancelIntent(bookings, now.Location())
	}

	if hasCandidates(pending) {
		if in, ok := selectIntent(text, pending); ok {
			return in
		}
	}

	return Intent{Kind: KindChat, Name: NameHelp, Response: TextHelp}
}

func listIntent(bookings []*models.Booking, loc *time.Location) Intent {
	if len(bookings) == 0 {
		return Intent{Kind: KindChat, Name: NameList, Response: TextNoBookings}
	}

	lines := make([]string, 0, len(bookings))
	for _, b := range bookings {
		start, end := b.StartTime.In(loc), b.EndTime.In(loc)
		lines = append(lines, fmt.Sprintf("• %s on %s from %s to %s",
			b.Title, start.Format(DateLayout), start.Format(TimeLayout), end.Format(TimeLayout)))
	}
	return Intent{
		Kind:     KindChat,
		Name:     NameList,
		Response: listHeader + strings.Join(lines, "\n") + listFooter,
	}
}

func createIntent(text string, now time.Time) Intent {
	loc := now.Location()
	title := extractTitle(text)

	year, month, day, used, ok := extractDate(text, now)
	if !ok {
		year, month, day = now.AddDate(0, 0, 1).Date()
	}

	var start, end time.Time
	startClock, endClock, ok := extractTimes(blank(text, used))
	switch {
	case !ok:
		start = time.Date(year, month, day, 9, 0, 0, 0, loc)
		end = time.Date(year, month, day, 10, 0, 0, 0, loc)
	case endClock != nil:
		start = time.Date(year, month, day, startClock.hour, startClock.minute, 0, 0, loc)
		end = time.Date(year, month, day, endClock.hour, endClock.minute, 0, 0, loc)
	default:
		start = time.Date(year, month, day, startClock.hour, startClock.minute, 0, 0, loc)
		end = start.Add(time.Hour)
	}

	return Intent{
		Kind:  KindCreate,
		Name:  NameCreate,
		Draft: &Draft{Title: title, Start: start, End: end},
		Response: fmt.Sprintf(`I'll schedule "%s" for %s from %s to %s. Is this correct?`,
			title, start.Format(DateLayout), start.Format(TimeLayout), end.Format(TimeLayout)),
	}
}

func cancelIntent(bookings []*models.Booking, loc *time.Location) Intent {
	if len(bookings) == 0 {
		return Intent{Kind: KindChat, Name: NameCancel, Response: TextNothingToCancel}
	}

	lines := make([]string, 0, len(bookings))
	for i, b := range bookings {
		start := b.StartTime.In(loc)
		lines = append(lines, fmt.Sprintf("%d. %s on %s at %s",
			i+1, b.Title, start.Format(DateLayout), start.Format(TimeLayout)))
	}
	return Intent{
		Kind:       KindChat,
		Name:       NameCancel,
		Response:   cancelHeader + strings.Join(lines, "\n") + cancelFooter,
		Candidates: bookings,
	}
}

// selectIntent resolves a reply to a cancel listing. ok is false when the
// message does not look like a choice at all.
func selectIntent(text string, pending *models.Selection) (Intent, bool) {
	text = strings.TrimSpace(text)
	candidates := pending.Candidates

	if m := selectNumberRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(candidates) {
			return Intent{
				Kind: KindChat,
				Name: NameSelect,
				Response: fmt.Sprintf("There is no booking number %s. Please choose a number between 1 and %d.",
					m[1], len(candidates)),
			}, true
		}
		return deleteCandidate(candidates[n-1]), true
	}

	var exact, matched []models.SelectionCandidate
	for _, c := range candidates {
		title := strings.ToLower(strings.TrimSpace(c.Title))
		if title == "" {
			continue
		}
		if title == text {
			exact = append(exact, c)
		}
		if namesOnly(text, title) {
			matched = append(matched, c)
		}
	}
	if len(exact) == 1 {
		return deleteCandidate(exact[0]), true
	}
	switch len(matched) {
	case 0:
		return Intent{}, false
	case 1:
		return deleteCandidate(matched[0]), true
	default:
		return Intent{
			Kind:     KindChat,
			Name:     NameSelect,
			Response: fmt.Sprintf("More than one booking is called %q. Please tell me its number instead.", matched[0].Title),
		}, true
	}
}

func deleteCandidate(c models.SelectionCandidate) Intent {
	return Intent{
		Kind:      KindDelete,
		Name:      NameSelect,
		BookingID: c.BookingID,
	}
}

// NewSelection captures a cancel listing for a later follow-up.
func NewSelection(clientKey string, candidates []*models.Booking, now time.Time) *models.Selection {
	sel := &models.Selection{
		ClientKey:  clientKey,
		Candidates: make([]models.SelectionCandidate, 0, len(candidates)),
		CreatedAt:  now,
	}
	for _, b := range candidates {
		sel.Candidates = append(sel.Candidates, models.SelectionCandidate{BookingID: b.ID, Title: b.Title})
	}
	return sel
}

// selectFillers may surround a title in a reply that picks it.
var selectFillers = map[string]bool{
	"the": true, "one": true, "please": true, "cancel": true, "delete": true,
	"remove": true, "booking": true, "meeting": true, "that": true, "this": true,
	"it": true, "is": true, "yes": true, "ok": true, "okay": true,
}

// namesOnly reports whether text mentions title as whole words and
// nothing else besides filler words.
func namesOnly(text, title string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(title) + `\b`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return false
	}
	for _, w := range strings.Fields(text[:loc[0]] + " " + text[loc[1]:]) {
		w = strings.Trim(w, ".,!?;:'\"")
		if w != "" && !selectFillers[w] {
			return false
		}
	}
	return true
}

var cancelWordsRe = regexp.MustCompile(`\b(?:cancel|delete|remove|the|booking)\b`)

func stripCancelWords(text string) string {
	return strings.Join(strings.Fields(cancelWordsRe.ReplaceAllString(text, " ")), " ")
}

func hasCandidates(pending *models.Selection) bool {
	return pending != nil && len(pending.Candidates) > 0
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

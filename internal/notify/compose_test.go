package notify

import (
	"net/smtp"
	"strings"
	"testing"
	"time"

	"unit-watcher/internal/config"
	"unit-watcher/internal/diff"
	"unit-watcher/internal/models"
)

var (
	checkIn  = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	checkOut = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
)

func row(unitID int64, priceJPY int, daysEarlier int) diff.Row {
	size := 30.5
	return diff.Row{
		UnitID:           unitID,
		PropertyID:       unitID / 100,
		PropertyNameEN:   "Azabu Court",
		Layout:           "1LDK",
		CityEN:           "Tokyo",
		UnitNumber:       "502",
		SizeSquareMeters: &size,
		PriceJPY:         &priceJPY,
		CheckInDate:      checkIn.AddDate(0, 0, -daysEarlier),
	}
}

func TestOrdinal(t *testing.T) {
	cases := []struct {
		in   *int
		want string
	}{
		{intPtr(1), "1st"},
		{intPtr(2), "2nd"},
		{intPtr(3), "3rd"},
		{intPtr(4), "4th"},
		{intPtr(11), "11th"},
		{intPtr(12), "12th"},
		{intPtr(13), "13th"},
		{intPtr(21), "21st"},
		{intPtr(22), "22nd"},
		{nil, "?"},
	}
	for _, c := range cases {
		if got := Ordinal(c.in); got != c.want {
			t.Errorf("Ordinal(%v): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatYen(t *testing.T) {
	cases := []struct {
		in   *int
		want string
	}{
		{intPtr(95000), "¥95,000"},
		{intPtr(1200000), "¥1,200,000"},
		{intPtr(500), "¥500"},
		{intPtr(0), "¥0"},
		{nil, "¥?"},
	}
	for _, c := range cases {
		if got := formatYen(c.in); got != c.want {
			t.Errorf("formatYen(%v): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUnitURL(t *testing.T) {
	c := NewComposer("https://hmlet.com/")
	got := c.UnitURL(12, 1203, checkIn, checkOut)
	want := "https://hmlet.com/en/property/12/units/1203/detail?check_in=2026-10-01&check_out=2026-11-01"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestComposeAlertSectionOrder(t *testing.T) {
	oldPrice, newPrice := 200000, 210000
	report := &diff.Report{
		LatestAt:   time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		PreviousAt: time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
		Primary: diff.ChangeSet{
			New:     map[int64]diff.Row{301: row(301, 150000, 0)},
			Removed: map[int64]diff.Row{101: row(101, 100000, 0)},
			PriceChanged: map[int64]diff.PriceChange{
				201: {UnitID: 201, OldPrice: &oldPrice, NewPrice: &newPrice, Latest: row(201, newPrice, 0)},
			},
		},
		NewSuggestions:     []diff.Row{row(401, 130000, 3)},
		RemovedSuggestions: []diff.Row{row(501, 140000, 5)},
		SuggestionPriceChanges: []diff.SuggestionPriceChange{
			{Latest: row(601, 160000, 2), Previous: row(601, 170000, 2)},
		},
	}

	c := NewComposer("https://hmlet.com")
	msg := c.ComposeAlert(report, checkIn, checkOut)

	sections := []string{
		"New units have been detected",
		"Removed units have been detected",
		"Price changes have been detected in your time range",
		"Have you also considered these properties",
		"Removed properties detected from earlier move-in options",
		"Price changes detected for earlier move in options",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(msg, s)
		if idx < 0 {
			t.Fatalf("section %q missing from message:\n%s", s, msg)
		}
		if idx < last {
			t.Errorf("section %q appeared out of order", s)
		}
		last = idx
	}

	if !strings.Contains(msg, "¥200,000 → 💴 ¥210,000") {
		t.Errorf("expected primary price transition in message:\n%s", msg)
	}
	if !strings.Contains(msg, "3 days earlier") {
		t.Errorf("expected suggestion compromise line in message:\n%s", msg)
	}
	if strings.Contains(msg, "No changes in your main search") {
		t.Error("no-changes placeholder must not appear when changes exist")
	}
}

func TestComposeAlertUnitOrderWithinSection(t *testing.T) {
	report := &diff.Report{
		Primary: diff.ChangeSet{
			New: map[int64]diff.Row{
				900: row(900, 100000, 0),
				100: row(100, 100000, 0),
				500: row(500, 100000, 0),
			},
			Removed:      map[int64]diff.Row{},
			PriceChanged: map[int64]diff.PriceChange{},
		},
	}

	c := NewComposer("https://hmlet.com")
	msg := c.ComposeAlert(report, checkIn, checkOut)

	i100 := strings.Index(msg, "[Unit 100]")
	i500 := strings.Index(msg, "[Unit 500]")
	i900 := strings.Index(msg, "[Unit 900]")
	if i100 < 0 || i500 < 0 || i900 < 0 {
		t.Fatalf("missing unit lines:\n%s", msg)
	}
	if !(i100 < i500 && i500 < i900) {
		t.Errorf("units not ordered by ID: positions %d, %d, %d", i100, i500, i900)
	}
}

func TestComposeAlertNoChangesPlaceholder(t *testing.T) {
	report := &diff.Report{
		Primary: diff.ChangeSet{
			New:          map[int64]diff.Row{},
			Removed:      map[int64]diff.Row{},
			PriceChanged: map[int64]diff.PriceChange{},
		},
		NewSuggestions: []diff.Row{row(401, 130000, 3)},
	}

	c := NewComposer("https://hmlet.com")
	msg := c.ComposeAlert(report, checkIn, checkOut)
	if !strings.Contains(msg, "No changes in your main search") {
		t.Errorf("expected the no-changes placeholder:\n%s", msg)
	}
}

func TestComposeRoundupEmptySnapshot(t *testing.T) {
	roundup := &diff.Roundup{SnapshotAt: time.Now()}
	c := NewComposer("https://hmlet.com")
	msg := c.ComposeRoundup(roundup, checkIn, checkOut)

	if !strings.Contains(msg, "No units available for the primary dates") {
		t.Errorf("expected primary placeholder:\n%s", msg)
	}
	if !strings.Contains(msg, "No secondary suggestions") {
		t.Errorf("expected suggestions placeholder:\n%s", msg)
	}
}

func TestComposeWeeklyRoundupNewBuildings(t *testing.T) {
	cheap, pricey := 120000, 250000
	props := []models.PropertySnapshot{
		{PropertyID: 2, PropertyNameEN: "Shibuya Heights", MinimumListPrice: &pricey, AvailableRoomCount: 2},
		{PropertyID: 1, PropertyNameEN: "Azabu Court", MinimumListPrice: &cheap, AvailableRoomCount: 4},
	}

	c := NewComposer("https://hmlet.com")
	roundup := &diff.Roundup{SnapshotAt: time.Now()}
	msg := c.ComposeWeeklyRoundup(roundup, checkIn, checkOut, props)

	if !strings.Contains(msg, "New buildings opened this week") {
		t.Fatalf("expected new-buildings section:\n%s", msg)
	}
	iCheap := strings.Index(msg, "Azabu Court")
	iPricey := strings.Index(msg, "Shibuya Heights")
	if iCheap < 0 || iPricey < 0 || iCheap > iPricey {
		t.Errorf("new buildings not sorted cheapest first (%d vs %d)", iCheap, iPricey)
	}

	// Without new buildings the section must vanish entirely.
	plain := c.ComposeWeeklyRoundup(roundup, checkIn, checkOut, nil)
	if strings.Contains(plain, "New buildings opened this week") {
		t.Error("new-buildings section must be omitted when empty")
	}
}

func TestEmailerDisabledSkips(t *testing.T) {
	e := NewEmailer(config.EmailConfig{Enabled: false})
	e.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatal("send must not be called when email is disabled")
		return nil
	}
	if err := e.Send("subject", "body"); err != nil {
		t.Fatalf("disabled send returned error: %v", err)
	}
}

func TestEmailerSendsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	e := NewEmailer(config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "bot@example.com",
		To:      []string{"you@example.com"},
	})
	e.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := e.Send("🏠 Property update", "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr: got %q", gotAddr)
	}
	if gotFrom != "bot@example.com" || len(gotTo) != 1 {
		t.Errorf("envelope: from %q to %v", gotFrom, gotTo)
	}
	body := string(gotMsg)
	if !strings.Contains(body, "Subject: 🏠 Property update\r\n") {
		t.Errorf("missing subject header:\n%s", body)
	}
	if !strings.HasSuffix(body, "\r\n\r\nhello") {
		t.Errorf("missing body separator:\n%s", body)
	}
}

func TestEmailerEnabledWithoutHost(t *testing.T) {
	e := NewEmailer(config.EmailConfig{Enabled: true})
	if err := e.Send("subject", "body"); err == nil {
		t.Fatal("expected error when enabled without host")
	}
}

func intPtr(v int) *int { return &v }

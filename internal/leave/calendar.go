package leave

import (
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/uncleisme/mobile-app/internal/models"
)

type Entry struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	TypeKey string `json:"type_key"`
}

type Day struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
}

// Calendar expands approved leave into one Day per calendar date, ascending.
// Names missing from names fall back to the user id.
func Calendar(leaves []models.LeaveRequest, names map[string]string) []Day {
	byDate := map[string][]Entry{}
	for _, l := range leaves {
		if l.Status != models.LeaveApproved {
			continue
		}
		uid := l.UserID.String()
		name := names[uid]
		if name == "" {
			name = uid
		}
		end := dateOnly(l.EndDate)
		for d := dateOnly(l.StartDate); !d.After(end); d = d.AddDate(0, 0, 1) {
			key := d.Format("2006-01-02")
			byDate[key] = append(byDate[key], Entry{UserID: uid, Name: name, TypeKey: l.TypeKey})
		}
	}
	out := make([]Day, 0, len(byDate))
	for date, entries := range byDate {
		out = append(out, Day{Date: date, Entries: entries})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ICS renders approved leave as all-day events.
func ICS(leaves []models.LeaveRequest, names map[string]string, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//uncleisme//mobile-app leave calendar//EN")
	cal.SetName("Team leave")

	for _, l := range leaves {
		if l.Status != models.LeaveApproved {
			continue
		}
		uid := l.UserID.String()
		name := names[uid]
		if name == "" {
			name = uid
		}
		evt := cal.AddEvent(l.ID.String() + "@leave")
		evt.SetDtStampTime(stamp.UTC())
		evt.SetAllDayStartAt(dateOnly(l.StartDate))
		// DTEND is exclusive for all-day events.
		evt.SetAllDayEndAt(dateOnly(l.EndDate).AddDate(0, 0, 1))
		evt.SetSummary(name + " (" + l.TypeKey + " leave)")
		if l.Reason != "" {
			evt.SetDescription(l.Reason)
		}
	}
	return cal.Serialize()
}

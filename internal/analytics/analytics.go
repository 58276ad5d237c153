package analytics

import (
	"fmt"
	"strings"
	"time"

	"companion-bot/internal/history"
)

// Stats summarizes the conversation log.
type Stats struct {
	TotalTurns   int
	UserTurns    int
	ModelTurns   int
	TodayTurns   int
	FirstTurn    time.Time
	LastTurn     time.Time
	LastRole     history.Role
	SinceLastMsg time.Duration
}

// Analyze computes statistics for turns as seen at now; "today" is the
// calendar day of now in now's location.
func Analyze(turns []history.Turn, now time.Time) Stats {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	var s Stats
	for _, t := range turns {
		s.TotalTurns++
		switch t.Role {
		case history.RoleUser:
			s.UserTurns++
		case history.RoleModel:
			s.ModelTurns++
		}
		if !t.Timestamp.Before(startOfDay) && t.Timestamp.Before(endOfDay) {
			s.TodayTurns++
		}
	}
	if len(turns) > 0 {
		s.FirstTurn = turns[0].Timestamp
		last := turns[len(turns)-1]
		s.LastTurn = last.Timestamp
		s.LastRole = last.Role
		s.SinceLastMsg = now.Sub(last.Timestamp)
	}
	return s
}

// Format renders stats for the status command.
func (s Stats) Format(loc *time.Location) string {
	if s.TotalTurns == 0 {
		return "hafıza boş"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "toplam mesaj: %d (sen %d, ben %d)\n", s.TotalTurns, s.UserTurns, s.ModelTurns)
	fmt.Fprintf(&b, "bugün: %d\n", s.TodayTurns)
	fmt.Fprintf(&b, "ilk mesaj: %s\n", s.FirstTurn.In(loc).Format("2006-01-02 15:04"))
	who := "sen"
	if s.LastRole == history.RoleModel {
		who = "ben"
	}
	fmt.Fprintf(&b, "son mesaj: %s (%s, %s önce)", s.LastTurn.In(loc).Format("2006-01-02 15:04"), who, s.SinceLastMsg.Truncate(time.Minute))
	return b.String()
}

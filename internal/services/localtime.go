package services

import (
	"fmt"
	"time"
)

// Store clock. The market operates on São Paulo time regardless of where the
// service runs.
const storeTimezone = "America/Sao_Paulo"

var weekdaysPT = [...]string{
	"domingo",
	"segunda-feira",
	"terça-feira",
	"quarta-feira",
	"quinta-feira",
	"sexta-feira",
	"sábado",
}

var monthsPT = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// LocalClock reports the current store date and time in Portuguese
type LocalClock struct {
	loc *time.Location
	now func() time.Time
}

func NewLocalClock() (*LocalClock, error) {
	loc, err := time.LoadLocation(storeTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load store timezone: %w", err)
	}
	return &LocalClock{loc: loc, now: time.Now}, nil
}

// Now returns the current time in the store timezone
func (c *LocalClock) Now() time.Time {
	return c.now().In(c.loc)
}

// Describe formats a moment for the attendant, e.g.
// "terça-feira, 26 de agosto de 2025, 14:05"
func (c *LocalClock) Describe(t time.Time) string {
	t = t.In(c.loc)
	return fmt.Sprintf("%s, %d de %s de %d, %02d:%02d",
		weekdaysPT[t.Weekday()],
		t.Day(),
		monthsPT[t.Month()-1],
		t.Year(),
		t.Hour(),
		t.Minute(),
	)
}

// DescribeNow is Describe applied to the current store time
func (c *LocalClock) DescribeNow() string {
	return c.Describe(c.now())
}

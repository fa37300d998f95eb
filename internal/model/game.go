package model

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tlgsite/internal/pocketbase"
)

// Game is a title the organization fields a roster in.
type Game struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Status     string              `json:"status"`
	RosterSize int                 `json:"how_many_roster"`
	WinRate    decimal.NullDecimal `json:"winrate"`
}

func GameFromRecord(rec pocketbase.Record) Game {
	return Game{
		ID:         rec.ID(),
		Name:       rec.String("name"),
		Status:     rec.String("status"),
		RosterSize: rec.Int("how_many_roster"),
		WinRate:    parseWinRate(rec.String("winrate")),
	}
}

// parseWinRate accepts "62.5", "62,5" or "62.5%". Anything else is treated as unknown.
func parseWinRate(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// WinRateLabel renders the win rate the way the games page shows it.
func (g Game) WinRateLabel() string {
	if !g.WinRate.Valid {
		return "Bientôt"
	}
	if g.WinRate.Decimal.IsZero() {
		return "à venir"
	}
	return g.WinRate.Decimal.Round(1).String() + "%"
}

// RosterLabel is the roster size, or "Bientôt" while no roster is announced.
func (g Game) RosterLabel() string {
	if g.RosterSize <= 0 {
		return "Bientôt"
	}
	return strconv.Itoa(g.RosterSize)
}

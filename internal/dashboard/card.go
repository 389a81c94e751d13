package dashboard

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/model"
)

const departureMarker = "Пора выходить"

var departurePattern = regexp.MustCompile(`Пора выходить (\d+) мин`)

// ParseCard reads one order card as rendered on the dashboard: the status line
// first, the courier name on the second line. The countdown is only read when
// the status says the courier is due to leave; otherwise it is absent.
func ParseCard(text string) (model.Observation, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return model.Observation{}, apperrors.TransientObservation("card has no courier name line")
	}

	name := strings.TrimSpace(lines[1])
	if name == "" {
		return model.Observation{}, apperrors.TransientObservation("card courier name is empty")
	}

	obs := model.Observation{CourierName: name}
	if !strings.Contains(text, departureMarker) {
		return obs, nil
	}

	match := departurePattern.FindStringSubmatch(text)
	if match == nil {
		return obs, nil
	}
	minutes, err := strconv.Atoi(match[1])
	if err != nil {
		return model.Observation{}, apperrors.TransientObservation("countdown out of range")
	}
	obs.RemainingMinutes = &minutes
	return obs, nil
}

// ParseCards parses a batch of cards and drops the unreadable ones.
func ParseCards(cards []string) (observations []model.Observation, skipped int) {
	for _, card := range cards {
		obs, err := ParseCard(card)
		if err != nil {
			skipped++
			continue
		}
		observations = append(observations, obs)
	}
	return observations, skipped
}

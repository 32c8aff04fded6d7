// Package cityform collects cities interactively, one field group at a time,
// until the user declines to add another. When stdin is not a terminal the
// form runs in accessible mode so it can be scripted.
package cityform

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/vanderheijden86/tspview/pkg/model"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrAborted is returned when the user cancels before entering any city.
var ErrAborted = errors.New("city entry aborted")

// entry holds the raw text of one field group.
type entry struct {
	name     string
	x, y     string
	demand   string
	priority bool
	another  bool
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run prompts for cities, appending to initial. An abort after at least one
// city returns the cities entered so far.
func Run(w io.Writer, initial []model.City) ([]model.City, error) {
	cities := append([]model.City(nil), initial...)
	for {
		fmt.Fprintf(w, "City %d\n", len(cities)+1)
		e := entry{demand: "1", another: true}
		if err := newForm(group(&e)).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				if len(cities) == 0 {
					return nil, ErrAborted
				}
				return cities, nil
			}
			return cities, err
		}

		c, err := e.city()
		if err != nil {
			// field validators make this unreachable for interactive input
			return cities, err
		}
		cities = append(cities, c)
		if !e.another {
			return cities, nil
		}
	}
}

func group(e *entry) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().
			Title("Name (optional)").
			Value(&e.name),
		huh.NewInput().
			Title("X").
			Validate(validateCoordinate).
			Value(&e.x),
		huh.NewInput().
			Title("Y").
			Validate(validateCoordinate).
			Value(&e.y),
		huh.NewConfirm().
			Title("Priority city?").
			Value(&e.priority),
		huh.NewInput().
			Title("Demand").
			Validate(validateDemand).
			Value(&e.demand),
		huh.NewConfirm().
			Title("Add another city?").
			Affirmative("Yes").
			Negative("Submit").
			Value(&e.another),
	)
}

func (e entry) city() (model.City, error) {
	x, err := parseFinite(e.x)
	if err != nil {
		return model.City{}, fmt.Errorf("x: %w", err)
	}
	y, err := parseFinite(e.y)
	if err != nil {
		return model.City{}, fmt.Errorf("y: %w", err)
	}
	demand, err := parseFinite(e.demand)
	if err != nil {
		return model.City{}, fmt.Errorf("demand: %w", err)
	}
	c := model.City{
		Name:     strings.TrimSpace(e.name),
		X:        x,
		Y:        y,
		Priority: e.priority,
		Demand:   demand,
	}
	return c, c.Validate()
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}

func validateCoordinate(s string) error {
	_, err := parseFinite(s)
	return err
}

func validateDemand(s string) error {
	v, err := parseFinite(s)
	if err != nil {
		return err
	}
	if v < 0 {
		return errors.New("demand must be zero or positive")
	}
	return nil
}

package app

import (
	"fmt"
	"io"
	"reflect"

	"github.com/ytget/yt-splitter/internal/model"
	"github.com/ytget/yt-splitter/internal/platform"
	"github.com/ytget/yt-splitter/internal/segment"
)

// check is one built-in self-check
type check struct {
	name string
	run  func() error
}

func selfChecks() []check {
	checks := []check{}

	for _, c := range []struct{ url, id string }{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	} {
		checks = append(checks, check{
			name: "parse " + c.url,
			run: func() error {
				id, err := platform.ParseVideoID(c.url)
				if err != nil {
					return err
				}
				if id != c.id {
					return fmt.Errorf("got %q, want %q", id, c.id)
				}
				return nil
			},
		})
	}

	checks = append(checks, check{
		name: "reject invalid URL",
		run: func() error {
			if _, err := platform.ParseVideoID("invalid"); !model.IsKind(err, model.KindInvalidResource) {
				return fmt.Errorf("expected invalid resource error, got %v", err)
			}
			return nil
		},
	})

	for _, c := range []struct {
		duration float64
		want     [][2]int
	}{
		{125, [][2]int{{0, 42}, {42, 83}, {83, 125}}},
		{60, [][2]int{{0, 60}}},
		{0, [][2]int{{0, 0}}},
	} {
		checks = append(checks, check{
			name: fmt.Sprintf("plan %gs", c.duration),
			run: func() error {
				plan := segment.NewPlan(c.duration, 1920, 1080, model.OrientationVertical, segment.DefaultMaxSeconds)
				var got [][2]int
				for _, r := range segment.Ranges(plan) {
					got = append(got, [2]int{r.Start, r.End})
				}
				if !reflect.DeepEqual(got, c.want) {
					return fmt.Errorf("got %v, want %v", got, c.want)
				}
				return nil
			},
		})
	}

	return checks
}

// RunSelfTest runs the built-in checks, reports each one and returns the
// exit code
func RunSelfTest(w io.Writer) int {
	return runChecks(w, selfChecks())
}

func runChecks(w io.Writer, checks []check) int {
	failed := 0
	for _, c := range checks {
		if err := c.run(); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", c.name, err)
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", c.name)
	}

	fmt.Fprintf(w, "%d checks, %d failed\n", len(checks), failed)
	if failed > 0 {
		return ExitError
	}
	return ExitOK
}

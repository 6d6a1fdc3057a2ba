package main

import (
	"errors"
	"fmt"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/service"
	"github.com/dom/bracket-sync/internal/startgg"
	"github.com/urfave/cli/v2"
)

func tournamentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tournaments",
		Usage: "list the tournaments you administer",
		Action: func(c *cli.Context) error {
			services, err := newServices(c)
			if err != nil {
				return err
			}
			tournaments, err := services.Tournament.ListTournaments(c.Context)
			if err != nil {
				return err
			}
			if len(tournaments) == 0 {
				fmt.Println("No tournaments found")
				return nil
			}
			for _, t := range tournaments {
				fmt.Printf("%-10s %s\n", t.ID, t.Name)
			}
			return nil
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "list the events of one or more tournaments",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "tournament", Aliases: []string{"t"}, Usage: "tournament id (repeatable)", Required: true},
		},
		Action: func(c *cli.Context) error {
			services, err := newServices(c)
			if err != nil {
				return err
			}
			events, err := services.Tournament.ListEvents(c.Context, c.StringSlice("tournament"))
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Printf("%-10s %-30s %s\n", e.ID, e.Name, e.TournamentName)
			}
			return nil
		},
	}
}

func setsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sets",
		Usage: "list the sets of an event",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event", Aliases: []string{"e"}, Usage: "event id", Required: true},
		},
		Action: func(c *cli.Context) error {
			services, err := newServices(c)
			if err != nil {
				return err
			}
			sets, err := services.Bracket.LoadSets(c.Context, c.String("event"))
			if err != nil {
				return err
			}
			for _, set := range sets {
				printSet(set)
			}
			return nil
		},
	}
}

func startCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "mark a set in progress",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event", Aliases: []string{"e"}, Usage: "event id", Required: true},
			&cli.StringFlag{Name: "set", Aliases: []string{"s"}, Usage: "set id", Required: true},
		},
		Action: func(c *cli.Context) error {
			services, err := newServices(c)
			if err != nil {
				return err
			}
			if _, err := services.Bracket.LoadSets(c.Context, c.String("event")); err != nil {
				return err
			}
			set, err := services.Bracket.StartSet(c.Context, c.String("set"))
			if err := tolerateRefetch(err); err != nil {
				return err
			}
			printSet(set)
			return nil
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "clear the reported result of a set",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event", Aliases: []string{"e"}, Usage: "event id", Required: true},
			&cli.StringFlag{Name: "set", Aliases: []string{"s"}, Usage: "set id", Required: true},
			&cli.BoolFlag{Name: "dependent", Usage: "also reset the sets that depend on this one"},
		},
		Action: func(c *cli.Context) error {
			services, err := newServices(c)
			if err != nil {
				return err
			}
			if _, err := services.Bracket.LoadSets(c.Context, c.String("event")); err != nil {
				return err
			}
			set, err := services.Bracket.ResetSet(c.Context, c.String("set"), c.Bool("dependent"))
			if err := tolerateRefetch(err); err != nil {
				return err
			}
			printSet(set)
			return nil
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "record game winners and complete a set",
		Description: `--games lists game:slot pairs, slot 1 being the first entrant.
   "1:1,2:2,3:1" reports three games won by slot 1, slot 2 and slot 1.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event", Aliases: []string{"e"}, Usage: "event id", Required: true},
			&cli.StringFlag{Name: "set", Aliases: []string{"s"}, Usage: "set id", Required: true},
			&cli.StringFlag{Name: "games", Aliases: []string{"g"}, Usage: "game winners, e.g. 1:1,2:2,3:1", Required: true},
			&cli.BoolFlag{Name: "save-only", Usage: "save the games without completing the set"},
		},
		Action: func(c *cli.Context) error {
			results, err := parseGames(c.String("games"))
			if err != nil {
				return err
			}

			services, err := newServices(c)
			if err != nil {
				return err
			}
			if _, err := services.Bracket.LoadSets(c.Context, c.String("event")); err != nil {
				return err
			}

			setID := c.String("set")
			if err := applyResults(c.Context, services.Bracket, setID, results); err != nil {
				return err
			}

			var set *domain.Set
			if c.Bool("save-only") {
				set, err = services.Bracket.SaveSet(c.Context, setID, service.SaveOptions{})
			} else {
				set, err = services.Bracket.SubmitSet(c.Context, setID)
			}
			if err := tolerateRefetch(err); err != nil {
				return err
			}
			printSet(set)
			return nil
		},
	}
}

// tolerateRefetch drops ErrRefetchFailed: the write itself went through.
func tolerateRefetch(err error) error {
	if errors.Is(err, domain.ErrRefetchFailed) {
		fmt.Println("Warning: written, but the set could not be refreshed")
		return nil
	}
	return err
}

func printSet(set *domain.Set) {
	fmt.Printf("%-10s %-12s %s vs %s  %s  %s\n",
		set.ID,
		set.State,
		set.Slots[0].DisplayName(),
		set.Slots[1].DisplayName(),
		set.ScoreLine(),
		startgg.SetURL(set.ID),
	)
}

package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mpataki/balneo/internal/models"
	"github.com/mpataki/balneo/internal/runner"
	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func newExerciseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Manage exercises",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			exercises, err := store.ListExercises()
			if err != nil {
				return err
			}
			if len(exercises) == 0 {
				fmt.Println("No exercises found.")
				return nil
			}
			for _, ex := range exercises {
				fmt.Printf("%-36s %-28s %4ds  %s\n", ex.ID, truncate(ex.Name, 28), ex.DurationSeconds, truncate(ex.Description, 40))
			}
			return nil
		},
	})

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, _ := cmd.Flags().GetInt("duration")
			description, _ := cmd.Flags().GetString("description")
			instructions, _ := cmd.Flags().GetString("instructions")
			if duration <= 0 {
				return fmt.Errorf("duration must be positive")
			}

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ex := &models.Exercise{
				Name:            args[0],
				DurationSeconds: duration,
				Description:     description,
				Instructions:    instructions,
			}
			if err := store.CreateExercise(ex); err != nil {
				return err
			}
			fmt.Printf("Created exercise %s\n", ex.ID)
			return nil
		},
	}
	add.Flags().IntP("duration", "d", 60, "Duration in seconds")
	add.Flags().String("description", "", "Short description")
	add.Flags().String("instructions", "", "Instructions shown to the patient")
	cmd.AddCommand(add)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u models.ExerciseUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				v, _ := flags.GetString("name")
				u.Name = &v
			}
			if flags.Changed("duration") {
				v, _ := flags.GetInt("duration")
				if v <= 0 {
					return fmt.Errorf("duration must be positive")
				}
				u.DurationSeconds = &v
			}
			if flags.Changed("description") {
				v, _ := flags.GetString("description")
				u.Description = &v
			}
			if flags.Changed("instructions") {
				v, _ := flags.GetString("instructions")
				u.Instructions = &v
			}

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ex, err := store.UpdateExercise(args[0], u)
			if err != nil {
				return err
			}
			fmt.Printf("Updated exercise %s (%s, %ds)\n", ex.ID, ex.Name, ex.DurationSeconds)
			return nil
		},
	}
	update.Flags().String("name", "", "New name")
	update.Flags().IntP("duration", "d", 0, "New duration in seconds")
	update.Flags().String("description", "", "New description")
	update.Flags().String("instructions", "", "New instructions")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an exercise (sessions skip it from now on)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteExercise(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted exercise %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.ListSessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}
			for _, s := range sessions {
				total := 0
				exercises := runner.ResolveExercises(store, s.ID)
				for _, ex := range exercises {
					total += ex.DurationSeconds
				}
				fmt.Printf("%-36s %-32s %2d exercises  %s\n", s.ID, truncate(s.Name, 32), len(exercises), formatSeconds(total))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a session's exercise sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := store.GetSession(args[0])
			if err != nil {
				return err
			}
			exercises := runner.ResolveExercises(store, s.ID)

			fmt.Printf("Session %s: %s\n", s.ID, s.Name)
			fmt.Printf("Created: %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"))
			total := 0
			for i, ex := range exercises {
				total += ex.DurationSeconds
				fmt.Printf("  %2d. %-28s %4ds\n", i+1, truncate(ex.Name, 28), ex.DurationSeconds)
			}
			if missing := len(s.Exercises) - len(exercises); missing > 0 {
				fmt.Printf("  (%d deleted exercises skipped)\n", missing)
			}
			fmt.Printf("Total: %s\n", formatSeconds(total))
			return nil
		},
	})

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a session from exercise ids, in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, _ := cmd.Flags().GetStringSlice("exercise")

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			session := &models.Session{Name: args[0]}
			for i, id := range ids {
				if _, err := store.GetExercise(id); err != nil {
					return err
				}
				session.Exercises = append(session.Exercises, models.SessionExercise{ExerciseID: id, Order: i})
			}
			if err := store.CreateSession(session); err != nil {
				return err
			}
			fmt.Printf("Created session %s with %d exercises\n", session.ID, len(session.Exercises))
			return nil
		},
	}
	add.Flags().StringSliceP("exercise", "e", nil, "Exercise id (repeat or comma-separate, in program order)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteSession(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted session %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newPatientCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Manage patients",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List patients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			patients, err := store.ListPatients()
			if err != nil {
				return err
			}
			if len(patients) == 0 {
				fmt.Println("No patients found.")
				return nil
			}
			sortPatients(patients)
			for _, p := range patients {
				fmt.Printf("%-36s %-24s %s\n", p.ID, truncate(p.FullName(), 24), truncate(p.Notes, 50))
			}
			return nil
		},
	})

	add := &cobra.Command{
		Use:   "add <first-name> [last-name]",
		Short: "Create a patient",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p := &models.Patient{FirstName: args[0], Notes: notes}
			if len(args) == 2 {
				p.LastName = args[1]
			}
			if err := store.CreatePatient(p); err != nil {
				return err
			}
			fmt.Printf("Created patient %s (%s)\n", p.ID, p.ShortName())
			return nil
		},
	}
	add.Flags().String("notes", "", "Clinical notes")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient and their history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeletePatient(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted patient %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <patient-id>",
		Short: "Show a patient's session history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.GetPatient(args[0])
			if err != nil {
				return err
			}
			entries, err := store.GetPatientSessions(p.ID)
			if err != nil {
				return err
			}

			fmt.Printf("History for %s\n", p.FullName())
			if len(entries) == 0 {
				fmt.Println("No sessions yet.")
				return nil
			}
			for _, e := range entries {
				name := e.SessionID
				if s, err := store.GetSession(e.SessionID); err == nil {
					name = s.Name
				} else if !errors.Is(err, models.ErrNotFound) {
					return err
				}
				fmt.Printf("  %s  %s", e.CompletedAt.Local().Format("2006-01-02 15:04"), name)
				if e.Notes != "" {
					fmt.Printf("  (%s)", e.Notes)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func formatSeconds(total int) string {
	return fmt.Sprintf("%dm%02ds", total/60, total%60)
}

// sortPatients orders by last then first name, accents folded the French way.
func sortPatients(patients []*models.Patient) {
	c := collate.New(language.French, collate.IgnoreCase)
	sort.SliceStable(patients, func(i, j int) bool {
		a, b := patients[i], patients[j]
		if r := c.CompareString(a.LastName, b.LastName); r != 0 {
			return r < 0
		}
		return c.CompareString(a.FirstName, b.FirstName) < 0
	})
}

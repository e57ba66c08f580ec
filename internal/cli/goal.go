package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spirequest/spire/internal/domain"
)

func init() {
	rootCmd.AddCommand(goalCmd)
}

var goalCmd = &cobra.Command{
	Use:   "goal GOAL_TEXT",
	Short: "Break a goal into micro-quests",
	Long: `Send a free-text goal to the Architect, which decomposes it into
3-5 micro-quests with XP rewards and staggered deadlines. Without a
configured planner endpoint you get a single manual-override quest.`,
	Args: cobra.ExactArgs(1),
	RunE: runGoal,
}

func runGoal(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	var out struct {
		Quests []domain.Quest `json:"quests"`
	}
	if err := c.do("POST", "/api/goals", map[string]string{"goal": args[0]}, &out); err != nil {
		return err
	}

	fmt.Printf("Plan created: %d quest(s)\n", len(out.Quests))
	for _, q := range out.Quests {
		due := "no deadline"
		if q.Deadline != nil {
			due = "due " + q.Deadline.Local().Format("Jan 2")
		}
		fmt.Printf("  %3d XP  %-10s  %s\n", q.XPReward, due, q.Title)
	}
	return nil
}

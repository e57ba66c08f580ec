package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spirequest/spire/internal/domain"
)

func init() {
	rootCmd.AddCommand(questCmd)
	questCmd.AddCommand(questListCmd)
	questCmd.AddCommand(questAddCmd)
	questCmd.AddCommand(questDoneCmd)
	questCmd.AddCommand(questRemoveCmd)
	questCmd.AddCommand(questEditCmd)

	questAddCmd.Flags().IntP("xp", "x", 20, "XP reward")
	questAddCmd.Flags().StringP("deadline", "d", "", "Deadline (YYYY-MM-DD or days from now, e.g. 3)")
	questEditCmd.Flags().StringP("title", "t", "", "New title")
	questEditCmd.Flags().IntP("xp", "x", 0, "New XP reward")
	questEditCmd.Flags().StringP("deadline", "d", "", "New deadline (YYYY-MM-DD or days from now)")
	questEditCmd.Flags().Bool("clear-deadline", false, "Remove the deadline")
}

var questCmd = &cobra.Command{
	Use:   "quest",
	Short: "Manage your quests",
}

// ─── quest list ─────────────────────────────────────────────────────────────

var questListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active quests",
	Args:  cobra.NoArgs,
	RunE:  runQuestList,
}

func runQuestList(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	var out struct {
		Quests []domain.Quest `json:"quests"`
	}
	if err := c.do("GET", "/api/quests", nil, &out); err != nil {
		return err
	}

	if len(out.Quests) == 0 {
		fmt.Println("No active quests. Add one with: spire quest add \"TITLE\"")
		return nil
	}
	for _, q := range out.Quests {
		fmt.Printf("%-36s  %3d XP  %-9s  %s\n", q.ID, q.XPReward, questState(q), q.Title)
	}
	return nil
}

func questState(q domain.Quest) string {
	switch {
	case q.Status == domain.QuestCorrupted:
		return "CORRUPTED"
	case q.DaysOverdue > 0:
		return fmt.Sprintf("%dd late", q.DaysOverdue)
	case q.Deadline != nil:
		return "due " + q.Deadline.Local().Format("Jan 2")
	default:
		return "open"
	}
}

// ─── quest add ──────────────────────────────────────────────────────────────

var questAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add a quest",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestAdd,
}

func runQuestAdd(cmd *cobra.Command, args []string) error {
	xp, _ := cmd.Flags().GetInt("xp")
	deadlineFlag, _ := cmd.Flags().GetString("deadline")

	draft := map[string]any{"title": args[0], "xp_reward": xp}
	if deadlineFlag != "" {
		deadline, err := parseDeadline(deadlineFlag)
		if err != nil {
			return err
		}
		draft["deadline"] = deadline.Format(time.RFC3339)
	}

	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	var q domain.Quest
	if err := c.do("POST", "/api/quests", draft, &q); err != nil {
		return err
	}
	fmt.Printf("Quest added: %s (%d XP)\n", q.Title, q.XPReward)
	return nil
}

// parseDeadline accepts either a day count ("3") or a date
// ("2024-03-15"). Both resolve to end of day local time.
func parseDeadline(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t.Add(24*time.Hour - time.Second), nil
	}
	var days int
	if _, err := fmt.Sscanf(s, "%d", &days); err == nil && days > 0 {
		t := time.Now().AddDate(0, 0, days)
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.Local), nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q: use YYYY-MM-DD or a day count", s)
}

// ─── quest done ─────────────────────────────────────────────────────────────

var questDoneCmd = &cobra.Command{
	Use:   "done QUEST_ID",
	Short: "Complete a quest and claim the XP",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestDone,
}

func runQuestDone(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	var p playerView
	if err := c.do("POST", "/api/quests/"+args[0]+"/complete", nil, &p); err != nil {
		return err
	}
	if p.IsLevelCapped {
		fmt.Printf("Quest complete! Boss gate: %d / %d gate XP.\n", p.BossXPEarned, p.BossXPRequired)
	} else {
		fmt.Printf("Quest complete! Level %d, %d / %d XP.\n", p.Level, p.CurrentXP, p.XPToNextLevel)
	}
	return nil
}

// ─── quest rm ───────────────────────────────────────────────────────────────

var questRemoveCmd = &cobra.Command{
	Use:   "rm QUEST_ID",
	Short: "Abandon a quest (overdue quests cost XP)",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestRemove,
}

func runQuestRemove(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	var p playerView
	if err := c.do("DELETE", "/api/quests/"+args[0], nil, &p); err != nil {
		return err
	}
	fmt.Printf("Quest abandoned. Level %d, %d / %d XP.\n", p.Level, p.CurrentXP, p.XPToNextLevel)
	return nil
}

// ─── quest edit ─────────────────────────────────────────────────────────────

var questEditCmd = &cobra.Command{
	Use:   "edit QUEST_ID",
	Short: "Edit a quest's title, XP, or deadline",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestEdit,
}

func runQuestEdit(cmd *cobra.Command, args []string) error {
	patch := map[string]any{}
	if title, _ := cmd.Flags().GetString("title"); title != "" {
		patch["title"] = title
	}
	if xp, _ := cmd.Flags().GetInt("xp"); xp > 0 {
		patch["xp_reward"] = xp
	}
	if clear, _ := cmd.Flags().GetBool("clear-deadline"); clear {
		patch["clear_deadline"] = true
	} else if deadlineFlag, _ := cmd.Flags().GetString("deadline"); deadlineFlag != "" {
		deadline, err := parseDeadline(deadlineFlag)
		if err != nil {
			return err
		}
		patch["deadline"] = deadline.Format(time.RFC3339)
	}
	if len(patch) == 0 {
		return fmt.Errorf("nothing to change: pass --title, --xp, --deadline, or --clear-deadline")
	}

	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := c.do("PATCH", "/api/quests/"+args[0], patch, nil); err != nil {
		return err
	}
	fmt.Println("Quest updated.")
	return nil
}
